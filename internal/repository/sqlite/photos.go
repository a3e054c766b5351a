package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dating-api/internal/models"
)

const photoColumns = `p.id, p.user_id, u.username, p.url, p.description, p.date_added, p.public_id, p.is_approved, p.is_main`

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var (
		p        models.Photo
		publicID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.URL, &p.Description, &p.DateAdded, &publicID, &p.IsApproved, &p.IsMain); err != nil {
		return nil, err
	}
	p.PublicID = stringPtr(publicID)
	return &p, nil
}

func scanPhotos(rows *sql.Rows) ([]models.Photo, error) {
	photos := []models.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photos: %w", err)
	}
	return photos, nil
}

// Create inserts a photo; it becomes main when the owner has none
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if photo.DateAdded.IsZero() {
		photo.DateAdded = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO photos (user_id, url, description, date_added, public_id, is_approved, is_main)
		VALUES (?, ?, ?, ?, ?, ?, NOT EXISTS (SELECT 1 FROM photos WHERE user_id = ? AND is_main = 1))
		RETURNING id, is_main`,
		photo.UserID, photo.URL, photo.Description, photo.DateAdded, nullString(photo.PublicID), photo.IsApproved, photo.UserID,
	).Scan(&photo.ID, &photo.IsMain)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	p, err := scanPhoto(r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos p JOIN users u ON u.id = p.user_id WHERE p.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("photo %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return p, nil
}

// SetMain moves the main flag of the user to photoID
func (r *PhotoRepository) SetMain(ctx context.Context, userID, photoID int64) error {
	return withTx(ctx, r.db, func(tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE photos SET is_main = 0 WHERE user_id = ? AND is_main = 1`, userID); err != nil {
			return fmt.Errorf("failed to clear main photo: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE photos SET is_main = 1 WHERE id = ? AND user_id = ?`, photoID, userID)
		if err != nil {
			return fmt.Errorf("failed to set main photo: %w", mapError(err))
		}
		return expectOne(res, "photo", photoID)
	})
}

// Approve marks a photo as approved
func (r *PhotoRepository) Approve(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE photos SET is_approved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to approve photo: %w", err)
	}
	return expectOne(res, "photo", id)
}

// Delete removes a photo record
func (r *PhotoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return expectOne(res, "photo", id)
}

// ListUnapproved returns photos awaiting moderation, oldest first
func (r *PhotoRepository) ListUnapproved(ctx context.Context) ([]models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+photoColumns+` FROM photos p JOIN users u ON u.id = p.user_id
		WHERE p.is_approved = 0 ORDER BY p.date_added, p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos for moderation: %w", err)
	}
	defer rows.Close()
	return scanPhotos(rows)
}
