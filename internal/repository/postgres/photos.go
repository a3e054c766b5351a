package postgres

import (
	"context"
	"fmt"
	"time"

	"dating-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const photoColumns = `p.id, p.user_id, u.username, p.url, p.description, p.date_added, p.public_id, p.is_approved, p.is_main`

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func scanPhoto(row pgx.Row) (models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.URL, &p.Description, &p.DateAdded, &p.PublicID, &p.IsApproved, &p.IsMain)
	return p, err
}

func collectPhotos(rows pgx.Rows) ([]models.Photo, error) {
	photos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Photo, error) {
		return scanPhoto(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan photos: %w", err)
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

// Create inserts a photo; it becomes main when the owner has none
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if photo.DateAdded.IsZero() {
		photo.DateAdded = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO photos (user_id, url, description, date_added, public_id, is_approved, is_main)
		VALUES ($1, $2, $3, $4, $5, $6, NOT EXISTS (SELECT 1 FROM photos WHERE user_id = $1 AND is_main))
		RETURNING id, is_main`,
		photo.UserID, photo.URL, photo.Description, photo.DateAdded, photo.PublicID, photo.IsApproved,
	).Scan(&photo.ID, &photo.IsMain)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	p, err := scanPhoto(r.db.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos p JOIN users u ON u.id = p.user_id WHERE p.id = $1`, id))
	if err != nil {
		if nf := notFound(err, "photo %d", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &p, nil
}

// SetMain moves the main flag of the user to photoID
func (r *PhotoRepository) SetMain(ctx context.Context, userID, photoID int64) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE photos SET is_main = FALSE WHERE user_id = $1 AND is_main`, userID); err != nil {
			return fmt.Errorf("failed to clear main photo: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE photos SET is_main = TRUE WHERE id = $1 AND user_id = $2`, photoID, userID)
		if err != nil {
			return fmt.Errorf("failed to set main photo: %w", mapError(err))
		}
		return expectOne(tag, "photo", photoID)
	})
}

// Approve marks a photo as approved
func (r *PhotoRepository) Approve(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE photos SET is_approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to approve photo: %w", err)
	}
	return expectOne(tag, "photo", id)
}

// Delete removes a photo record
func (r *PhotoRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return expectOne(tag, "photo", id)
}

// ListUnapproved returns photos awaiting moderation, oldest first
func (r *PhotoRepository) ListUnapproved(ctx context.Context) ([]models.Photo, error) {
	rows, err := r.db.Query(ctx, `SELECT `+photoColumns+` FROM photos p JOIN users u ON u.id = p.user_id
		WHERE NOT p.is_approved ORDER BY p.date_added, p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos for moderation: %w", err)
	}
	return collectPhotos(rows)
}
