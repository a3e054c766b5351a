package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dating-api/internal/models"
)

// LikeRepository handles database operations for likes
type LikeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Get retrieves the like from likerID to likeeID
func (r *LikeRepository) Get(ctx context.Context, likerID, likeeID int64) (*models.Like, error) {
	var l models.Like
	err := r.db.QueryRowContext(ctx, `SELECT liker_id, likee_id, created FROM likes WHERE liker_id = ? AND likee_id = ?`,
		likerID, likeeID).Scan(&l.LikerID, &l.LikeeID, &l.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("like %d->%d: %w", likerID, likeeID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get like: %w", err)
	}
	return &l, nil
}

// Create stores a like
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	if like.Created.IsZero() {
		like.Created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO likes (liker_id, likee_id, created) VALUES (?, ?, ?)`,
		like.LikerID, like.LikeeID, like.Created)
	if err != nil {
		return fmt.Errorf("failed to create like: %w", mapError(err))
	}
	return nil
}
