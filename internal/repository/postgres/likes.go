package postgres

import (
	"context"
	"fmt"
	"time"

	"dating-api/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LikeRepository handles database operations for likes
type LikeRepository struct {
	db *pgxpool.Pool
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{db: db}
}

// Get retrieves the like from likerID to likeeID
func (r *LikeRepository) Get(ctx context.Context, likerID, likeeID int64) (*models.Like, error) {
	var l models.Like
	err := r.db.QueryRow(ctx, `SELECT liker_id, likee_id, created FROM likes WHERE liker_id = $1 AND likee_id = $2`,
		likerID, likeeID).Scan(&l.LikerID, &l.LikeeID, &l.Created)
	if err != nil {
		if nf := notFound(err, "like %d->%d", likerID, likeeID); nf != nil {
			return nil, nf
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
	_, err := r.db.Exec(ctx, `INSERT INTO likes (liker_id, likee_id, created) VALUES ($1, $2, $3)`,
		like.LikerID, like.LikeeID, like.Created)
	if err != nil {
		return fmt.Errorf("failed to create like: %w", mapError(err))
	}
	return nil
}
