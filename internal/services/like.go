package services

import (
	"context"
	"errors"
	"time"

	"dating-api/internal/models"
	"dating-api/internal/push"
	"dating-api/internal/repository"

	"github.com/rs/zerolog/log"
)

// LikeService handles likes between users
type LikeService struct {
	likes    repository.LikeRepository
	users    repository.UserRepository
	notifier Notifier
}

// NewLikeService creates a new like service
func NewLikeService(likes repository.LikeRepository, users repository.UserRepository, notifier Notifier) *LikeService {
	return &LikeService{
		likes:    likes,
		users:    users,
		notifier: notifierOrNop(notifier),
	}
}

// Like records that likerID likes likeeID
func (s *LikeService) Like(ctx context.Context, caller models.Caller, likerID, likeeID int64) (*models.Like, error) {
	if err := actAs(caller, likerID); err != nil {
		return nil, err
	}
	if likerID == likeeID {
		return nil, models.NewError(models.ErrInvalidOperation, "you cannot like yourself")
	}

	if _, err := s.likes.Get(ctx, likerID, likeeID); err == nil {
		return nil, models.NewError(models.ErrAlreadyExists, "you already liked this user")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, likeeID, false); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewError(models.ErrNotFound, "user not found")
		}
		return nil, err
	}

	like := &models.Like{LikerID: likerID, LikeeID: likeeID, Created: time.Now().UTC()}
	if err := s.likes.Create(ctx, like); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return nil, models.NewError(models.ErrAlreadyExists, "you already liked this user")
		}
		return nil, err
	}

	log.Info().Int64("liker_id", likerID).Int64("likee_id", likeeID).Msg("Like created")
	s.notifier.Notify(ctx, likeeID, push.Notification{
		Type:  "liked",
		Title: "New like",
		Body:  caller.Username + " liked you",
		Data:  map[string]any{"liker_id": likerID},
	})
	return like, nil
}
