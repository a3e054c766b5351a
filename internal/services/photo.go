package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"dating-api/internal/imagestore"
	"dating-api/internal/models"
	"dating-api/internal/push"
	"dating-api/internal/repository"

	"github.com/rs/zerolog/log"
)

// PhotoService handles photo management and moderation
type PhotoService struct {
	photos   repository.PhotoRepository
	images   imagestore.Store
	notifier Notifier
}

// NewPhotoService creates a new photo service
func NewPhotoService(photos repository.PhotoRepository, images imagestore.Store, notifier Notifier) *PhotoService {
	return &PhotoService{
		photos:   photos,
		images:   images,
		notifier: notifierOrNop(notifier),
	}
}

// Upload stores the image on the image host and records it as an unapproved photo
func (s *PhotoService) Upload(ctx context.Context, caller models.Caller, userID int64, filename, description string, file io.Reader) (*models.Photo, error) {
	if err := actAs(caller, userID); err != nil {
		return nil, err
	}

	up, err := s.images.Upload(ctx, filename, file)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Image upload failed")
		return nil, models.NewError(models.ErrExternalService, "failed to upload photo")
	}

	publicID := up.PublicID
	photo := &models.Photo{
		UserID:      userID,
		Username:    caller.Username,
		URL:         up.URL,
		Description: description,
		DateAdded:   time.Now().UTC(),
		PublicID:    &publicID,
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		if delErr := s.images.Delete(ctx, publicID); delErr != nil {
			log.Error().Err(delErr).Str("public_id", publicID).Msg("Failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	log.Info().Int64("user_id", userID).Int64("photo_id", photo.ID).Bool("is_main", photo.IsMain).Msg("Photo uploaded")
	return photo, nil
}

// Get returns a photo; unapproved photos are visible to their owner and moderators only
func (s *PhotoService) Get(ctx context.Context, caller models.Caller, photoID int64) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !photo.IsApproved && photo.UserID != caller.ID && !caller.HasRole(models.RoleAdmin, models.RoleModerator) {
		return nil, models.NewError(models.ErrNotFound, "photo not found")
	}
	return photo, nil
}

// SetMain makes photoID the user's main photo
func (s *PhotoService) SetMain(ctx context.Context, caller models.Caller, userID, photoID int64) error {
	if err := actAs(caller, userID); err != nil {
		return err
	}
	photo, err := s.ownedPhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if photo.IsMain {
		return models.NewError(models.ErrInvalidOperation, "this is already the main photo")
	}
	return s.photos.SetMain(ctx, userID, photoID)
}

// Delete removes one of the user's own photos
func (s *PhotoService) Delete(ctx context.Context, caller models.Caller, userID, photoID int64) error {
	if err := actAs(caller, userID); err != nil {
		return err
	}
	photo, err := s.ownedPhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if photo.IsMain {
		return models.NewError(models.ErrInvalidOperation, "you cannot delete your main photo")
	}
	return s.remove(ctx, photo)
}

// Approve makes a photo visible to other users
func (s *PhotoService) Approve(ctx context.Context, caller models.Caller, photoID int64) error {
	if err := requireRole(caller, models.RoleAdmin, models.RoleModerator); err != nil {
		return err
	}
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if err := s.photos.Approve(ctx, photoID); err != nil {
		return err
	}

	log.Info().Int64("photo_id", photoID).Int64("moderator_id", caller.ID).Msg("Photo approved")
	if !photo.IsApproved {
		s.notifier.Notify(ctx, photo.UserID, push.Notification{
			Type:  "photo_approved",
			Title: "Photo approved",
			Body:  "Your photo is now visible to other members",
			Data:  map[string]any{"photo_id": photoID},
		})
	}
	return nil
}

// Reject deletes a photo awaiting moderation
func (s *PhotoService) Reject(ctx context.Context, caller models.Caller, photoID int64) error {
	if err := requireRole(caller, models.RoleAdmin, models.RoleModerator); err != nil {
		return err
	}
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.IsMain {
		return models.NewError(models.ErrInvalidOperation, "you cannot reject the main photo")
	}
	if err := s.remove(ctx, photo); err != nil {
		return err
	}
	log.Info().Int64("photo_id", photoID).Int64("moderator_id", caller.ID).Msg("Photo rejected")
	return nil
}

// ForModeration lists unapproved photos with their owners' usernames
func (s *PhotoService) ForModeration(ctx context.Context, caller models.Caller) ([]models.Photo, error) {
	if err := requireRole(caller, models.RoleAdmin, models.RoleModerator); err != nil {
		return nil, err
	}
	return s.photos.ListUnapproved(ctx)
}

func (s *PhotoService) ownedPhoto(ctx context.Context, userID, photoID int64) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewError(models.ErrUnauthorized, "photo does not belong to user")
		}
		return nil, err
	}
	if photo.UserID != userID {
		return nil, models.NewError(models.ErrUnauthorized, "photo does not belong to user")
	}
	return photo, nil
}

// remove deletes the hosted asset first; the record is only removed once the
// host confirms, so a failed delete leaves everything in place.
func (s *PhotoService) remove(ctx context.Context, photo *models.Photo) error {
	if photo.PublicID != nil && *photo.PublicID != "" {
		if err := s.images.Delete(ctx, *photo.PublicID); err != nil {
			log.Error().Err(err).Int64("photo_id", photo.ID).Str("public_id", *photo.PublicID).Msg("Image host delete failed")
			return models.NewError(models.ErrExternalService, "failed to delete the photo from the image host")
		}
	}
	if err := s.photos.Delete(ctx, photo.ID); err != nil {
		return err
	}
	log.Info().Int64("photo_id", photo.ID).Int64("user_id", photo.UserID).Msg("Photo deleted")
	return nil
}
