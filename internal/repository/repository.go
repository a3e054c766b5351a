// Package repository declares the persistence contracts used by the services.
// Implementations live in the postgres and sqlite subpackages; both report
// missing rows as models.ErrNotFound and unique violations as
// models.ErrAlreadyExists.
package repository

import (
	"context"
	"time"

	"dating-api/internal/models"
)

type UserRepository interface {
	// Create inserts the user together with its roles and fills ID and Created.
	Create(ctx context.Context, user *models.User, roles []string) error
	// GetByID loads the user with roles and photos. Unapproved photos are
	// included only when includeUnapproved is set.
	GetByID(ctx context.Context, id int64, includeUnapproved bool) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	TouchLastActive(ctx context.Context, id int64, at time.Time) error
	Search(ctx context.Context, q models.UserSearch) ([]models.User, int, error)
	ListWithRoles(ctx context.Context) ([]models.User, error)
	// SetRoles replaces the user's role set atomically.
	SetRoles(ctx context.Context, userID int64, roles []string) error
	UpdatePushTargets(ctx context.Context, userID int64, apnsToken, webPushSubscription *string) error
}

type PhotoRepository interface {
	// Create inserts the photo, marking it main when the owner has no main
	// photo yet, and fills ID and IsMain.
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id int64) (*models.Photo, error)
	// SetMain clears the owner's current main photo and sets photoID in one transaction.
	SetMain(ctx context.Context, userID, photoID int64) error
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	ListUnapproved(ctx context.Context) ([]models.Photo, error)
}

type LikeRepository interface {
	Get(ctx context.Context, likerID, likeeID int64) (*models.Like, error)
	Create(ctx context.Context, like *models.Like) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	MarkRead(ctx context.Context, id int64, at time.Time) error
	// DeleteForParty sets the deleted flag of userID's side and purges the row
	// once both sides have deleted it. It reports whether the row was purged.
	DeleteForParty(ctx context.Context, id, userID int64) (bool, error)
	// Thread returns messages between userID and otherID that userID has not
	// deleted, oldest first.
	Thread(ctx context.Context, userID, otherID int64) ([]models.Message, error)
	List(ctx context.Context, userID int64, container models.MessageContainer, page models.PageParams) ([]models.Message, int, error)
}

// Store bundles the repositories of one backing database.
type Store struct {
	Users    UserRepository
	Photos   PhotoRepository
	Likes    LikeRepository
	Messages MessageRepository
}
