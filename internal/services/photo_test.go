package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dating-api/internal/imagestore"
	"dating-api/internal/models"
	"dating-api/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func uploadPhoto(t *testing.T, svc *services.PhotoService, images *MockImageStore, caller models.Caller, publicID string) *models.Photo {
	t.Helper()
	images.On("Upload", mock.Anything, "me.jpg", mock.Anything).
		Return(&imagestore.Uploaded{URL: "https://img.test/" + publicID, PublicID: publicID}, nil).Once()
	photo, err := svc.Upload(context.Background(), caller, caller.ID, "me.jpg", "", strings.NewReader("jpeg"))
	require.NoError(t, err)
	return photo
}

func TestPhotoUploadAndMain(t *testing.T) {
	store := newStore(t)
	images := new(MockImageStore)
	svc := services.NewPhotoService(store.Photos, images, nil)
	ctx := context.Background()
	alice := addUser(t, store, "alice", "female", 25)

	first := uploadPhoto(t, svc, images, alice, "p1")
	second := uploadPhoto(t, svc, images, alice, "p2")
	assert.True(t, first.IsMain)
	assert.False(t, second.IsMain)
	assert.False(t, first.IsApproved)

	err := svc.SetMain(ctx, alice, alice.ID, first.ID)
	assert.ErrorIs(t, err, models.ErrInvalidOperation)

	require.NoError(t, svc.SetMain(ctx, alice, alice.ID, second.ID))
	got, err := store.Photos.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsMain)
	got, err = store.Photos.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMain)

	t.Run("CannotDeleteMain", func(t *testing.T) {
		err := svc.Delete(ctx, alice, alice.ID, second.ID)
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	})

	t.Run("DeleteRemovesHostedAsset", func(t *testing.T) {
		images.On("Delete", mock.Anything, "p1").Return(nil).Once()
		require.NoError(t, svc.Delete(ctx, alice, alice.ID, first.ID))
		_, err := store.Photos.GetByID(ctx, first.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("ForeignPhoto", func(t *testing.T) {
		bob := addUser(t, store, "bob", "male", 30)
		err := svc.SetMain(ctx, bob, bob.ID, second.ID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		err = svc.Delete(ctx, bob, bob.ID, 777)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	images.AssertExpectations(t)
}

func TestPhotoUploadFailures(t *testing.T) {
	store := newStore(t)
	images := new(MockImageStore)
	svc := services.NewPhotoService(store.Photos, images, nil)
	ctx := context.Background()
	alice := addUser(t, store, "alice", "female", 25)

	t.Run("HostError", func(t *testing.T) {
		images.On("Upload", mock.Anything, "bad.jpg", mock.Anything).Return(nil, errors.New("boom")).Once()
		_, err := svc.Upload(ctx, alice, alice.ID, "bad.jpg", "", strings.NewReader("x"))
		assert.ErrorIs(t, err, models.ErrExternalService)
	})

	t.Run("RecordFailureRemovesUpload", func(t *testing.T) {
		ghost := models.Caller{ID: 5000, Username: "ghost"}
		images.On("Upload", mock.Anything, "g.jpg", mock.Anything).
			Return(&imagestore.Uploaded{URL: "https://img.test/g", PublicID: "g"}, nil).Once()
		images.On("Delete", mock.Anything, "g").Return(nil).Once()

		_, err := svc.Upload(ctx, ghost, ghost.ID, "g.jpg", "", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("WrongUser", func(t *testing.T) {
		_, err := svc.Upload(ctx, alice, alice.ID+1, "x.jpg", "", strings.NewReader("x"))
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	images.AssertExpectations(t)
}

func TestPhotoModeration(t *testing.T) {
	store := newStore(t)
	images := new(MockImageStore)
	notifier := &recordingNotifier{}
	svc := services.NewPhotoService(store.Photos, images, notifier)
	ctx := context.Background()

	alice := addUser(t, store, "alice", "female", 25)
	bob := addUser(t, store, "bob", "male", 30)
	mod := addUser(t, store, "mod", "male", 40, models.RoleModerator)

	main := uploadPhoto(t, svc, images, alice, "m")
	extra := uploadPhoto(t, svc, images, alice, "e")
	local := &models.Photo{UserID: alice.ID, URL: "https://elsewhere/p.jpg"}
	require.NoError(t, store.Photos.Create(ctx, local))

	t.Run("MembersCannotModerate", func(t *testing.T) {
		_, err := svc.ForModeration(ctx, bob)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.ErrorIs(t, svc.Approve(ctx, alice, extra.ID), models.ErrUnauthorized)
		assert.ErrorIs(t, svc.Reject(ctx, bob, extra.ID), models.ErrUnauthorized)
	})

	t.Run("UnapprovedHiddenFromOthers", func(t *testing.T) {
		_, err := svc.Get(ctx, bob, extra.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = svc.Get(ctx, alice, extra.ID)
		assert.NoError(t, err)
		_, err = svc.Get(ctx, mod, extra.ID)
		assert.NoError(t, err)
	})

	t.Run("Queue", func(t *testing.T) {
		queue, err := svc.ForModeration(ctx, mod)
		require.NoError(t, err)
		assert.Len(t, queue, 3)
		for _, p := range queue {
			assert.Equal(t, "alice", p.Username)
		}
	})

	t.Run("Approve", func(t *testing.T) {
		require.NoError(t, svc.Approve(ctx, mod, extra.ID))
		_, err := svc.Get(ctx, bob, extra.ID)
		assert.NoError(t, err)

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, "photo_approved", sent[0].n.Type)
		assert.Equal(t, alice.ID, sent[0].userID)

		require.NoError(t, svc.Approve(ctx, mod, extra.ID))
		assert.Len(t, notifier.all(), 1)

		assert.ErrorIs(t, svc.Approve(ctx, mod, 9999), models.ErrNotFound)
	})

	t.Run("RejectMain", func(t *testing.T) {
		err := svc.Reject(ctx, mod, main.ID)
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	})

	t.Run("RejectHostFailureKeepsRecord", func(t *testing.T) {
		images.On("Delete", mock.Anything, "e").Return(imagestore.ErrDeleteRejected).Once()
		err := svc.Reject(ctx, mod, extra.ID)
		assert.ErrorIs(t, err, models.ErrExternalService)
		_, err = store.Photos.GetByID(ctx, extra.ID)
		assert.NoError(t, err)
	})

	t.Run("RejectWithoutHostedAsset", func(t *testing.T) {
		require.NoError(t, svc.Reject(ctx, mod, local.ID))
		_, err := store.Photos.GetByID(ctx, local.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("RejectMissing", func(t *testing.T) {
		assert.ErrorIs(t, svc.Reject(ctx, mod, 9999), models.ErrNotFound)
	})

	images.AssertExpectations(t)
}
