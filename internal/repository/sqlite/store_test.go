package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"dating-api/internal/models"
	"dating-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (repository.Store, *sql.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return NewStore(db), db
}

func dob(years int) time.Time {
	d := time.Now().UTC().AddDate(-years, 0, -1)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func createUser(t *testing.T, s repository.Store, username, gender string, age int) *models.User {
	t.Helper()
	u := &models.User{Username: username, Gender: gender, DateOfBirth: dob(age), KnownAs: strings.ToUpper(username)}
	require.NoError(t, s.Users.Create(context.Background(), u, []string{models.RoleMember}))
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	u := createUser(t, s, "alice", "female", 25)
	assert.NotZero(t, u.ID)

	got, err := s.Users.GetByID(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{models.RoleMember}, got.Roles)
	assert.Nil(t, got.PasswordHash)
	assert.True(t, got.DateOfBirth.Equal(u.DateOfBirth))

	byName, err := s.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = s.Users.GetByID(ctx, 999, false)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	s, _ := setupStore(t)
	createUser(t, s, "alice", "female", 25)

	err := s.Users.Create(context.Background(), &models.User{Username: "alice", DateOfBirth: dob(30)}, []string{models.RoleMember})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestUserRepository_SetRolesAndList(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	bob := createUser(t, s, "bob", "male", 30)
	createUser(t, s, "alice", "female", 25)

	require.NoError(t, s.Users.SetRoles(ctx, bob.ID, []string{models.RoleAdmin, models.RoleModerator}))

	users, err := s.Users.ListWithRoles(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, []string{models.RoleMember}, users[0].Roles)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleModerator}, users[1].Roles)
}

func TestUserRepository_Search(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	me := createUser(t, s, "me", "male", 30)
	young := createUser(t, s, "young", "female", 20)
	old := createUser(t, s, "old", "female", 60)
	createUser(t, s, "other", "male", 30)

	young.Interests = "Hiking and 100% coffee"
	require.NoError(t, s.Users.UpdateProfile(ctx, young))
	require.NoError(t, s.Likes.Create(ctx, &models.Like{LikerID: old.ID, LikeeID: me.ID}))

	base := models.UserSearch{
		CallerID:   me.ID,
		Gender:     "female",
		MinDOB:     dob(100),
		MaxDOB:     dob(18),
		OrderBy:    models.OrderByCreated,
		PageParams: models.PageParams{PageNumber: 1, PageSize: 10},
	}

	users, total, err := s.Users.Search(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, old.ID, users[0].ID, "newest created first")

	q := base
	q.Interests = "100% COFFEE"
	users, total, err = s.Users.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, young.ID, users[0].ID)

	q = base
	q.Likers = true
	users, _, err = s.Users.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, old.ID, users[0].ID)

	q = base
	q.MinDOB = dob(40)
	users, _, err = s.Users.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, young.ID, users[0].ID)

	q = base
	q.PageParams = models.PageParams{PageNumber: 2, PageSize: 1}
	users, total, err = s.Users.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, users, 1)
	assert.Equal(t, young.ID, users[0].ID)
}

func TestUserRepository_PushTargets(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "female", 25)

	token := "device-token"
	require.NoError(t, s.Users.UpdatePushTargets(ctx, u.ID, &token, nil))
	got, err := s.Users.GetByID(ctx, u.ID, false)
	require.NoError(t, err)
	require.NotNil(t, got.PushToken)
	assert.Equal(t, token, *got.PushToken)
	assert.Nil(t, got.WebPushSubscription)

	empty := ""
	require.NoError(t, s.Users.UpdatePushTargets(ctx, u.ID, &empty, nil))
	got, err = s.Users.GetByID(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got.PushToken)
}

func TestPhotoRepository_MainAndApproval(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "female", 25)

	first := &models.Photo{UserID: u.ID, URL: "http://img/1"}
	require.NoError(t, s.Photos.Create(ctx, first))
	assert.True(t, first.IsMain, "first photo becomes main")

	pid := "cloud-2"
	second := &models.Photo{UserID: u.ID, URL: "http://img/2", PublicID: &pid}
	require.NoError(t, s.Photos.Create(ctx, second))
	assert.False(t, second.IsMain)

	pending, err := s.Photos.ListUnapproved(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.Equal(t, "alice", pending[0].Username)

	require.NoError(t, s.Photos.Approve(ctx, first.ID))
	require.NoError(t, s.Photos.Approve(ctx, first.ID), "approve is idempotent")

	owner, err := s.Users.GetByID(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Len(t, owner.Photos, 1)
	assert.Equal(t, "http://img/1", owner.PhotoURL)

	owner, err = s.Users.GetByID(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Len(t, owner.Photos, 2)

	require.NoError(t, s.Photos.SetMain(ctx, u.ID, second.ID))
	got, err := s.Photos.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsMain)
	got, err = s.Photos.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMain)
	require.NotNil(t, got.PublicID)
	assert.Equal(t, pid, *got.PublicID)

	require.NoError(t, s.Photos.Delete(ctx, first.ID))
	_, err = s.Photos.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.Photos.Approve(ctx, first.ID), models.ErrNotFound)
}

func TestPhotoRepository_SetMainForeignPhotoRollsBack(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice", "female", 25)
	bob := createUser(t, s, "bob", "male", 25)

	mine := &models.Photo{UserID: alice.ID, URL: "a"}
	require.NoError(t, s.Photos.Create(ctx, mine))
	theirs := &models.Photo{UserID: bob.ID, URL: "b"}
	require.NoError(t, s.Photos.Create(ctx, theirs))

	err := s.Photos.SetMain(ctx, alice.ID, theirs.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := s.Photos.GetByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMain, "clearing the old main must be rolled back")
}

func TestLikeRepository(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	a := createUser(t, s, "a", "male", 25)
	b := createUser(t, s, "b", "female", 25)

	_, err := s.Likes.Get(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.Likes.Create(ctx, &models.Like{LikerID: a.ID, LikeeID: b.ID}))
	like, err := s.Likes.Get(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, like.LikeeID)

	err = s.Likes.Create(ctx, &models.Like{LikerID: a.ID, LikeeID: b.ID})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	err = s.Likes.Create(ctx, &models.Like{LikerID: a.ID, LikeeID: 999})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMessageRepository_Lifecycle(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	a := createUser(t, s, "a", "male", 25)
	b := createUser(t, s, "b", "female", 25)
	require.NoError(t, s.Photos.Create(ctx, &models.Photo{UserID: b.ID, URL: "http://b/main"}))

	base := time.Now().UTC().Add(-time.Hour)
	var ids []int64
	for i, pair := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}, {a.ID, b.ID}} {
		m := &models.Message{SenderID: pair[0], RecipientID: pair[1], Content: fmt.Sprintf("m%d", i), MessageSent: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Messages.Create(ctx, m))
		ids = append(ids, m.ID)
	}

	got, err := s.Messages.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "A", got.SenderKnownAs)
	assert.Equal(t, "http://b/main", got.RecipientPhotoURL)
	assert.Empty(t, got.SenderPhotoURL)
	assert.Nil(t, got.DateRead)

	thread, err := s.Messages.Thread(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "m0", thread[0].Content)
	assert.Equal(t, "m2", thread[2].Content)

	unread, total, err := s.Messages.List(ctx, b.ID, models.ContainerUnread, models.PageParams{PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "m2", unread[0].Content, "newest first")

	readAt := time.Now().UTC()
	require.NoError(t, s.Messages.MarkRead(ctx, ids[0], readAt))
	got, err = s.Messages.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.DateRead)
	assert.WithinDuration(t, readAt, *got.DateRead, time.Second)

	_, total, err = s.Messages.List(ctx, b.ID, models.ContainerUnread, models.PageParams{PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	_, total, err = s.Messages.List(ctx, b.ID, models.ContainerInbox, models.PageParams{PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	_, total, err = s.Messages.List(ctx, a.ID, models.ContainerOutbox, models.PageParams{PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	purged, err := s.Messages.DeleteForParty(ctx, ids[0], a.ID)
	require.NoError(t, err)
	assert.False(t, purged)

	thread, err = s.Messages.Thread(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 2, "sender no longer sees the deleted message")
	thread, err = s.Messages.Thread(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 3, "recipient still sees it")

	purged, err = s.Messages.DeleteForParty(ctx, ids[0], b.ID)
	require.NoError(t, err)
	assert.True(t, purged)
	_, err = s.Messages.GetByID(ctx, ids[0])
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.Messages.DeleteForParty(ctx, ids[1], 999)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = s.Messages.DeleteForParty(ctx, 12345, a.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
