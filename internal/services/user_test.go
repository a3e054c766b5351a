package services_test

import (
	"context"
	"testing"
	"time"

	"dating-api/internal/models"
	"dating-api/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usernames(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func TestSearchDefaults(t *testing.T) {
	store := newStore(t)
	svc := services.NewUserService(store.Users)
	ctx := context.Background()

	alice := addUser(t, store, "alice", "female", 25)
	addUser(t, store, "bob", "male", 27)
	addUser(t, store, "carl", "male", 45)
	addUser(t, store, "dina", "female", 30)

	t.Run("OppositeGender", func(t *testing.T) {
		page, err := svc.Search(ctx, alice, services.UserFilter{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"bob", "carl"}, usernames(page.Items))
		assert.Equal(t, 2, page.TotalCount)
		assert.Equal(t, 1, page.CurrentPage)
		assert.Equal(t, models.DefaultPageSize, page.PageSize)
	})

	t.Run("AgeRange", func(t *testing.T) {
		page, err := svc.Search(ctx, alice, services.UserFilter{MinAge: 40, MaxAge: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{"carl"}, usernames(page.Items))
	})

	t.Run("ExplicitGenderExcludesCaller", func(t *testing.T) {
		page, err := svc.Search(ctx, alice, services.UserFilter{Gender: "female"})
		require.NoError(t, err)
		assert.Equal(t, []string{"dina"}, usernames(page.Items))
	})

	t.Run("InvertedRange", func(t *testing.T) {
		_, err := svc.Search(ctx, alice, services.UserFilter{MinAge: 50, MaxAge: 20})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("Paging", func(t *testing.T) {
		page, err := svc.Search(ctx, alice, services.UserFilter{PageParams: models.PageParams{PageNumber: 2, PageSize: 1}})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 2, page.CurrentPage)
	})
}

func TestSearchLikes(t *testing.T) {
	store := newStore(t)
	users := services.NewUserService(store.Users)
	likes := services.NewLikeService(store.Likes, store.Users, nil)
	ctx := context.Background()

	alice := addUser(t, store, "alice", "female", 25)
	bob := addUser(t, store, "bob", "male", 27)
	carl := addUser(t, store, "carl", "male", 33)

	_, err := likes.Like(ctx, alice, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = likes.Like(ctx, carl, carl.ID, alice.ID)
	require.NoError(t, err)

	page, err := users.Search(ctx, alice, services.UserFilter{Likees: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, usernames(page.Items))

	page, err = users.Search(ctx, alice, services.UserFilter{Likers: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"carl"}, usernames(page.Items))
}

func TestUpdateUser(t *testing.T) {
	store := newStore(t)
	svc := services.NewUserService(store.Users)
	ctx := context.Background()
	alice := addUser(t, store, "alice", "female", 25)

	updated, err := svc.UpdateUser(ctx, alice, alice.ID, services.UpdateUserInput{
		Introduction: "hello",
		Interests:    "climbing",
		City:         "Lisbon",
		Country:      "Portugal",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.KnownAs)

	got, err := svc.GetUser(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "climbing", got.Interests)
	assert.Equal(t, "Lisbon", got.City)

	t.Run("Underage", func(t *testing.T) {
		dob := birthDate(16).Format("2006-01-02")
		_, err := svc.UpdateUser(ctx, alice, alice.ID, services.UpdateUserInput{DateOfBirth: dob})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("BadDate", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, alice, alice.ID, services.UpdateUserInput{DateOfBirth: "31/12/1990"})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("SomeoneElse", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, models.Caller{ID: alice.ID + 1}, alice.ID, services.UpdateUserInput{})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestRegisterPush(t *testing.T) {
	store := newStore(t)
	svc := services.NewUserService(store.Users)
	ctx := context.Background()
	alice := addUser(t, store, "alice", "female", 25)

	token := "device-token"
	require.NoError(t, svc.RegisterPush(ctx, alice, alice.ID, &token, nil))
	u, err := store.Users.GetByID(ctx, alice.ID, false)
	require.NoError(t, err)
	require.NotNil(t, u.PushToken)
	assert.Equal(t, token, *u.PushToken)
	assert.Nil(t, u.WebPushSubscription)

	empty := ""
	require.NoError(t, svc.RegisterPush(ctx, alice, alice.ID, &empty, nil))
	u, err = store.Users.GetByID(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Nil(t, u.PushToken)
}

func TestTouchLastActive(t *testing.T) {
	store := newStore(t)
	svc := services.NewUserService(store.Users)
	ctx := context.Background()
	alice := addUser(t, store, "alice", "female", 25)

	before, err := store.Users.GetByID(ctx, alice.ID, false)
	require.NoError(t, err)
	require.NoError(t, svc.TouchLastActive(ctx, alice.ID))
	after, err := store.Users.GetByID(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.False(t, after.LastActive.Before(before.LastActive))

	assert.ErrorIs(t, svc.TouchLastActive(ctx, 9999), models.ErrNotFound)
}

func TestSearchAgeBoundaries(t *testing.T) {
	store := newStore(t)
	svc := services.NewUserService(store.Users)
	ctx := context.Background()
	alice := addUser(t, store, "alice", "female", 30)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for name, years := range map[string]int{"turns25today": 25, "turns26today": 26, "turns18today": 18} {
		u := &models.User{Username: name, Gender: "male", DateOfBirth: today.AddDate(-years, 0, 0)}
		require.NoError(t, store.Users.Create(ctx, u, []string{models.RoleMember}))
	}

	page, err := svc.Search(ctx, alice, services.UserFilter{MinAge: 18, MaxAge: 25})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"turns18today", "turns25today"}, usernames(page.Items))

	page, err = svc.Search(ctx, alice, services.UserFilter{MinAge: 26, MaxAge: 26})
	require.NoError(t, err)
	assert.Equal(t, []string{"turns26today"}, usernames(page.Items))
}
