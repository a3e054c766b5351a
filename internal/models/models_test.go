package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeAt(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"birthday today", time.Date(2006, 6, 15, 0, 0, 0, 0, time.UTC), 18},
		{"birthday tomorrow", time.Date(2006, 6, 16, 0, 0, 0, 0, time.UTC), 17},
		{"birthday passed", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), 34},
		{"zero", time.Time{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.dob, now))
		})
	}
}

func TestPageParamsNormalize(t *testing.T) {
	assert.Equal(t, PageParams{PageNumber: 1, PageSize: DefaultPageSize}, PageParams{}.Normalize())
	assert.Equal(t, PageParams{PageNumber: 3, PageSize: MaxPageSize}, PageParams{PageNumber: 3, PageSize: 500}.Normalize())
	assert.Equal(t, 20, PageParams{PageNumber: 3, PageSize: 10}.Offset())
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, 21, PageParams{PageNumber: 2, PageSize: 10})
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)

	empty := NewPage[int](nil, 0, PageParams{PageNumber: 1, PageSize: 10})
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.TotalPages)
}

func TestParseContainer(t *testing.T) {
	assert.Equal(t, ContainerInbox, ParseContainer("inbox"))
	assert.Equal(t, ContainerOutbox, ParseContainer("Outbox"))
	assert.Equal(t, ContainerUnread, ParseContainer(""))
	assert.Equal(t, ContainerUnread, ParseContainer("bogus"))
}

func TestMessageParties(t *testing.T) {
	m := Message{SenderID: 1, RecipientID: 2, RecipientDeleted: true}
	assert.True(t, m.IsParty(1))
	assert.False(t, m.IsParty(3))
	assert.False(t, m.DeletedBy(1))
	assert.True(t, m.DeletedBy(2))
}

func TestCallerHasRole(t *testing.T) {
	c := Caller{ID: 1, Roles: []string{RoleMember, RoleModerator}}
	assert.True(t, c.HasRole(RoleAdmin, RoleModerator))
	assert.False(t, c.HasRole(RoleAdmin))
}

func TestAlreadyExistsIsInvalidOperation(t *testing.T) {
	assert.True(t, errors.Is(ErrAlreadyExists, ErrInvalidOperation))
	assert.False(t, errors.Is(ErrInvalidOperation, ErrAlreadyExists))
}

func TestNewError(t *testing.T) {
	err := NewError(ErrAlreadyExists, "you already liked %s", "bob")
	assert.Equal(t, "you already liked bob", err.Error())
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.NotErrorIs(t, err, ErrNotFound)

	var e *Error
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &e))
	assert.Equal(t, "you already liked bob", e.Message)
}
