package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"dating-api/internal/models"
	"dating-api/internal/repository"

	"github.com/rs/zerolog/log"
)

// UserWithRoles is a row of the role administration listing
type UserWithRoles struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// AdminService handles role administration
type AdminService struct {
	users repository.UserRepository
}

// NewAdminService creates a new admin service
func NewAdminService(users repository.UserRepository) *AdminService {
	return &AdminService{users: users}
}

// UsersWithRoles lists every user and their roles, ordered by username
func (s *AdminService) UsersWithRoles(ctx context.Context, caller models.Caller) ([]UserWithRoles, error) {
	if err := requireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.ListWithRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserWithRoles, 0, len(users))
	for _, u := range users {
		out = append(out, UserWithRoles{ID: u.ID, Username: u.Username, Roles: u.Roles})
	}
	return out, nil
}

// EditRoles replaces the roles of the named user and returns the new set
func (s *AdminService) EditRoles(ctx context.Context, caller models.Caller, username string, roles []string) ([]string, error) {
	if err := requireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	set := map[string]struct{}{}
	for _, r := range roles {
		if !models.IsKnownRole(r) {
			return nil, models.NewError(models.ErrValidation, "unknown role %q", r)
		}
		set[r] = struct{}{}
	}
	selected := make([]string, 0, len(set))
	for r := range set {
		selected = append(selected, r)
	}
	sort.Strings(selected)

	user, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewError(models.ErrNotFound, "user not found")
		}
		return nil, err
	}
	if err := s.users.SetRoles(ctx, user.ID, selected); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Strs("roles", selected).Int64("admin_id", caller.ID).Msg("Roles updated")
	return selected, nil
}
