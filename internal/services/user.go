package services

import (
	"context"
	"time"

	"dating-api/internal/models"
	"dating-api/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	defaultMinAge = 18
	defaultMaxAge = 99
)

// UserFilter holds the optional search parameters for listing users
type UserFilter struct {
	Gender    string
	MinAge    int
	MaxAge    int
	Interests string
	OrderBy   string
	Likers    bool
	Likees    bool
	models.PageParams
}

// UpdateUserInput holds editable profile fields. Empty KnownAs and DateOfBirth
// keep the stored values; the free-text fields are always replaced.
type UpdateUserInput struct {
	KnownAs      string `json:"known_as" validate:"max=100"`
	DateOfBirth  string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Introduction string `json:"introduction" validate:"max=2000"`
	LookingFor   string `json:"looking_for" validate:"max=2000"`
	Interests    string `json:"interests" validate:"max=2000"`
	City         string `json:"city" validate:"max=100"`
	Country      string `json:"country" validate:"max=100"`
}

// UserService handles profile and search operations
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetUser returns a profile; owners also see their unapproved photos
func (s *UserService) GetUser(ctx context.Context, caller models.Caller, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id, caller.ID == id)
}

// Search lists other users, by default of the opposite gender aged 18 to 99
func (s *UserService) Search(ctx context.Context, caller models.Caller, f UserFilter) (models.Page[models.User], error) {
	gender := f.Gender
	if gender == "" {
		me, err := s.users.GetByID(ctx, caller.ID, false)
		if err != nil {
			return models.Page[models.User]{}, err
		}
		gender = "male"
		if me.Gender == "male" {
			gender = "female"
		}
	}

	minAge, maxAge := f.MinAge, f.MaxAge
	if minAge <= 0 {
		minAge = defaultMinAge
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	if minAge > maxAge {
		return models.Page[models.User]{}, models.NewError(models.ErrValidation, "minAge must not exceed maxAge")
	}

	orderBy := models.OrderByLastActive
	if f.OrderBy == models.OrderByCreated {
		orderBy = models.OrderByCreated
	}

	d := today()
	page := f.PageParams.Normalize()
	q := models.UserSearch{
		CallerID:   caller.ID,
		Gender:     gender,
		MinDOB:     d.AddDate(-maxAge-1, 0, 1),
		MaxDOB:     d.AddDate(-minAge, 0, 0),
		Interests:  f.Interests,
		OrderBy:    orderBy,
		Likers:     f.Likers,
		Likees:     f.Likees,
		PageParams: page,
	}

	users, total, err := s.users.Search(ctx, q)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, total, page), nil
}

// UpdateUser edits the caller's own profile
func (s *UserService) UpdateUser(ctx context.Context, caller models.Caller, id int64, in UpdateUserInput) (*models.User, error) {
	if err := actAs(caller, id); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if in.DateOfBirth != "" {
		dob, err := parseDate(in.DateOfBirth)
		if err != nil {
			return nil, err
		}
		user.DateOfBirth = dob
	}
	if err := checkAdult(user.DateOfBirth); err != nil {
		return nil, err
	}
	if in.KnownAs != "" {
		user.KnownAs = in.KnownAs
	}
	user.Introduction = in.Introduction
	user.LookingFor = in.LookingFor
	user.Interests = in.Interests
	user.City = in.City
	user.Country = in.Country

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// TouchLastActive stamps the user's last activity time
func (s *UserService) TouchLastActive(ctx context.Context, userID int64) error {
	return s.users.TouchLastActive(ctx, userID, time.Now().UTC())
}

// RegisterPush stores where offline notifications for the user are sent.
// nil keeps the stored value, an empty string removes it.
func (s *UserService) RegisterPush(ctx context.Context, caller models.Caller, userID int64, apnsToken, webPushSubscription *string) error {
	if err := actAs(caller, userID); err != nil {
		return err
	}
	if err := s.users.UpdatePushTargets(ctx, userID, apnsToken, webPushSubscription); err != nil {
		return err
	}
	log.Debug().Int64("user_id", userID).Msg("Push targets updated")
	return nil
}
