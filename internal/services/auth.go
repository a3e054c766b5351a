package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dating-api/internal/models"
	"dating-api/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the data required to create an account
type RegisterInput struct {
	Username    string `json:"username" validate:"required,max=256"`
	Password    string `json:"password" validate:"required,min=4,max=8"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
	KnownAs     string `json:"known_as" validate:"required,max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	City        string `json:"city" validate:"required,max=100"`
	Country     string `json:"country" validate:"required,max=100"`
}

// LoginInput holds username and password credentials
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by every successful login
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService handles registration and login
type AuthService struct {
	users          repository.UserRepository
	tokens         *TokenService
	verifier       IdentityVerifier
	googleClientID string
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, tokens *TokenService, verifier IdentityVerifier, googleClientID string) *AuthService {
	return &AuthService{
		users:          users,
		tokens:         tokens,
		verifier:       verifier,
		googleClientID: googleClientID,
	}
}

// Register creates a member account with a hashed password
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if err := checkAdult(dob); err != nil {
		return nil, err
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, models.NewError(models.ErrAlreadyExists, "username already exists")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	now := time.Now().UTC()
	user := &models.User{
		Username:     username,
		PasswordHash: &hashStr,
		Gender:       in.Gender,
		DateOfBirth:  dob,
		KnownAs:      in.KnownAs,
		City:         in.City,
		Country:      in.Country,
		Created:      now,
		LastActive:   now,
	}
	if err := s.users.Create(ctx, user, []string{models.RoleMember}); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return nil, models.NewError(models.ErrAlreadyExists, "username already exists")
		}
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Login checks the password and issues a token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	invalid := models.NewError(models.ErrUnauthorized, "invalid username or password")

	user, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(in.Username)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, invalid
	}
	return s.issue(ctx, user)
}

// LoginGoogle signs in with a Google ID token, creating the account on first use
func (s *AuthService) LoginGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if idToken == "" {
		return nil, models.NewError(models.ErrValidation, "token is required")
	}
	if s.verifier == nil || s.googleClientID == "" {
		return nil, models.NewError(models.ErrInvalidOperation, "google sign-in is not configured")
	}

	ident, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		log.Warn().Err(err).Msg("Google token rejected")
		return nil, models.NewError(models.ErrUnauthorized, "invalid google token")
	}
	if ident.Audience != s.googleClientID {
		return nil, models.NewError(models.ErrUnauthorized, "google token was issued for another client")
	}
	if ident.Email == "" || !ident.EmailVerified {
		return nil, models.NewError(models.ErrUnauthorized, "google account email is not verified")
	}

	username := strings.ToLower(ident.Email)
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		user, err = s.createFederated(ctx, username, ident.GivenName)
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *AuthService) createFederated(ctx context.Context, username, givenName string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		Username:   username,
		KnownAs:    givenName,
		Created:    now,
		LastActive: now,
	}
	err := s.users.Create(ctx, user, []string{models.RoleMember})
	if errors.Is(err, models.ErrAlreadyExists) {
		// created concurrently by another login
		return s.users.GetByUsername(ctx, username)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", user.ID).Msg("User created from google sign-in")
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	if full, err := s.users.GetByID(ctx, user.ID, true); err == nil {
		user = full
	}
	return &AuthResult{Token: token, User: user}, nil
}
