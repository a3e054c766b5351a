package services

import (
	"fmt"
	"strconv"
	"time"

	"dating-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued to logged-in users
type Claims struct {
	UserID   int64    `json:"uid"`
	Username string   `json:"unique_name"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 access tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Generate issues a token for the user
func (s *TokenService) Generate(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Parse validates a token and returns the caller it identifies
func (s *TokenService) Parse(tokenString string) (models.Caller, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Caller{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	if claims.UserID == 0 {
		return models.Caller{}, fmt.Errorf("%w: token has no user id", models.ErrUnauthorized)
	}
	return models.Caller{ID: claims.UserID, Username: claims.Username, Roles: claims.Roles}, nil
}
