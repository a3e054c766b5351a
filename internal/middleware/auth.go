package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"dating-api/internal/models"

	"github.com/rs/zerolog/log"
)

type contextKey string

const callerKey contextKey = "caller"

// TokenParser turns a bearer token into the caller it identifies
type TokenParser interface {
	Parse(token string) (models.Caller, error)
}

// ActivityTracker records that a user made a request
type ActivityTracker interface {
	TouchLastActive(ctx context.Context, userID int64) error
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			caller, err := tokens.Parse(parts[1])
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// LastActive stamps the authenticated caller's activity once the request has been served
func LastActive(tracker ActivityTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			caller, ok := CallerFrom(r.Context())
			if !ok {
				return
			}
			if err := tracker.TouchLastActive(context.WithoutCancel(r.Context()), caller.ID); err != nil {
				log.Warn().Err(err).Int64("user_id", caller.ID).Msg("Failed to update last active")
			}
		})
	}
}

// WithCaller returns a context carrying the caller
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom extracts the authenticated caller from context
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(models.Caller)
	return caller, ok
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ValidateWebSocketToken validates JWT token from WebSocket query parameter
func ValidateWebSocketToken(token string, tokens TokenParser) (models.Caller, error) {
	if token == "" {
		return models.Caller{}, models.NewError(models.ErrUnauthorized, "token required")
	}
	return tokens.Parse(token)
}
