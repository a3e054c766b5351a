// Package identity verifies ID tokens issued by external identity providers.
package identity

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity holds the claims of a verified Google ID token
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	Audience      string
}

// GoogleVerifier checks Google ID tokens against Google's published keys
type GoogleVerifier struct {
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleVerifier creates a verifier backed by idtoken.Validate
func NewGoogleVerifier() *GoogleVerifier {
	return &GoogleVerifier{validate: idtoken.Validate}
}

// Verify validates the signature and expiry of token and returns its claims.
// The audience is returned to the caller to compare against its client id.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	payload, err := v.validate(ctx, token, "")
	if err != nil {
		return nil, fmt.Errorf("failed to validate google token: %w", err)
	}
	return &GoogleIdentity{
		Subject:       payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		GivenName:     claimString(payload.Claims, "given_name"),
		Audience:      payload.Audience,
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// email_verified arrives as a bool, older tokens carry the string "true"
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
