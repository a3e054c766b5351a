// Package services implements the dating operations. Every operation takes
// the authenticated caller explicitly and checks it before touching storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dating-api/internal/identity"
	"dating-api/internal/models"
	"dating-api/internal/push"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Notifier delivers best-effort notifications to a user
type Notifier interface {
	Notify(ctx context.Context, userID int64, n push.Notification)
}

// IdentityVerifier validates federated login tokens
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*identity.GoogleIdentity, error)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, int64, push.Notification) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// actAs ensures the caller is acting on their own account
func actAs(caller models.Caller, userID int64) error {
	if caller.ID != userID {
		log.Warn().Int64("caller_id", caller.ID).Int64("user_id", userID).Msg("Caller acting on another account")
		return models.NewError(models.ErrUnauthorized, "unauthorized")
	}
	return nil
}

func requireRole(caller models.Caller, roles ...string) error {
	if !caller.HasRole(roles...) {
		return models.NewError(models.ErrUnauthorized, "requires role %s", strings.Join(roles, " or "))
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tag validation and reports the first failing field
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return models.NewError(models.ErrValidation, "%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return models.NewError(models.ErrValidation, "%s is %s", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("failed to validate input: %w", err)
}

const (
	dateLayout = "2006-01-02"
	minimumAge = 18
)

// parseDate reads a calendar date as midnight UTC
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, models.NewError(models.ErrValidation, "invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func checkAdult(dob time.Time) error {
	if models.AgeAt(dob, time.Now().UTC()) < minimumAge {
		return models.NewError(models.ErrValidation, "you must be at least %d years old", minimumAge)
	}
	return nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
