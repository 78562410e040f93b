package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/portal/calendar"
)

var (
	// ErrValidation is matched by every input rejection (*ValidationError).
	ErrValidation = errors.New("validation error")

	ErrNotFound       = errors.New("not found")
	ErrAlreadyDecided = errors.New("request has already been decided")

	// ErrInvalidGrant is the single outcome for unknown, malformed and
	// expired tokens.  Its text is shown to visitors unchanged.
	ErrInvalidGrant = errors.New("access token is invalid or expired")

	// ErrStoreUnavailable wraps storage failures.  The operation may or may
	// not have been applied; callers must not assume either.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Causes carried by a *ValidationError.
	ErrInvalidDate   = calendar.ErrInvalidDate
	ErrInvalidCode   = errors.New("invalid code")
	ErrUnknownTenant = errors.New("unknown tenant")
)

// ValidationError names the offending field.  It matches ErrValidation and,
// when set, Cause.
type ValidationError struct {
	Field string
	Msg   string
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

func invalid(field, msg string, cause error) error {
	return &ValidationError{Field: field, Msg: msg, Cause: cause}
}

func invalidDate(field string, err error) error {
	var de *calendar.DateError
	if errors.As(err, &de) {
		return invalid(field, fmt.Sprintf("%q is not a valid Ethiopian date (%s)", de.Input, de.Reason), err)
	}
	return invalid(field, err.Error(), err)
}

// storeFailure logs a storage error with enough context to find the row and
// returns it wrapped in ErrStoreUnavailable.  Nothing is retried.
func storeFailure(ctx context.Context, op, tenantID, entityID string, err error) error {
	log.Ctx(ctx).Error().
		Err(err).
		Str("op", op).
		Str("tenant_id", tenantID).
		Str("entity_id", entityID).
		Msg("store operation failed")
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
