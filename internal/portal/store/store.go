// Package store defines the persistence contracts for the portal.  Every
// admin-facing method takes the tenant id explicitly and filters by it.
package store

import "errors"

var (
	// ErrNotFound means no row matched the lookup (including a row that
	// exists under a different tenant).
	ErrNotFound = errors.New("store: not found")

	// ErrConflict means a conditional update matched zero rows because the
	// row had already left the expected state.
	ErrConflict = errors.New("store: conflict")
)

// Limits applied by ListRecent* implementations when the caller passes a
// non-positive or oversized limit.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// ClampLimit applies DefaultListLimit and MaxListLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
