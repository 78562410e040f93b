package store

import (
	"context"
	"time"
)

// AccessGrantRecord is immutable once written.
type AccessGrantRecord struct {
	ID        string
	RequestID string
	TenantID  string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LiveAt reports whether the grant is usable at t (t < ExpiresAt).
func (g AccessGrantRecord) LiveAt(t time.Time) bool {
	return t.Before(g.ExpiresAt)
}

type AccessGrantStore interface {
	// IssueGrant writes the grant and then marks its request approved with
	// a conditional update on status='pending'.  ErrNotFound when the
	// request does not exist in grant.TenantID, ErrConflict when it was
	// already decided.  On ErrConflict no grant is left behind.
	IssueGrant(ctx context.Context, grant AccessGrantRecord) error

	FindGrantByToken(ctx context.Context, token string) (AccessGrantRecord, error)

	// PruneExpiredBefore deletes grants with ExpiresAt < cutoff.
	PruneExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
