package store

import (
	"context"
	"time"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

// AccessRequestRecord is a visitor's plea for temporary access.  Records are
// never deleted; only Status, GrantedToken and DecidedAt change, once.
type AccessRequestRecord struct {
	ID            string
	TenantID      string
	Code          string
	OriginAddress string
	Status        RequestStatus
	GrantedToken  string // set on approval
	CreatedAt     time.Time
	DecidedAt     *time.Time
}

type AccessRequestStore interface {
	CreateRequest(ctx context.Context, rec AccessRequestRecord) error
	GetRequest(ctx context.Context, tenantID, id string) (AccessRequestRecord, error)

	// ListRecentRequests returns newest first.
	ListRecentRequests(ctx context.Context, tenantID string, limit int) ([]AccessRequestRecord, error)

	// FindLatestRequestByCode is NOT tenant scoped.  The code is the only
	// credential an anonymous visitor holds, so possession of the code is
	// the authorization for reading that request's status (and its token
	// once approved).  Callers must not expose this to admin listings.
	FindLatestRequestByCode(ctx context.Context, code string) (AccessRequestRecord, error)

	// DenyRequest moves a pending request to denied.  ErrNotFound when no
	// such request exists in the tenant, ErrConflict when it is no longer
	// pending.
	DenyRequest(ctx context.Context, tenantID, id string, decidedAt time.Time) error
}
