package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/portal/codes"
	"github.com/woreda-portal/server/internal/portal/events"
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/types"
)

// GrantLifetime is fixed; there is no other token kind and no revocation.
const GrantLifetime = 2 * time.Hour

// GrantIssuer drives pending requests to approved or denied and validates
// the tokens approval produces.
type GrantIssuer struct {
	requests store.AccessRequestStore
	grants   store.AccessGrantStore
	events   events.Publisher
	clock    Clock
}

func NewGrantIssuer(
	requests store.AccessRequestStore,
	grants store.AccessGrantStore,
	pub events.Publisher,
	clock Clock,
) *GrantIssuer {
	if pub == nil {
		pub = events.Nop{}
	}
	return &GrantIssuer{requests: requests, grants: grants, events: pub, clock: clock}
}

// Approve issues a grant for a pending request in tenantID.  At most one
// concurrent Approve (or Deny) of the same request succeeds; the rest get
// ErrAlreadyDecided.
func (g *GrantIssuer) Approve(ctx context.Context, tenantID, requestID string) (types.AccessGrant, error) {
	if err := g.checkPending(ctx, "access_request.approve", tenantID, requestID); err != nil {
		return types.AccessGrant{}, err
	}

	token, err := codes.NewGrantToken()
	if err != nil {
		return types.AccessGrant{}, fmt.Errorf("approve %s: %w", requestID, err)
	}

	now := g.clock.now()
	grant := store.AccessGrantRecord{
		ID:        uuid.NewString(),
		RequestID: requestID,
		TenantID:  tenantID,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(GrantLifetime),
	}

	switch err := g.grants.IssueGrant(ctx, grant); {
	case errors.Is(err, store.ErrNotFound):
		return types.AccessGrant{}, ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return types.AccessGrant{}, ErrAlreadyDecided
	case err != nil:
		return types.AccessGrant{}, storeFailure(ctx, "access_request.approve", tenantID, requestID, err)
	}

	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("request_id", requestID).
		Str("grant_id", grant.ID).
		Time("expires_at", grant.ExpiresAt).
		Msg("access request approved")

	publish(ctx, g.events, events.Event{
		Type:       events.AccessApproved,
		TenantID:   tenantID,
		EntityID:   requestID,
		Status:     string(store.RequestApproved),
		ExpiresAt:  grant.ExpiresAt,
		OccurredAt: now,
	})

	return accessGrantFromRecord(grant), nil
}

// Deny moves a pending request to denied.
func (g *GrantIssuer) Deny(ctx context.Context, tenantID, requestID string) (types.AccessRequest, error) {
	if err := g.checkPending(ctx, "access_request.deny", tenantID, requestID); err != nil {
		return types.AccessRequest{}, err
	}

	now := g.clock.now()
	switch err := g.requests.DenyRequest(ctx, tenantID, requestID, now); {
	case errors.Is(err, store.ErrNotFound):
		return types.AccessRequest{}, ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return types.AccessRequest{}, ErrAlreadyDecided
	case err != nil:
		return types.AccessRequest{}, storeFailure(ctx, "access_request.deny", tenantID, requestID, err)
	}

	rec, err := g.requests.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return types.AccessRequest{}, storeFailure(ctx, "access_request.get", tenantID, requestID, err)
	}

	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("request_id", requestID).
		Msg("access request denied")

	publish(ctx, g.events, events.Event{
		Type:       events.AccessDenied,
		TenantID:   tenantID,
		EntityID:   requestID,
		Status:     string(store.RequestDenied),
		OccurredAt: now,
	})

	return accessRequestFromRecord(rec), nil
}

// Validate returns the grant for token if now < expires_at.  Unknown,
// malformed and expired tokens all produce ErrInvalidGrant.
func (g *GrantIssuer) Validate(ctx context.Context, token string) (types.AccessGrant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return types.AccessGrant{}, ErrInvalidGrant
	}

	rec, err := g.grants.FindGrantByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return types.AccessGrant{}, ErrInvalidGrant
	}
	if err != nil {
		return types.AccessGrant{}, storeFailure(ctx, "access_grant.validate", "", "", err)
	}

	if !rec.LiveAt(g.clock.now()) {
		return types.AccessGrant{}, ErrInvalidGrant
	}
	return accessGrantFromRecord(rec), nil
}

// checkPending rejects blank ids, missing requests and decided requests
// before any token is minted.  The store's conditional update remains the
// authority under concurrency.
func (g *GrantIssuer) checkPending(ctx context.Context, op, tenantID, requestID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return invalid("tenant_id", "is required", nil)
	}
	if strings.TrimSpace(requestID) == "" {
		return invalid("request_id", "is required", nil)
	}

	rec, err := g.requests.GetRequest(ctx, tenantID, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storeFailure(ctx, op, tenantID, requestID, err)
	}
	if rec.Status != store.RequestPending {
		return ErrAlreadyDecided
	}
	return nil
}
