package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/portal/codes"
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/types"
)

// AccessDesk is the visitor-facing side of the access request lifecycle:
// submitting a request, polling it by code, and the admin queue listing.
type AccessDesk struct {
	requests store.AccessRequestStore
	grants   store.AccessGrantStore
	tenants  *TenantRegistry
	clock    Clock
}

func NewAccessDesk(
	requests store.AccessRequestStore,
	grants store.AccessGrantStore,
	tenants *TenantRegistry,
	clock Clock,
) *AccessDesk {
	return &AccessDesk{requests: requests, grants: grants, tenants: tenants, clock: clock}
}

// Submit records a pending request.  An error wrapping ErrStoreUnavailable
// means the request may not have been recorded and the visitor should retry.
func (d *AccessDesk) Submit(
	ctx context.Context,
	tenantID string,
	req types.SubmitAccessRequest,
	originAddress string,
) (types.AccessRequest, error) {
	tenantID = strings.TrimSpace(tenantID)

	if err := validateStruct(req); err != nil {
		return types.AccessRequest{}, err
	}
	if err := d.tenants.Require(ctx, tenantID); err != nil {
		return types.AccessRequest{}, err
	}

	code := codes.NormalizeAccessCode(req.Code)
	if code == "" {
		var err error
		if code, err = codes.NewAccessCode(); err != nil {
			return types.AccessRequest{}, fmt.Errorf("submit access request: %w", err)
		}
	}

	rec := store.AccessRequestRecord{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		Code:          code,
		OriginAddress: strings.TrimSpace(originAddress),
		Status:        store.RequestPending,
		CreatedAt:     d.clock.now(),
	}
	if err := d.requests.CreateRequest(ctx, rec); err != nil {
		return types.AccessRequest{}, storeFailure(ctx, "access_request.create", tenantID, rec.ID, err)
	}

	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("request_id", rec.ID).
		Msg("access request submitted")

	return accessRequestFromRecord(rec), nil
}

// ListRecent returns the tenant's newest requests first.
func (d *AccessDesk) ListRecent(ctx context.Context, tenantID string, limit int) ([]types.AccessRequest, error) {
	recs, err := d.requests.ListRecentRequests(ctx, tenantID, limit)
	if err != nil {
		return nil, storeFailure(ctx, "access_request.list", tenantID, "", err)
	}
	out := make([]types.AccessRequest, 0, len(recs))
	for _, r := range recs {
		out = append(out, accessRequestFromRecord(r))
	}
	return out, nil
}

// FindByCode reports the newest request carrying code, across tenants.
// Holding the code is the visitor's only credential, so the response
// includes the grant token once the request is approved.
func (d *AccessDesk) FindByCode(ctx context.Context, code string) (types.AccessRequestStatus, error) {
	code = codes.NormalizeAccessCode(code)
	if !codes.ValidAccessCode(code) {
		return types.AccessRequestStatus{}, invalid("code", "malformed access code", ErrInvalidCode)
	}

	rec, err := d.requests.FindLatestRequestByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return types.AccessRequestStatus{}, ErrNotFound
	}
	if err != nil {
		return types.AccessRequestStatus{}, storeFailure(ctx, "access_request.find_by_code", "", code, err)
	}

	st := types.AccessRequestStatus{Code: rec.Code, Status: string(rec.Status)}
	if rec.Status != store.RequestApproved || rec.GrantedToken == "" {
		return st, nil
	}

	g, err := d.grants.FindGrantByToken(ctx, rec.GrantedToken)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Grant pruned; the request stays approved but is no longer usable.
		return st, nil
	case err != nil:
		return types.AccessRequestStatus{}, storeFailure(ctx, "access_grant.find", rec.TenantID, rec.ID, err)
	}

	exp := g.ExpiresAt
	st.Token = g.Token
	st.ExpiresAt = &exp
	st.Live = g.LiveAt(d.clock.now())
	return st, nil
}
