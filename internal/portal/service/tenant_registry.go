package service

import (
	"context"
	"strings"

	"github.com/woreda-portal/server/internal/portal/store"
)

// TenantRegistry answers which tenants accept public submissions.
type TenantRegistry struct {
	store store.TenantStore
}

func NewTenantRegistry(st store.TenantStore) *TenantRegistry {
	return &TenantRegistry{store: st}
}

func (r *TenantRegistry) IsKnown(ctx context.Context, tenantID string) (bool, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return false, nil
	}
	return r.store.IsKnownTenant(ctx, tenantID)
}

// Require returns a *ValidationError for a blank or unknown tenant and
// ErrStoreUnavailable if the lookup itself fails.
func (r *TenantRegistry) Require(ctx context.Context, tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return invalid("tenant_id", "is required", ErrUnknownTenant)
	}
	known, err := r.IsKnown(ctx, tenantID)
	if err != nil {
		return storeFailure(ctx, "tenant.lookup", tenantID, tenantID, err)
	}
	if !known {
		return invalid("tenant_id", "unknown tenant "+tenantID, ErrUnknownTenant)
	}
	return nil
}

// Register upserts each non-blank id, using the id as display name.
func (r *TenantRegistry) Register(ctx context.Context, tenantIDs []string) error {
	for _, id := range tenantIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := r.store.UpsertTenant(ctx, store.TenantRecord{TenantID: id, Name: id}); err != nil {
			return storeFailure(ctx, "tenant.register", id, id, err)
		}
	}
	return nil
}
