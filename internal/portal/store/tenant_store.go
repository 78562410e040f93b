package store

import "context"

type TenantRecord struct {
	TenantID string
	Name     string
}

type TenantStore interface {
	IsKnownTenant(ctx context.Context, tenantID string) (bool, error)
	UpsertTenant(ctx context.Context, rec TenantRecord) error
}
