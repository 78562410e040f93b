package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/woreda-portal/server/internal/portal/store"
)

func (s *Store) IsKnownTenant(ctx context.Context, tenantID string) (bool, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return false, nil
	}
	var known bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE tenant_id = $1)`, tenantID,
	).Scan(&known)
	if err != nil {
		return false, fmt.Errorf("IsKnownTenant query: %w", err)
	}
	return known, nil
}

func (s *Store) UpsertTenant(ctx context.Context, rec store.TenantRecord) error {
	name := rec.Name
	if name == "" {
		name = rec.TenantID
	}
	if _, err := s.pool.Exec(ctx, `
INSERT INTO tenants(tenant_id, name)
VALUES ($1, $2)
ON CONFLICT (tenant_id) DO UPDATE SET
  name = EXCLUDED.name,
  updated_at = now()`, rec.TenantID, name); err != nil {
		return fmt.Errorf("UpsertTenant %s: %w", rec.TenantID, err)
	}
	return nil
}
