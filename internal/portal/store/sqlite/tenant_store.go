package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/woreda-portal/server/internal/db"
	"github.com/woreda-portal/server/internal/portal/store"
)

type TenantStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTenantStore(db *sql.DB, writer *dbpkg.Worker) *TenantStore {
	return &TenantStore{db: db, writer: writer}
}

func (s *TenantStore) IsKnownTenant(ctx context.Context, tenantID string) (bool, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return false, nil
	}

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT tenant_id FROM tenants WHERE tenant_id = ?;`, tenantID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsKnownTenant query: %w", err)
	}
	return true, nil
}

func (s *TenantStore) UpsertTenant(ctx context.Context, rec store.TenantRecord) error {
	name := rec.Name
	if name == "" {
		name = rec.TenantID
	}
	nowMs := toMs(time.Now())

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO tenants(tenant_id, name, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(tenant_id) DO UPDATE SET
  name = excluded.name,
  updated_at_ms = excluded.updated_at_ms;
`, rec.TenantID, name, nowMs, nowMs); err != nil {
			return fmt.Errorf("UpsertTenant %s: %w", rec.TenantID, err)
		}
		return nil
	})
}
