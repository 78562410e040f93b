package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DevAccessCode is the code of the sample pending request SeedDev creates.
const DevAccessCode = "DEVC2345"

type SeedDevOptions struct {
	// Tenants are upserted by id; the id doubles as display name.
	Tenants []string
}

// SeedTenants upserts one tenants row per id.  Blank ids are skipped.
func SeedTenants(ctx context.Context, db *sql.DB, tenants []string) error {
	now := time.Now().UTC().UnixMilli()

	for _, tid := range tenants {
		tid = strings.TrimSpace(tid)
		if tid == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO tenants(tenant_id, name, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(tenant_id) DO UPDATE SET
  updated_at_ms = excluded.updated_at_ms;
`, tid, tid, now, now); err != nil {
			return fmt.Errorf("seed tenant %s: %w", tid, err)
		}
	}
	return nil
}

// SeedDev seeds tenants plus one pending access request per tenant so the
// admin queue is not empty on a fresh dev database.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	if err := SeedTenants(ctx, db, opt.Tenants); err != nil {
		return err
	}

	now := time.Now().UTC().UnixMilli()
	for _, tid := range opt.Tenants {
		tid = strings.TrimSpace(tid)
		if tid == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO access_requests(
  request_id, tenant_id, code, origin_address, status, created_at_ms
) VALUES (?, ?, ?, '127.0.0.1', 'pending', ?);
`, "dev-"+tid, tid, DevAccessCode, now); err != nil {
			return fmt.Errorf("seed dev access request for %s: %w", tid, err)
		}
	}

	return nil
}
