package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/woreda-portal/server/internal/portal/store"
)

const accessRequestColumns = `
  request_id, tenant_id, code, origin_address, status,
  granted_token, created_at, decided_at`

func scanAccessRequest(row pgx.Row) (store.AccessRequestRecord, error) {
	var (
		rec    store.AccessRequestRecord
		status string
		token  *string
	)
	if err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.Code, &rec.OriginAddress, &status,
		&token, &rec.CreatedAt, &rec.DecidedAt,
	); err != nil {
		return store.AccessRequestRecord{}, err
	}
	rec.Status = store.RequestStatus(status)
	if token != nil {
		rec.GrantedToken = *token
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.DecidedAt != nil {
		t := rec.DecidedAt.UTC()
		rec.DecidedAt = &t
	}
	return rec, nil
}

func (s *Store) CreateRequest(ctx context.Context, rec store.AccessRequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = store.RequestPending
	}
	if _, err := s.pool.Exec(ctx, `
INSERT INTO access_requests(`+accessRequestColumns+`
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.TenantID, rec.Code, rec.OriginAddress, string(rec.Status),
		nullText(rec.GrantedToken), rec.CreatedAt, rec.DecidedAt,
	); err != nil {
		return fmt.Errorf("CreateRequest insert: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, tenantID, id string) (store.AccessRequestRecord, error) {
	rec, err := scanAccessRequest(s.pool.QueryRow(ctx, `SELECT`+accessRequestColumns+`
FROM access_requests
WHERE request_id = $1 AND tenant_id = $2`, id, tenantID))
	if notFound(err) {
		return store.AccessRequestRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccessRequestRecord{}, fmt.Errorf("GetRequest query: %w", err)
	}
	return rec, nil
}

func (s *Store) ListRecentRequests(ctx context.Context, tenantID string, limit int) ([]store.AccessRequestRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+accessRequestColumns+`
FROM access_requests
WHERE tenant_id = $1
ORDER BY created_at DESC, seq DESC
LIMIT $2`, tenantID, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("ListRecentRequests query: %w", err)
	}
	defer rows.Close()

	var out []store.AccessRequestRecord
	for rows.Next() {
		rec, err := scanAccessRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRecentRequests scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecentRequests rows: %w", err)
	}
	return out, nil
}

func (s *Store) FindLatestRequestByCode(ctx context.Context, code string) (store.AccessRequestRecord, error) {
	rec, err := scanAccessRequest(s.pool.QueryRow(ctx, `SELECT`+accessRequestColumns+`
FROM access_requests
WHERE code = $1
ORDER BY created_at DESC, seq DESC
LIMIT 1`, code))
	if notFound(err) {
		return store.AccessRequestRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccessRequestRecord{}, fmt.Errorf("FindLatestRequestByCode query: %w", err)
	}
	return rec, nil
}

func (s *Store) DenyRequest(ctx context.Context, tenantID, id string, decidedAt time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE access_requests
SET status = 'denied', decided_at = $1
WHERE request_id = $2 AND tenant_id = $3 AND status = 'pending'`, decidedAt.UTC(), id, tenantID)
		if err != nil {
			return fmt.Errorf("DenyRequest update: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		return requestMissingOrDecided(ctx, tx, tenantID, id)
	})
}

func requestMissingOrDecided(ctx context.Context, q querier, tenantID, id string) error {
	var status string
	err := q.QueryRow(ctx,
		`SELECT status FROM access_requests WHERE request_id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&status)
	if notFound(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup request %s: %w", id, err)
	}
	return store.ErrConflict
}
