package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/woreda-portal/server/internal/db"
	"github.com/woreda-portal/server/internal/portal/store"
)

type AccessRequestStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessRequestStore(db *sql.DB, writer *dbpkg.Worker) *AccessRequestStore {
	return &AccessRequestStore{db: db, writer: writer}
}

const accessRequestColumns = `
  request_id, tenant_id, code, origin_address, status,
  granted_token, created_at_ms, decided_at_ms`

func scanAccessRequest(row rowScanner) (store.AccessRequestRecord, error) {
	var (
		rec       store.AccessRequestRecord
		status    string
		token     sql.NullString
		createdMs int64
		decidedMs sql.NullInt64
	)
	if err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.Code, &rec.OriginAddress, &status,
		&token, &createdMs, &decidedMs,
	); err != nil {
		return store.AccessRequestRecord{}, err
	}
	rec.Status = store.RequestStatus(status)
	rec.GrantedToken = token.String
	rec.CreatedAt = fromMs(createdMs)
	rec.DecidedAt = timePtr(decidedMs)
	return rec, nil
}

func (s *AccessRequestStore) CreateRequest(ctx context.Context, rec store.AccessRequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = store.RequestPending
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_requests(
  request_id, tenant_id, code, origin_address, status,
  granted_token, created_at_ms, decided_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.TenantID, rec.Code, rec.OriginAddress, string(rec.Status),
			nullString(rec.GrantedToken), toMs(rec.CreatedAt), nullMs(rec.DecidedAt),
		); err != nil {
			return fmt.Errorf("CreateRequest insert: %w", err)
		}
		return nil
	})
}

func (s *AccessRequestStore) GetRequest(ctx context.Context, tenantID, id string) (store.AccessRequestRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+accessRequestColumns+`
FROM access_requests
WHERE request_id = ? AND tenant_id = ?;
`, id, tenantID)

	rec, err := scanAccessRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.AccessRequestRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccessRequestRecord{}, fmt.Errorf("GetRequest query: %w", err)
	}
	return rec, nil
}

func (s *AccessRequestStore) ListRecentRequests(
	ctx context.Context,
	tenantID string,
	limit int,
) ([]store.AccessRequestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+accessRequestColumns+`
FROM access_requests
WHERE tenant_id = ?
ORDER BY created_at_ms DESC, rowid DESC
LIMIT ?;
`, tenantID, store.ClampLimit(limit))
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

func (s *AccessRequestStore) FindLatestRequestByCode(ctx context.Context, code string) (store.AccessRequestRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+accessRequestColumns+`
FROM access_requests
WHERE code = ?
ORDER BY created_at_ms DESC, rowid DESC
LIMIT 1;
`, code)

	rec, err := scanAccessRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.AccessRequestRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccessRequestRecord{}, fmt.Errorf("FindLatestRequestByCode query: %w", err)
	}
	return rec, nil
}

func (s *AccessRequestStore) DenyRequest(ctx context.Context, tenantID, id string, decidedAt time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE access_requests
SET status = 'denied', decided_at_ms = ?
WHERE request_id = ? AND tenant_id = ? AND status = 'pending';
`, toMs(decidedAt), id, tenantID)
		if err != nil {
			return fmt.Errorf("DenyRequest update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("DenyRequest rows affected: %w", err)
		}
		if n == 1 {
			return nil
		}
		return requestMissingOrDecided(ctx, tx, tenantID, id)
	})
}

// requestMissingOrDecided explains a zero-row conditional update:
// ErrNotFound if the request is absent from the tenant, ErrConflict if it
// exists but is no longer pending.
func requestMissingOrDecided(ctx context.Context, tx *sql.Tx, tenantID, id string) error {
	var status string
	err := tx.QueryRowContext(ctx, `
SELECT status FROM access_requests WHERE request_id = ? AND tenant_id = ?;
`, id, tenantID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup request %s: %w", id, err)
	}
	return store.ErrConflict
}
