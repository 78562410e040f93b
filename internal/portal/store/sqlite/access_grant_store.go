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

type AccessGrantStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessGrantStore(db *sql.DB, writer *dbpkg.Worker) *AccessGrantStore {
	return &AccessGrantStore{db: db, writer: writer}
}

// IssueGrant inserts the grant and then approves the request, in one
// transaction.  The UPDATE is conditional on status='pending'; if another
// approval or a denial got there first it matches nothing and the whole
// transaction, grant row included, is rolled back.
func (s *AccessGrantStore) IssueGrant(ctx context.Context, g store.AccessGrantRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `
SELECT 1 FROM access_requests WHERE request_id = ? AND tenant_id = ?;
`, g.RequestID, g.TenantID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("IssueGrant lookup request: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_grants(
  grant_id, request_id, tenant_id, token, issued_at_ms, expires_at_ms
) VALUES (?, ?, ?, ?, ?, ?);
`, g.ID, g.RequestID, g.TenantID, g.Token, toMs(g.IssuedAt), toMs(g.ExpiresAt)); err != nil {
			return fmt.Errorf("IssueGrant insert: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE access_requests
SET status = 'approved', granted_token = ?, decided_at_ms = ?
WHERE request_id = ? AND tenant_id = ? AND status = 'pending';
`, g.Token, toMs(g.IssuedAt), g.RequestID, g.TenantID)
		if err != nil {
			return fmt.Errorf("IssueGrant approve: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("IssueGrant rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrConflict
		}
		return nil
	})
}

func (s *AccessGrantStore) FindGrantByToken(ctx context.Context, token string) (store.AccessGrantRecord, error) {
	var (
		g         store.AccessGrantRecord
		issuedMs  int64
		expiresMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT grant_id, request_id, tenant_id, token, issued_at_ms, expires_at_ms
FROM access_grants
WHERE token = ?;
`, token).Scan(&g.ID, &g.RequestID, &g.TenantID, &g.Token, &issuedMs, &expiresMs)
	if errors.Is(err, sql.ErrNoRows) {
		return store.AccessGrantRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccessGrantRecord{}, fmt.Errorf("FindGrantByToken query: %w", err)
	}
	g.IssuedAt = fromMs(issuedMs)
	g.ExpiresAt = fromMs(expiresMs)
	return g, nil
}

func (s *AccessGrantStore) PruneExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM access_grants WHERE expires_at_ms < ?;
`, toMs(cutoff))
		if err != nil {
			return fmt.Errorf("PruneExpiredBefore delete: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}
