package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/woreda-portal/server/internal/portal/store"
)

// IssueGrant inserts the grant, then approves the request with a
// conditional UPDATE, in one transaction.  Concurrent approvals block on the
// request row; the losers see status <> 'pending', match zero rows and roll
// back their grant.
func (s *Store) IssueGrant(ctx context.Context, g store.AccessGrantRecord) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM access_requests WHERE request_id = $1 AND tenant_id = $2)`,
			g.RequestID, g.TenantID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("IssueGrant lookup request: %w", err)
		}
		if !exists {
			return store.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO access_grants(grant_id, request_id, tenant_id, token, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			g.ID, g.RequestID, g.TenantID, g.Token, g.IssuedAt.UTC(), g.ExpiresAt.UTC(),
		); err != nil {
			return fmt.Errorf("IssueGrant insert: %w", err)
		}

		tag, err := tx.Exec(ctx, `
UPDATE access_requests
SET status = 'approved', granted_token = $1, decided_at = $2
WHERE request_id = $3 AND tenant_id = $4 AND status = 'pending'`,
			g.Token, g.IssuedAt.UTC(), g.RequestID, g.TenantID,
		)
		if err != nil {
			return fmt.Errorf("IssueGrant approve: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrConflict
		}
		return nil
	})
}

func (s *Store) FindGrantByToken(ctx context.Context, token string) (store.AccessGrantRecord, error) {
	var g store.AccessGrantRecord
	err := s.pool.QueryRow(ctx, `
SELECT grant_id, request_id, tenant_id, token, issued_at, expires_at
FROM access_grants
WHERE token = $1`, token).Scan(&g.ID, &g.RequestID, &g.TenantID, &g.Token, &g.IssuedAt, &g.ExpiresAt)
	if notFound(err) {
		return store.AccessGrantRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccessGrantRecord{}, fmt.Errorf("FindGrantByToken query: %w", err)
	}
	g.IssuedAt = g.IssuedAt.UTC()
	g.ExpiresAt = g.ExpiresAt.UTC()
	return g, nil
}

func (s *Store) PruneExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM access_grants WHERE expires_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("PruneExpiredBefore delete: %w", err)
	}
	return tag.RowsAffected(), nil
}
