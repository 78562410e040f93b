package memory

import (
	"context"
	"time"

	"github.com/woreda-portal/server/internal/portal/store"
)

func (s *Store) IssueGrant(_ context.Context, g store.AccessGrantRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.requestIndex(g.TenantID, g.RequestID)
	if i < 0 {
		return store.ErrNotFound
	}

	// Grant first, then the conditional status change; undo on conflict.
	s.grants[g.Token] = g
	if s.requests[i].Status != store.RequestPending {
		delete(s.grants, g.Token)
		return store.ErrConflict
	}

	issued := g.IssuedAt
	s.requests[i].Status = store.RequestApproved
	s.requests[i].GrantedToken = g.Token
	s.requests[i].DecidedAt = &issued
	return nil
}

func (s *Store) FindGrantByToken(_ context.Context, token string) (store.AccessGrantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[token]
	if !ok {
		return store.AccessGrantRecord{}, store.ErrNotFound
	}
	return g, nil
}

func (s *Store) PruneExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for tok, g := range s.grants {
		if g.ExpiresAt.Before(cutoff) {
			delete(s.grants, tok)
			n++
		}
	}
	return n, nil
}
