package memory

import (
	"context"
	"time"

	"github.com/woreda-portal/server/internal/portal/store"
)

func (s *Store) CreateRequest(_ context.Context, rec store.AccessRequestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, rec)
	return nil
}

func (s *Store) GetRequest(_ context.Context, tenantID, id string) (store.AccessRequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.requestIndex(tenantID, id)
	if i < 0 {
		return store.AccessRequestRecord{}, store.ErrNotFound
	}
	return s.requests[i], nil
}

func (s *Store) ListRecentRequests(_ context.Context, tenantID string, limit int) ([]store.AccessRequestRecord, error) {
	limit = store.ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.AccessRequestRecord, 0, limit)
	for i := len(s.requests) - 1; i >= 0 && len(out) < limit; i-- {
		if s.requests[i].TenantID == tenantID {
			out = append(out, s.requests[i])
		}
	}
	return out, nil
}

func (s *Store) FindLatestRequestByCode(_ context.Context, code string) (store.AccessRequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Code == code {
			return s.requests[i], nil
		}
	}
	return store.AccessRequestRecord{}, store.ErrNotFound
}

func (s *Store) DenyRequest(_ context.Context, tenantID, id string, decidedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.requestIndex(tenantID, id)
	if i < 0 {
		return store.ErrNotFound
	}
	if s.requests[i].Status != store.RequestPending {
		return store.ErrConflict
	}
	s.requests[i].Status = store.RequestDenied
	s.requests[i].DecidedAt = &decidedAt
	return nil
}

// requestIndex must be called with s.mu held.
func (s *Store) requestIndex(tenantID, id string) int {
	for i := range s.requests {
		if s.requests[i].ID == id && s.requests[i].TenantID == tenantID {
			return i
		}
	}
	return -1
}
