package memory

import (
	"context"

	"github.com/woreda-portal/server/internal/portal/store"
)

func (s *Store) IsKnownTenant(_ context.Context, tenantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tenants[tenantID]
	return ok, nil
}

func (s *Store) UpsertTenant(_ context.Context, rec store.TenantRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[rec.TenantID] = rec
	return nil
}
