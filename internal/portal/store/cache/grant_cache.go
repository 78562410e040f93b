// Package cache puts an in-process sturdyc cache in front of grant lookups.
// Grants never change after they are written, so a cached record is always
// correct; liveness is still decided by the caller on every use.
package cache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/woreda-portal/server/internal/portal/store"
)

type Config struct {
	Capacity           int
	Shards             int
	TTL                time.Duration
	EvictionPercentage int
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 10000
	}
	if c.Shards <= 0 {
		c.Shards = 8
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.EvictionPercentage <= 0 || c.EvictionPercentage > 100 {
		c.EvictionPercentage = 10
	}
	return c
}

// GrantStore decorates a store.AccessGrantStore.  Only successful token
// lookups are cached; misses always reach the backing store so a grant
// issued a moment ago is visible immediately.
type GrantStore struct {
	store.AccessGrantStore
	grants *sturdyc.Client[store.AccessGrantRecord]
}

var _ store.AccessGrantStore = (*GrantStore)(nil)

func NewGrantStore(next store.AccessGrantStore, cfg Config) *GrantStore {
	cfg = cfg.withDefaults()
	return &GrantStore{
		AccessGrantStore: next,
		grants:           sturdyc.New[store.AccessGrantRecord](cfg.Capacity, cfg.Shards, cfg.TTL, cfg.EvictionPercentage),
	}
}

func (s *GrantStore) FindGrantByToken(ctx context.Context, token string) (store.AccessGrantRecord, error) {
	if g, ok := s.grants.Get(token); ok {
		return g, nil
	}

	g, err := s.AccessGrantStore.FindGrantByToken(ctx, token)
	if err != nil {
		return store.AccessGrantRecord{}, err
	}
	s.grants.Set(token, g)
	return g, nil
}

// IssueGrant primes the cache once the write has committed.
func (s *GrantStore) IssueGrant(ctx context.Context, g store.AccessGrantRecord) error {
	if err := s.AccessGrantStore.IssueGrant(ctx, g); err != nil {
		return err
	}
	s.grants.Set(g.Token, g)
	return nil
}
