package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/portal/store"
)

// GrantPruner deletes grants that expired more than a retention period ago.
// It runs once per call; scheduling is left to the caller.
//
// A retention of 0 disables pruning entirely.
type GrantPruner struct {
	store     store.AccessGrantStore
	retention time.Duration
	clock     Clock
}

// NewGrantPruner keeps grants for retentionDays after they expire.
func NewGrantPruner(s store.AccessGrantStore, retentionDays int, clock Clock) *GrantPruner {
	return &GrantPruner{
		store:     s,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		clock:     clock,
	}
}

// PruneOnce returns the number of grants deleted.
func (p *GrantPruner) PruneOnce(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		log.Ctx(ctx).Info().Msg("grant pruning disabled (retention=0)")
		return 0, nil
	}

	cutoff := p.clock.now().Add(-p.retention)
	deleted, err := p.store.PruneExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, storeFailure(ctx, "access_grant.prune", "", "", err)
	}

	log.Ctx(ctx).Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("grant prune complete")
	return deleted, nil
}
