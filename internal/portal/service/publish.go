package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/portal/events"
)

// publishTimeout caps how long a decision waits on the event publisher.
var publishTimeout = 2 * time.Second

// publish is fire-and-forget: the state change it reports is already stored.
func publish(ctx context.Context, pub events.Publisher, ev events.Event) {
	ev.ID = uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("event_type", string(ev.Type)).
			Str("tenant_id", ev.TenantID).
			Str("entity_id", ev.EntityID).
			Msg("event publish failed")
	}
}
