// Package events publishes domain events after state changes have been
// stored.  Delivery is best effort: callers log failures and carry on.
package events

import (
	"context"
	"sync"
	"time"
)

type Type string

const (
	AccessApproved     Type = "access.approved"
	AccessDenied       Type = "access.denied"
	AppointmentCreated Type = "appointment.created"
	AppointmentDecided Type = "appointment.decided"
)

// Event never carries grant tokens or requester contact details.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	TenantID   string    `json:"tenant_id"`
	EntityID   string    `json:"entity_id"`
	Code       string    `json:"code,omitempty"`
	Status     string    `json:"status,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.  Used by tests and by dev runs
// without a broker.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned from Publish when set
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
