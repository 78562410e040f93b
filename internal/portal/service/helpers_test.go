package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/woreda-portal/server/internal/portal/events"
	"github.com/woreda-portal/server/internal/portal/service"
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/store/memory"
)

const tenant = "woreda-9"

// fakeClock is a settable service.Clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// trackingStore remembers every token it accepted so tests can read grants
// back through FindGrantByToken.
type trackingStore struct {
	*memory.Store

	mu     sync.Mutex
	tokens []string
}

func (s *trackingStore) IssueGrant(ctx context.Context, g store.AccessGrantRecord) error {
	if err := s.Store.IssueGrant(ctx, g); err != nil {
		return err
	}
	s.mu.Lock()
	s.tokens = append(s.tokens, g.Token)
	s.mu.Unlock()
	return nil
}

// grants returns the issued grants that are still stored.
func (s *trackingStore) grants(t *testing.T) []store.AccessGrantRecord {
	t.Helper()
	s.mu.Lock()
	tokens := append([]string(nil), s.tokens...)
	s.mu.Unlock()

	var out []store.AccessGrantRecord
	for _, tok := range tokens {
		g, err := s.FindGrantByToken(context.Background(), tok)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		require.NoError(t, err)
		out = append(out, g)
	}
	return out
}

func (s *trackingStore) appointments(t *testing.T, tenantID string) []store.AppointmentRecord {
	t.Helper()
	out, err := s.ListAppointments(context.Background(), tenantID, store.MaxListLimit)
	require.NoError(t, err)
	return out
}

type harness struct {
	mem       *trackingStore
	clock     *fakeClock
	events    *events.Recorder
	tenants   *service.TenantRegistry
	desk      *service.AccessDesk
	issuer    *service.GrantIssuer
	scheduler *service.AppointmentScheduler
}

func newHarness() *harness {
	return newHarnessWith(&trackingStore{Store: memory.New(tenant, "woreda-3")})
}

// newHarnessWith wires every service over st, which must implement all
// store interfaces.
func newHarnessWith(st interface {
	store.AccessRequestStore
	store.AccessGrantStore
	store.AppointmentStore
	store.TenantStore
}) *harness {
	h := &harness{
		clock:  newFakeClock(),
		events: &events.Recorder{},
	}
	if m, ok := st.(*trackingStore); ok {
		h.mem = m
	}
	clock := service.Clock(h.clock.Now)
	h.tenants = service.NewTenantRegistry(st)
	h.desk = service.NewAccessDesk(st, st, h.tenants, clock)
	h.issuer = service.NewGrantIssuer(st, st, h.events, clock)
	h.scheduler = service.NewAppointmentScheduler(st, h.tenants, h.events, clock)
	return h
}

var errDBDown = errors.New("database is locked")

// brokenStore fails every call that reaches it.
type brokenStore struct{ *memory.Store }

func (brokenStore) CreateRequest(context.Context, store.AccessRequestRecord) error { return errDBDown }
func (brokenStore) GetRequest(context.Context, string, string) (store.AccessRequestRecord, error) {
	return store.AccessRequestRecord{}, errDBDown
}
func (brokenStore) ListRecentRequests(context.Context, string, int) ([]store.AccessRequestRecord, error) {
	return nil, errDBDown
}
func (brokenStore) FindGrantByToken(context.Context, string) (store.AccessGrantRecord, error) {
	return store.AccessGrantRecord{}, errDBDown
}
func (brokenStore) CreateAppointment(context.Context, store.AppointmentRecord) error { return errDBDown }

// timeoutStore fails CreateRequest the way a driver does when the caller's
// deadline passes.
type timeoutStore struct{ *memory.Store }

func (timeoutStore) CreateRequest(context.Context, store.AccessRequestRecord) error {
	return context.DeadlineExceeded
}
