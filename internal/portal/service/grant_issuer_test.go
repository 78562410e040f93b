package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woreda-portal/server/internal/portal/events"
	"github.com/woreda-portal/server/internal/portal/service"
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/store/memory"
	"github.com/woreda-portal/server/internal/portal/types"
)

func submitPending(t *testing.T, h *harness, tenantID string) types.AccessRequest {
	t.Helper()
	r, err := h.desk.Submit(context.Background(), tenantID, types.SubmitAccessRequest{}, "192.0.2.10")
	require.NoError(t, err)
	return r
}

// ── Approve ──────────────────────────────────────────────────────────────────

func TestApprove_IssuesTwoHourGrant(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	req := submitPending(t, h, tenant)

	grant, err := h.issuer.Approve(ctx, tenant, req.ID)
	require.NoError(t, err)

	assert.Equal(t, req.ID, grant.RequestID)
	assert.Equal(t, tenant, grant.TenantID)
	assert.Equal(t, h.clock.Now(), grant.IssuedAt)
	assert.Equal(t, h.clock.Now().Add(2*time.Hour), grant.ExpiresAt)
	assert.GreaterOrEqual(t, len(grant.Token), 43)

	grants := h.mem.grants(t)
	require.Len(t, grants, 1)
	assert.Equal(t, grant.Token, grants[0].Token)

	list, err := h.desk.ListRecent(ctx, tenant, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "approved", list[0].Status)
	require.NotNil(t, list[0].DecidedAt)
}

func TestApprove_TokensAreDistinct(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		req := submitPending(t, h, tenant)
		g, err := h.issuer.Approve(ctx, tenant, req.ID)
		require.NoError(t, err)
		require.False(t, seen[g.Token], "duplicate token")
		seen[g.Token] = true
	}
}

func TestApprove_AlreadyDecided(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	approved := submitPending(t, h, tenant)
	_, err := h.issuer.Approve(ctx, tenant, approved.ID)
	require.NoError(t, err)

	_, err = h.issuer.Approve(ctx, tenant, approved.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyDecided)
	_, err = h.issuer.Deny(ctx, tenant, approved.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyDecided)

	denied := submitPending(t, h, tenant)
	_, err = h.issuer.Deny(ctx, tenant, denied.ID)
	require.NoError(t, err)

	_, err = h.issuer.Approve(ctx, tenant, denied.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyDecided)

	assert.Len(t, h.mem.grants(t), 1)
}

func TestApprove_OtherTenantIsNotFound(t *testing.T) {
	h := newHarness()
	req := submitPending(t, h, tenant)

	_, err := h.issuer.Approve(context.Background(), "woreda-3", req.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = h.issuer.Deny(context.Background(), "woreda-3", req.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Empty(t, h.mem.grants(t))
}

func TestApprove_UnknownRequest(t *testing.T) {
	h := newHarness()

	_, err := h.issuer.Approve(context.Background(), tenant, "4b7c0e7e-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestApprove_BlankIDsAreValidationErrors(t *testing.T) {
	h := newHarness()

	_, err := h.issuer.Approve(context.Background(), "", "x")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = h.issuer.Approve(context.Background(), tenant, " ")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestApprove_ConcurrentOneWinner(t *testing.T) {
	h := newHarness()
	req := submitPending(t, h, tenant)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		decided int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := h.issuer.Approve(context.Background(), tenant, req.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, service.ErrAlreadyDecided):
				decided++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, decided)
	assert.Len(t, h.mem.grants(t), 1)
	assert.Len(t, h.events.Events(), 1)
}

func TestApprove_PublishesEventWithoutToken(t *testing.T) {
	h := newHarness()
	req := submitPending(t, h, tenant)

	grant, err := h.issuer.Approve(context.Background(), tenant, req.ID)
	require.NoError(t, err)

	evs := h.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.AccessApproved, evs[0].Type)
	assert.Equal(t, tenant, evs[0].TenantID)
	assert.Equal(t, req.ID, evs[0].EntityID)
	assert.Equal(t, grant.ExpiresAt, evs[0].ExpiresAt)

	body, err := json.Marshal(evs[0])
	require.NoError(t, err)
	assert.NotContains(t, string(body), grant.Token)
}

func TestApprove_PublisherFailureDoesNotFail(t *testing.T) {
	h := newHarness()
	h.events.Err = errors.New("broker down")
	req := submitPending(t, h, tenant)

	_, err := h.issuer.Approve(context.Background(), tenant, req.ID)
	require.NoError(t, err)
	assert.Len(t, h.mem.grants(t), 1)
}

// stalledPublisher blocks until the caller gives up.
type stalledPublisher struct{}

func (stalledPublisher) Publish(ctx context.Context, _ events.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestApprove_StalledPublisherIsBounded(t *testing.T) {
	defer service.SetPublishTimeout(100 * time.Millisecond)()

	h := newHarness()
	issuer := service.NewGrantIssuer(h.mem, h.mem, stalledPublisher{}, h.clock.Now)
	req := submitPending(t, h, tenant)

	start := time.Now()
	grant, err := issuer.Approve(context.Background(), tenant, req.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Less(t, time.Since(start), time.Second)
}

func TestApprove_StoreFailure(t *testing.T) {
	h := newHarnessWith(brokenStore{memory.New(tenant)})

	_, err := h.issuer.Approve(context.Background(), tenant, "any")
	require.ErrorIs(t, err, service.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errDBDown)
}

// ── Deny ─────────────────────────────────────────────────────────────────────

func TestDeny_RecordsDecision(t *testing.T) {
	h := newHarness()
	req := submitPending(t, h, tenant)
	h.clock.Advance(5 * time.Minute)

	got, err := h.issuer.Deny(context.Background(), tenant, req.ID)
	require.NoError(t, err)

	assert.Equal(t, "denied", got.Status)
	require.NotNil(t, got.DecidedAt)
	assert.Equal(t, h.clock.Now(), *got.DecidedAt)
	assert.Empty(t, h.mem.grants(t))

	evs := h.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.AccessDenied, evs[0].Type)
	assert.True(t, evs[0].ExpiresAt.IsZero())
}

// ── Validate ─────────────────────────────────────────────────────────────────

func TestValidate_LiveUntilExpiry(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	req := submitPending(t, h, tenant)

	grant, err := h.issuer.Approve(ctx, tenant, req.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Hour + 59*time.Minute)
	got, err := h.issuer.Validate(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, tenant, got.TenantID)
	assert.Equal(t, grant.ExpiresAt, got.ExpiresAt)

	h.clock.Advance(time.Minute)
	_, err = h.issuer.Validate(ctx, grant.Token)
	assert.ErrorIs(t, err, service.ErrInvalidGrant, "expired at exactly expires_at")

	h.clock.Advance(time.Minute)
	_, err = h.issuer.Validate(ctx, grant.Token)
	assert.ErrorIs(t, err, service.ErrInvalidGrant)
}

func TestValidate_UnknownAndExpiredLookAlike(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	req := submitPending(t, h, tenant)

	grant, err := h.issuer.Approve(ctx, tenant, req.ID)
	require.NoError(t, err)
	h.clock.Advance(3 * time.Hour)

	_, expiredErr := h.issuer.Validate(ctx, grant.Token)
	_, unknownErr := h.issuer.Validate(ctx, "not-a-real-token")
	_, blankErr := h.issuer.Validate(ctx, "  ")

	require.Error(t, expiredErr)
	assert.Equal(t, expiredErr.Error(), unknownErr.Error())
	assert.Equal(t, expiredErr.Error(), blankErr.Error())
	assert.Equal(t, "access token is invalid or expired", expiredErr.Error())
}

func TestValidate_StoreFailureIsNotInvalidGrant(t *testing.T) {
	h := newHarnessWith(brokenStore{memory.New(tenant)})

	_, err := h.issuer.Validate(context.Background(), "some-token")
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, service.ErrInvalidGrant)
}

// conflictStore answers GetRequest with a pending record but reports a lost
// race from IssueGrant, as a SQL store does when another admin wins.
type conflictStore struct{ *memory.Store }

func (conflictStore) IssueGrant(context.Context, store.AccessGrantRecord) error {
	return store.ErrConflict
}

func TestApprove_StoreConflictIsAlreadyDecided(t *testing.T) {
	h := newHarnessWith(conflictStore{memory.New(tenant)})
	req := submitPending(t, h, tenant)

	_, err := h.issuer.Approve(context.Background(), tenant, req.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyDecided)
	assert.Empty(t, h.events.Events())

	st, err := h.desk.FindByCode(context.Background(), req.Code)
	require.NoError(t, err)
	assert.Equal(t, "pending", st.Status)
	assert.Empty(t, st.Token)
}
