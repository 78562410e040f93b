package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/woreda-portal/server/internal/httpapi"
	"github.com/woreda-portal/server/internal/portal/events"
	"github.com/woreda-portal/server/internal/portal/service"
	"github.com/woreda-portal/server/internal/portal/store/memory"
	"github.com/woreda-portal/server/internal/portal/types"
)

const (
	testTenant = "woreda-9"
	testSecret = "test-secret"
	testIssuer = "woreda-portal"
)

// newTestServer wires up the full dependency graph using in-memory stores
// and returns an httptest.Server whose URL can be hit with a plain http.Client.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st := memory.New(testTenant, "woreda-3")
	tenants := service.NewTenantRegistry(st)
	rec := &events.Recorder{}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Addr:      ":0",
		Version:   "test",
		Admin:     httpapi.AdminAuth{Secret: []byte(testSecret), Issuer: testIssuer},
		Desk:      service.NewAccessDesk(st, st, tenants, nil),
		Issuer:    service.NewGrantIssuer(st, st, rec, nil),
		Scheduler: service.NewAppointmentScheduler(st, tenants, rec, nil),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func adminToken(t *testing.T, tenantID string, ttl time.Duration) string {
	t.Helper()
	claims := httpapi.AdminClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "clerk-1",
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func do(t *testing.T, method, url, bearer, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, b)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ── Access requests ──────────────────────────────────────────────────────────

func TestAccessFlow_SubmitApproveValidate(t *testing.T) {
	ts := newTestServer(t)
	admin := adminToken(t, testTenant, time.Hour)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/tenants/woreda-9/access-requests", strings.NewReader(`{"code":"abcd2345"}`))
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	submitted := decode[types.AccessRequest](t, resp)
	if submitted.Code != "ABCD2345" {
		t.Errorf("expected normalized code, got %q", submitted.Code)
	}
	if submitted.OriginAddress != "198.51.100.4" {
		t.Errorf("expected first forwarded hop, got %q", submitted.OriginAddress)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/access-requests/ABCD2345", "", "")
	expectStatus(t, resp, http.StatusOK)
	if st := decode[types.AccessRequestStatus](t, resp); st.Status != "pending" || st.Token != "" {
		t.Fatalf("expected pending without token, got %+v", st)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/access-requests?limit=5", admin, "")
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]types.AccessRequest](t, resp); len(list) != 1 || list[0].ID != submitted.ID {
		t.Fatalf("unexpected admin list: %+v", list)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/admin/access-requests/"+submitted.ID+"/approve", admin, "")
	expectStatus(t, resp, http.StatusCreated)
	grant := decode[types.AccessGrant](t, resp)
	if grant.Token == "" {
		t.Fatal("expected a token")
	}
	if d := grant.ExpiresAt.Sub(grant.IssuedAt); d != 2*time.Hour {
		t.Errorf("expected 2h lifetime, got %s", d)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/admin/access-requests/"+submitted.ID+"/approve", admin, "")
	expectStatus(t, resp, http.StatusConflict)

	resp = do(t, http.MethodGet, ts.URL+"/v1/access-requests/abcd2345", "", "")
	expectStatus(t, resp, http.StatusOK)
	if st := decode[types.AccessRequestStatus](t, resp); st.Token != grant.Token || !st.Live {
		t.Fatalf("expected live token after approval, got %+v", st)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/access/validate", "", `{"token":"`+grant.Token+`"}`)
	expectStatus(t, resp, http.StatusOK)
	if v := decode[types.ValidateAccessResponse](t, resp); !v.Valid || v.TenantID != testTenant {
		t.Fatalf("unexpected validate response: %+v", v)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/access/validate", grant.Token, "")
	expectStatus(t, resp, http.StatusOK)
}

func TestSubmit_EmptyBodyMintsCode(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-9/access-requests", "", "")
	expectStatus(t, resp, http.StatusCreated)
	if r := decode[types.AccessRequest](t, resp); len(r.Code) != 8 {
		t.Errorf("expected 8 character code, got %q", r.Code)
	}
}

func TestSubmit_UnknownTenant_400(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-404/access-requests", "", `{}`)
	expectStatus(t, resp, http.StatusBadRequest)
	if e := decode[errorBody](t, resp); e.Error != "validation_error" {
		t.Errorf("expected validation_error, got %+v", e)
	}
}

func TestSubmit_InvalidJSON_400(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-9/access-requests", "", `not json at all`)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-9/access-requests", "", `{"code":"ABCD2345","extra":1}`)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestAccessStatus_UnknownCode_404(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/v1/access-requests/ZZZZ2345", "", "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestValidate_InvalidToken_401(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`{"token":"bogus"}`, `{}`} {
		resp := do(t, http.MethodPost, ts.URL+"/v1/access/validate", "", body)
		expectStatus(t, resp, http.StatusUnauthorized)
		if e := decode[errorBody](t, resp); e.Message != "access token is invalid or expired" {
			t.Errorf("unexpected message %q", e.Message)
		}
	}
}

func TestDeny_ThenApprove_409(t *testing.T) {
	ts := newTestServer(t)
	admin := adminToken(t, testTenant, time.Hour)

	resp := do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-9/access-requests", "", "")
	expectStatus(t, resp, http.StatusCreated)
	r := decode[types.AccessRequest](t, resp)

	resp = do(t, http.MethodPost, ts.URL+"/v1/admin/access-requests/"+r.ID+"/deny", admin, "")
	expectStatus(t, resp, http.StatusOK)
	if got := decode[types.AccessRequest](t, resp); got.Status != "denied" {
		t.Errorf("expected denied, got %q", got.Status)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/admin/access-requests/"+r.ID+"/approve", admin, "")
	expectStatus(t, resp, http.StatusConflict)
}

// ── Admin auth ───────────────────────────────────────────────────────────────

func TestAdmin_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/v1/admin/access-requests", "", "")
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/access-requests", "not.a.jwt", "")
	expectStatus(t, resp, http.StatusUnauthorized)

	expired := adminToken(t, testTenant, -time.Minute)
	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/access-requests", expired, "")
	expectStatus(t, resp, http.StatusUnauthorized)

	noTenant := adminToken(t, "", time.Hour)
	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/access-requests", noTenant, "")
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestAdmin_RejectsWrongSecretAndAlgorithm(t *testing.T) {
	ts := newTestServer(t)
	claims := httpapi.AdminClaims{
		TenantID: testTenant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp := do(t, http.MethodGet, ts.URL+"/v1/admin/appointments", wrongKey, "")
	expectStatus(t, resp, http.StatusUnauthorized)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/appointments", hs512, "")
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestAdmin_TenantComesFromToken(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-9/access-requests", "", "")
	expectStatus(t, resp, http.StatusCreated)
	r := decode[types.AccessRequest](t, resp)

	other := adminToken(t, "woreda-3", time.Hour)
	resp = do(t, http.MethodPost, ts.URL+"/v1/admin/access-requests/"+r.ID+"/approve", other, "")
	expectStatus(t, resp, http.StatusNotFound)

	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/access-requests", other, "")
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]types.AccessRequest](t, resp); len(list) != 0 {
		t.Fatalf("expected empty list for other tenant, got %d", len(list))
	}
}

func TestAdmin_BadLimit_400(t *testing.T) {
	ts := newTestServer(t)
	admin := adminToken(t, testTenant, time.Hour)

	resp := do(t, http.MethodGet, ts.URL+"/v1/admin/access-requests?limit=abc", admin, "")
	expectStatus(t, resp, http.StatusBadRequest)
}

// ── Appointments ─────────────────────────────────────────────────────────────

const appointmentBody = `{
	"requester_name": "Abebe Kebede",
	"requester_phone": "+251911000000",
	"reason": "ID card",
	"requested_date_ethiopian": "2016-1-1",
	"requested_time": "10:00"
}`

func TestAppointmentFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := adminToken(t, testTenant, time.Hour)

	resp := do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-9/appointments", "", appointmentBody)
	expectStatus(t, resp, http.StatusCreated)
	a := decode[types.Appointment](t, resp)
	if a.RequestedDateGregorian != "2023-09-12" {
		t.Errorf("expected 2023-09-12, got %q", a.RequestedDateGregorian)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/appointments/"+a.UniqueCode, "", "")
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodPost, ts.URL+"/v1/admin/appointments/"+a.ID+"/decision", admin, `{"status":"rescheduled"}`)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, http.MethodPost, ts.URL+"/v1/admin/appointments/"+a.ID+"/decision", admin,
		`{"status":"rescheduled","rescheduled_date_ethiopian":"2016-1-5","rescheduled_time":"14:30"}`)
	expectStatus(t, resp, http.StatusOK)
	got := decode[types.Appointment](t, resp)
	if got.Status != "rescheduled" || got.RescheduledDateGregorian != "2023-09-16" {
		t.Fatalf("unexpected decision result: %+v", got)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/appointments", admin, "")
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]types.Appointment](t, resp); len(list) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(list))
	}
}

func TestAppointment_InvalidDate_400(t *testing.T) {
	ts := newTestServer(t)
	body := strings.Replace(appointmentBody, "2016-1-1", "2016-13-6", 1)

	resp := do(t, http.MethodPost, ts.URL+"/v1/tenants/woreda-9/appointments", "", body)
	expectStatus(t, resp, http.StatusBadRequest)
	e := decode[errorBody](t, resp)
	if !strings.Contains(e.Message, "requested_date_ethiopian") {
		t.Errorf("expected field name in message, got %q", e.Message)
	}
}

func TestAppointment_UnknownCode_404(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/v1/appointments/APT-0-XXXX", "", "")
	expectStatus(t, resp, http.StatusNotFound)
}

// ── Misc ─────────────────────────────────────────────────────────────────────

func TestVersion(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/version", "", "")
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
