package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pharmadesk.org/internal/audit"
	"pharmadesk.org/internal/auth"
	"pharmadesk.org/internal/store"
	"pharmadesk.org/internal/stream"
)

type testEnv struct {
	api      *API
	handler  http.Handler
	store    *store.Store
	auditLog *audit.Log
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("PHARMADESK_AUTH_SECRET", "")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	st := store.New(store.NewSimulated(store.WithLatencyScale(0)))
	auditLog := audit.NewLog()
	st.AddSink(audit.NewRecorder(auditLog))
	bus := stream.New()
	st.AddSink(stream.NewFanout(bus))
	gate := auth.NewService(auth.NewDemoVerifier(auth.NewDemoDirectory(), auth.WithLoginLatency(0)))

	api := New(ReadyProbe{}, "test", st, gate, auditLog, bus)
	return &testEnv{api: api, handler: api.Handler(), store: st, auditLog: auditLog}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	decodeBody(t, rr, &body)
	if body["service"] != "pharmadesk-api" {
		t.Fatalf("unexpected body: %v", body)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id header missing")
	}
}

func TestLoginLogoutFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    auth.DemoAdminEmail,
		"password": auth.DemoAdminPassword,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var sess sessionResponse
	decodeBody(t, rr, &sess)
	if sess.Name != "Marie Lambert" || sess.Role != "Administrateur" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if stored, ok := env.store.Session(); !ok || stored.Name != "Marie Lambert" {
		t.Fatalf("store session not set: %+v ok=%v", stored, ok)
	}

	rr = env.do(t, http.MethodGet, "/v1/auth/session", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/v1/auth/logout", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rr.Code)
	}
	if _, ok := env.store.Session(); ok {
		t.Fatal("store session survived logout")
	}
	rr = env.do(t, http.MethodGet, "/v1/auth/session", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rr.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "", "password": ""})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/products", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var listed struct {
		Count int `json:"count"`
	}
	decodeBody(t, rr, &listed)
	if listed.Count != 6 {
		t.Fatalf("expected 6 demo products, got %d", listed.Count)
	}

	before := env.auditLog.Len()

	rr = env.do(t, http.MethodPost, "/v1/products", map[string]any{
		"cip":          "3400912345678",
		"name":         "Test 500 mg",
		"category":     "Tests",
		"manufacturer": "ACME",
		"price":        100,
		"stock":        10,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created store.Product
	decodeBody(t, rr, &created)
	if created.ID == "" || created.Status != "available" {
		t.Fatalf("unexpected created product: %+v", created)
	}

	rr = env.do(t, http.MethodPatch, "/v1/products/"+created.ID, map[string]any{"price": 150})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated store.Product
	decodeBody(t, rr, &updated)
	if updated.Price != 150 {
		t.Fatalf("price = %d after patch", updated.Price)
	}

	rr = env.do(t, http.MethodDelete, "/v1/products/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}

	if got := env.auditLog.Len() - before; got != 3 {
		t.Fatalf("expected 3 audit entries for the cycle, got %d", got)
	}
}

func TestPatchUnknownProductReturns404(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPatch, "/v1/products/nope", map[string]any{"price": 1})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	// The failed update is still audited.
	if env.auditLog.Len() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", env.auditLog.Len())
	}
}

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/v1/products", map[string]any{"name": "No CIP"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	rr = env.do(t, http.MethodPost, "/v1/products", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPut, "/v1/products", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("Allow header = %q", allow)
	}
}

func TestNotificationReadAndDelete(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/notifications", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var listed struct {
		Items []store.Notification `json:"items"`
	}
	decodeBody(t, rr, &listed)
	if len(listed.Items) == 0 {
		t.Fatal("no demo notifications")
	}
	target := listed.Items[0].ID

	rr = env.do(t, http.MethodPost, "/v1/notifications/"+target+"/read", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("read: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodDelete, "/v1/notifications/"+target, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	// Notifications are operational, never audited.
	if env.auditLog.Len() != 0 {
		t.Fatalf("notification ops audited: %d entries", env.auditLog.Len())
	}
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/v1/dashboard/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var stats store.DashboardStats
	decodeBody(t, rr, &stats)
	if stats.Orders == 0 || stats.AsOf.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAuditEndpoint(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPost, "/v1/officines", map[string]any{"name": "Pharmacie Test", "city": "Lyon"})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create officine: expected 201, got %d", rr.Code)
		}
	}

	rr := env.do(t, http.MethodGet, "/v1/audit?limit=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Entries []audit.Entry `json:"entries"`
		Count   int           `json:"count"`
		Total   int           `json:"total"`
	}
	decodeBody(t, rr, &body)
	if body.Count != 1 || body.Total != 2 {
		t.Fatalf("count = %d, total = %d", body.Count, body.Total)
	}
	if body.Entries[0].RequestID == "" {
		t.Fatal("audit entry lost its request id")
	}

	rr = env.do(t, http.MethodGet, "/v1/audit?limit=zero", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestUIEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/ui", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var ui store.UIState
	decodeBody(t, rr, &ui)
	if ui.ActiveModule != "dashboard" || !ui.SidebarOpen || ui.Theme != "light" {
		t.Fatalf("unexpected defaults: %+v", ui)
	}

	rr = env.do(t, http.MethodPatch, "/v1/ui", map[string]any{
		"active_module": "orders",
		"toggle_theme":  true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", rr.Code)
	}
	decodeBody(t, rr, &ui)
	if ui.ActiveModule != "orders" || ui.Theme != "dark" {
		t.Fatalf("patch not applied: %+v", ui)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodOptions, "/v1/products", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS headers missing")
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestBearerAuthEnforcedWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("PHARMADESK_AUTH_SECRET", "test-secret-0123456789")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	rr := env.do(t, http.MethodGet, "/v1/products", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	// Public routes stay open.
	rr = env.do(t, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rr.Code)
	}

	// Login issues a token that unlocks the API.
	rr = env.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    auth.DemoAdminEmail,
		"password": auth.DemoAdminPassword,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rr.Code)
	}
	var sess sessionResponse
	decodeBody(t, rr, &sess)
	if sess.Token == "" {
		t.Fatal("expected a bearer token with a configured secret")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	out := httptest.NewRecorder()
	env.handler.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", out.Code, out.Body.String())
	}
}
