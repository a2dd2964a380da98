// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/guides"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/resource"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
)

const testCSRF = "6f1c2a8e-3b4d-4c5e-9f60-718293a4b5c6"

// fakeBackend answers "METHOD /path" from a table and records every call.
// Unlisted GETs return an empty page.
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
	bodies    map[string]string
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.bodies[key] = string(body)
	resp, ok := f.responses[key]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
			return
		}
		resp = fakeResponse{http.StatusOK, `{"count":0,"next":null,"previous":null,"results":[]}`}
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (f *fakeBackend) called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeBackend) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

type testEnv struct {
	backend *fakeBackend
	router  chi.Router
}

func newTestEnv(t *testing.T, responses map[string]fakeResponse) *testEnv {
	t.Helper()
	fb := &fakeBackend{responses: responses, bodies: map[string]string{}}
	if fb.responses == nil {
		fb.responses = map[string]fakeResponse{}
	}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	client := backend.NewClient(backend.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	bridge := session.NewBridge(client, session.CookieConfig{}, nil)
	mw := NewMiddleware(bridge, MiddlewareConfig{}, nil)

	catalog, err := resource.Load()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	lib, err := guides.Load()
	if err != nil {
		t.Fatalf("guides: %v", err)
	}
	h := NewHandler(Deps{
		Backend:    client,
		Bridge:     bridge,
		Catalog:    catalog,
		Guides:     lib,
		Middleware: mw,
	}, Config{Version: "test", Locale: "en"})

	r := chi.NewRouter()
	RegisterRoutes(r, h, mw)
	return &testEnv{backend: fb, router: r}
}

func accessToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	all := jwt.MapClaims{"exp": time.Now().Add(10 * time.Minute).Unix(), "user_id": 7, "username": "amal"}
	for k, v := range claims {
		all[k] = v
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, all).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func adminCookie(t *testing.T) *http.Cookie {
	return &http.Cookie{Name: session.DefaultAccessCookie, Value: accessToken(t, jwt.MapClaims{"role_slug": "admin"})}
}

// do sends a request. Form posts carry a matching CSRF cookie and field.
func (e *testEnv) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		form.Set("_csrf", testCSRF)
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: CookieCSRF, Value: testCSRF})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, status, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

// ============================================================================
// Login and logout
// ============================================================================

func TestLogin(t *testing.T) {
	t.Run("success sets both cookies", func(t *testing.T) {
		access := accessToken(t, nil)
		pair, _ := json.Marshal(map[string]string{"access": access, "refresh": "refresh-1"})
		env := newTestEnv(t, map[string]fakeResponse{
			"POST /api/auth/token/": {http.StatusOK, string(pair)},
		})

		rec := env.do(http.MethodPost, LoginPath, url.Values{
			"username": {"amal"}, "password": {"secret"}, "next": {"/dashboard/finance/invoices"},
		})
		expectRedirect(t, rec, http.StatusSeeOther, "/dashboard/finance/invoices")

		cookies := responseCookies(rec)
		if c := cookies[session.DefaultAccessCookie]; c == nil || c.Value != access {
			t.Errorf("access cookie = %+v", c)
		}
		if c := cookies[session.DefaultRefreshCookie]; c == nil || c.Value != "refresh-1" {
			t.Errorf("refresh cookie = %+v", c)
		}
		if !strings.Contains(env.backend.body("POST /api/auth/token/"), `"username":"amal"`) {
			t.Error("credentials not forwarded")
		}
	})

	t.Run("rejected shows backend detail and clears cookies", func(t *testing.T) {
		env := newTestEnv(t, map[string]fakeResponse{
			"POST /api/auth/token/": {http.StatusUnauthorized, `{"detail":"No active account found with the given credentials"}`},
		})
		rec := env.do(http.MethodPost, LoginPath, url.Values{"username": {"amal"}, "password": {"wrong"}})

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "No active account found with the given credentials") {
			t.Error("backend detail not shown")
		}
		cookies := responseCookies(rec)
		for _, name := range []string{session.DefaultAccessCookie, session.DefaultRefreshCookie} {
			if c := cookies[name]; c == nil || c.MaxAge >= 0 {
				t.Errorf("cookie %s not cleared: %+v", name, c)
			}
		}
	})

	t.Run("missing credentials never reach the backend", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(http.MethodPost, LoginPath, url.Values{"username": {"amal"}})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), credentialsRequired) {
			t.Error("message missing")
		}
		if env.backend.called("POST") {
			t.Error("backend called")
		}
	})

	t.Run("unsafe next falls back to the dashboard", func(t *testing.T) {
		pair, _ := json.Marshal(map[string]string{"access": accessToken(t, nil), "refresh": "r"})
		env := newTestEnv(t, map[string]fakeResponse{"POST /api/auth/token/": {http.StatusOK, string(pair)}})
		rec := env.do(http.MethodPost, LoginPath, url.Values{
			"username": {"amal"}, "password": {"secret"}, "next": {"//evil.example"},
		})
		expectRedirect(t, rec, http.StatusSeeOther, DashboardPath)
	})
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, LoginPath+"?error=throttled&next=/dashboard/access", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{tooManyAttempts, `name="next" value="/dashboard/access"`, `name="_csrf"`} {
		if !strings.Contains(html, want) {
			t.Errorf("login page missing %q", want)
		}
	}
	if responseCookies(rec)[CookieCSRF] == nil {
		t.Error("CSRF cookie not issued")
	}

	rec = env.do(http.MethodGet, LoginPath+"?error=%3Cb%3Ephish%3C%2Fb%3E", nil)
	if strings.Contains(rec.Body.String(), "phish") {
		t.Error("unknown error codes must not be echoed")
	}

	rec = env.do(http.MethodGet, LoginPath, nil, adminCookie(t))
	expectRedirect(t, rec, http.StatusSeeOther, DashboardPath)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	refresh := &http.Cookie{Name: session.DefaultRefreshCookie, Value: "r1"}

	tests := []struct {
		name    string
		cookies []*http.Cookie
	}{
		{"signed in", []*http.Cookie{adminCookie(t), refresh}},
		{"already signed out", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No CSRF cookie or field: logout must still clear the tokens.
			req := httptest.NewRequest(http.MethodPost, LogoutPath, nil)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			expectRedirect(t, rec, http.StatusSeeOther, LoginPath)
			cookies := responseCookies(rec)
			for _, name := range []string{session.DefaultAccessCookie, session.DefaultRefreshCookie} {
				if c := cookies[name]; c == nil || c.MaxAge >= 0 {
					t.Errorf("%s not cleared", name)
				}
			}
		})
	}
}

func TestSession_UnusableCookieSignsOut(t *testing.T) {
	env := newTestEnv(t, nil)
	garbage := &http.Cookie{Name: session.DefaultAccessCookie, Value: "garbage"}

	rec := env.do(http.MethodGet, DashboardPath, nil, garbage)
	expectRedirect(t, rec, http.StatusSeeOther, LoginPath+"?next="+url.QueryEscape(DashboardPath))
	if c := responseCookies(rec)[session.DefaultAccessCookie]; c == nil || c.MaxAge >= 0 {
		t.Error("unusable access cookie not cleared")
	}

	// A browser that has not applied the clear yet still reaches the form.
	rec = env.do(http.MethodGet, LoginPath, nil, garbage)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /login status = %d, want 200 (Location %q)", rec.Code, rec.Header().Get("Location"))
	}
}

// ============================================================================
// Guards
// ============================================================================

func TestGuards(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("anonymous goes to login with next", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/dashboard/finance/invoices?page=2", nil)
		expectRedirect(t, rec, http.StatusSeeOther, "/login?next="+url.QueryEscape("/dashboard/finance/invoices?page=2"))
	})

	t.Run("area without access goes to the access page", func(t *testing.T) {
		viewer := &http.Cookie{Name: session.DefaultAccessCookie, Value: accessToken(t, jwt.MapClaims{
			"role_slug": "viewer", "permissions": []string{"projects:view"},
		})}
		rec := env.do(http.MethodGet, "/dashboard/finance/invoices", nil, viewer)
		expectRedirect(t, rec, http.StatusSeeOther, "/dashboard/access?denied=finance")

		rec = env.do(http.MethodGet, "/dashboard/projects", nil, viewer)
		if rec.Code != http.StatusOK {
			t.Errorf("allowed area status = %d", rec.Code)
		}
	})

	t.Run("csrf mismatch is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/dashboard/admin/roles/new",
			strings.NewReader("name=x&slug=y&_csrf=other"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: CookieCSRF, Value: testCSRF})
		req.AddCookie(adminCookie(t))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		if env.backend.called("POST") {
			t.Error("backend called despite CSRF failure")
		}
	})
}

func TestAccessPage(t *testing.T) {
	env := newTestEnv(t, nil)
	viewer := &http.Cookie{Name: session.DefaultAccessCookie, Value: accessToken(t, jwt.MapClaims{
		"role_slug": "viewer", "permissions": "projects:view finance:manage",
	})}

	rec := env.do(http.MethodGet, AccessPath+"?denied=real_estate", nil, viewer)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{
		"Access to `real_estate` module is not allowed for your current permissions.",
		"viewer", "amal", "projects:view", "finance:manage",
		`data-cell="finance-manage">Yes`, `data-cell="finance-approve">No`, `data-cell="admin-view">No`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("access page missing %q", want)
		}
	}
}

// ============================================================================
// Resource pages
// ============================================================================

func TestList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(http.MethodGet, "/dashboard/admin/roles", nil, adminCookie(t))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), resource.EmptyMessage) {
			t.Error("empty message missing")
		}
	})

	t.Run("backend failure renders inline", func(t *testing.T) {
		env := newTestEnv(t, map[string]fakeResponse{
			"GET /api/v1/core/roles/": {http.StatusInternalServerError, `{"detail":"database offline"}`},
		})
		rec := env.do(http.MethodGet, "/dashboard/admin/roles", nil, adminCookie(t))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "database offline") {
			t.Error("backend detail missing")
		}
	})

	t.Run("unknown page", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(http.MethodGet, "/dashboard/admin/nothing", nil, adminCookie(t))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestCreate(t *testing.T) {
	t.Run("missing required field is not sent", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(http.MethodPost, "/dashboard/admin/roles/new", url.Values{"name": {"Site Engineer"}}, adminCookie(t))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "الحقل Slug مطلوب.") {
			t.Error("validation message missing")
		}
		if env.backend.called("POST") {
			t.Error("backend called with an invalid form")
		}
	})

	t.Run("saved then flashed", func(t *testing.T) {
		env := newTestEnv(t, map[string]fakeResponse{
			"POST /api/v1/core/roles/": {http.StatusCreated, `{"id":4,"name":"Site Engineer"}`},
		})
		rec := env.do(http.MethodPost, "/dashboard/admin/roles/new",
			url.Values{"name": {"Site Engineer"}, "slug": {"site-engineer"}}, adminCookie(t))
		expectRedirect(t, rec, http.StatusSeeOther, "/dashboard/admin/roles")

		sent := env.backend.body("POST /api/v1/core/roles/")
		for _, want := range []string{`"name":"Site Engineer"`, `"slug":"site-engineer"`, `"is_system":false`} {
			if !strings.Contains(sent, want) {
				t.Errorf("payload %s missing %s", sent, want)
			}
		}

		flash := responseCookies(rec)[CookieFlash]
		if flash == nil {
			t.Fatal("flash cookie not set")
		}
		rec = env.do(http.MethodGet, "/dashboard/admin/roles", nil, adminCookie(t), flash)
		if !strings.Contains(rec.Body.String(), savedMessage) {
			t.Error("flash message not shown")
		}
		if c := responseCookies(rec)[CookieFlash]; c == nil || c.MaxAge >= 0 {
			t.Error("flash cookie not consumed")
		}
	})

	t.Run("backend field errors are shown", func(t *testing.T) {
		env := newTestEnv(t, map[string]fakeResponse{
			"POST /api/v1/core/roles/": {http.StatusBadRequest, `{"slug":["role with this slug already exists."]}`},
		})
		rec := env.do(http.MethodPost, "/dashboard/admin/roles/new",
			url.Values{"name": {"Admin"}, "slug": {"admin"}}, adminCookie(t))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "role with this slug already exists.") {
			t.Error("field error missing")
		}
	})
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"DELETE /api/v1/core/roles/4/": {http.StatusNoContent, ""},
	})
	rec := env.do(http.MethodPost, "/dashboard/admin/roles/4/delete", url.Values{}, adminCookie(t))
	expectRedirect(t, rec, http.StatusSeeOther, "/dashboard/admin/roles")
	if !env.backend.called("DELETE /api/v1/core/roles/4/") {
		t.Error("delete not sent")
	}
}

// ============================================================================
// Other pages
// ============================================================================

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"GET /api/v1/projects/projects/": {http.StatusOK, `{"count":3,"results":[{"contract_value":"1000"}]}`},
	})
	rec := env.do(http.MethodGet, DashboardPath, nil, adminCookie(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{"إجمالي المشاريع", "<strong>3</strong>", "الرصيد المفتوح", "الفواتير والمدفوعات"} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if !env.backend.called("GET /api/v1/finance/payments/") {
		t.Error("payments not loaded")
	}
}

func TestGuidePages(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, guidesPath+"/journal-entries", nil, adminCookie(t))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "دليل القيود اليومية") {
		t.Errorf("topic status = %d", rec.Code)
	}
	rec = env.do(http.MethodGet, guidesPath+"/missing", nil, adminCookie(t))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing topic status = %d", rec.Code)
	}
}

func TestPortal(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"POST /api/v1/payments/payment-intents/": {http.StatusCreated, `{"id":91,"client_secret":"pi_secret","amount":"12.500","currency":"KWD"}`},
		"GET /api/v1/payments/payment-intents/91/": {http.StatusOK, `{"id":91,"status":"succeeded","amount":"12.500","currency":"KWD","client_secret":"pi_secret"}`},
	})

	rec := env.do(http.MethodGet, payPath, nil, adminCookie(t))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), noIntent) {
		t.Errorf("no intent: status = %d", rec.Code)
	}

	rec = env.do(http.MethodPost, paymentsPath, url.Values{"invoice": {"5"}, "amount": {"0"}}, adminCookie(t))
	if rec.Code != http.StatusUnprocessableEntity || env.backend.called("POST") {
		t.Errorf("invalid amount: status = %d", rec.Code)
	}

	rec = env.do(http.MethodPost, paymentsPath, url.Values{"invoice": {"5"}, "amount": {"12.5"}}, adminCookie(t))
	expectRedirect(t, rec, http.StatusSeeOther, payPath+"?intent=91")

	rec = env.do(http.MethodGet, payPath+"?intent=91", nil, adminCookie(t))
	html := rec.Body.String()
	for _, want := range []string{paymentDone, `data-client-secret="pi_secret"`, "المبلغ"} {
		if !strings.Contains(html, want) {
			t.Errorf("pay page missing %q", want)
		}
	}
}

// ============================================================================
// Helpers
// ============================================================================

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", DashboardPath},
		{"/dashboard/finance", "/dashboard/finance"},
		{"//evil.example", DashboardPath},
		{"https://evil.example", DashboardPath},
		{`/\evil.example`, DashboardPath},
		{"dashboard", DashboardPath},
	}
	for _, tt := range tests {
		if got := safeNext(tt.in); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeFlash(t *testing.T) {
	if f := decodeFlash(url.QueryEscape("success:تم")); f == nil || f.Type != "success" || f.Message != "تم" {
		t.Errorf("decodeFlash = %+v", f)
	}
	if f := decodeFlash("no-separator"); f != nil {
		t.Errorf("decodeFlash = %+v, want nil", f)
	}
}
