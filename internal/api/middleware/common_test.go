// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// IP extraction
// ============================================================================

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "203.0.113.9:5555", nil, "203.0.113.9"},
		{"x-real-ip", "10.0.0.2:1", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"rightmost public forwarded", "10.0.0.2:1", map[string]string{"X-Forwarded-For": "1.1.1.1, 198.51.100.7, 10.0.0.3"}, "198.51.100.7"},
		{"all private forwarded", "10.0.0.2:1", map[string]string{"X-Forwarded-For": "10.0.0.5, 192.168.1.2"}, "192.168.1.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getRealIP(r); got != tt.want {
				t.Errorf("getRealIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// Rate limit and CORS
// ============================================================================

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/api/auth/login/", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", last.Header().Get("Retry-After"))
	}
	if !strings.Contains(last.Body.String(), `"detail"`) {
		t.Errorf("body = %s", last.Body.String())
	}
}

func TestCORS(t *testing.T) {
	h := CORS(DefaultCORSConfig(ParseOrigins("https://erp.example.com, *, ")))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodOptions, "/api/auth/session/", nil)
	r.Header.Set("Origin", "https://erp.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://erp.example.com" {
		t.Errorf("allow origin = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials not allowed")
	}

	r.Header.Set("Origin", "https://other.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestCORS_EmptyAllowListDeniesCrossOrigin(t *testing.T) {
	called := 0
	h := CORS(DefaultCORSConfig(ParseOrigins("")))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))

	for _, method := range []string{http.MethodOptions, http.MethodGet} {
		r := httptest.NewRequest(method, "/api/auth/session/", nil)
		r.Header.Set("Origin", "https://evil.example")
		if method == http.MethodOptions {
			r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("%s: foreign origin allowed: %q", method, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
			t.Errorf("%s: credentials allowed: %q", method, got)
		}
	}
	if called != 1 {
		t.Errorf("handler called %d times, want 1", called)
	}
}
