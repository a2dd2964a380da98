// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/observability"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

// Middleware contains middleware dependencies.
type Middleware struct {
	bridge *session.Bridge
	logger *logger.Logger
	config MiddlewareConfig
}

// MiddlewareConfig contains middleware configuration.
type MiddlewareConfig struct {
	// SecureCookies sets the Secure flag on the CSRF and flash cookies.
	SecureCookies bool
	// LoginRateLimit is the number of login posts allowed per IP and minute.
	LoginRateLimit int
}

// NewMiddleware creates a new Middleware instance.
func NewMiddleware(bridge *session.Bridge, cfg MiddlewareConfig, log *logger.Logger) *Middleware {
	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 5
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Middleware{bridge: bridge, logger: log.Named("web"), config: cfg}
}

// ============================================================================
// Request id and logging
// ============================================================================

// RequestID tags each request with an id, reusing a sane incoming header.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyRequestID, id)))
	})
}

// RequestLogger logs one line per request.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	base := m.logger.Base()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", RequestIDFromContext(r.Context())),
		}
		if traceID := observability.TraceIDFromContext(r.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		switch {
		case rw.status >= http.StatusInternalServerError:
			base.Error("request", fields...)
		case rw.status >= http.StatusBadRequest:
			base.Warn("request", fields...)
		default:
			base.Info("request", fields...)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// ============================================================================
// Session
// ============================================================================

// Session reads the token cookies into the request context. An expired
// access token is refreshed up front so the snapshot carries current
// claims; rotated cookies go out with the response.
func (m *Middleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens := m.bridge.Read(r)
		if !tokens.Empty() {
			if err := m.bridge.Ensure(r.Context(), w, tokens); err != nil && !stderrors.Is(err, session.ErrNoSession) {
				m.logger.Warn("token refresh failed", "path", r.URL.Path, "error", err)
			}
		}
		ctx := context.WithValue(r.Context(), ContextKeyTokens, tokens)
		ctx = context.WithValue(ctx, ContextKeySession, tokens.Snapshot())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthRequired sends anonymous visitors to the login page with the
// requested path in ?next=.
func (m *Middleware) AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).Authenticated {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectAuthenticated sends signed-in users away from the login page.
func (m *Middleware) RedirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && SessionFromContext(r.Context()).Authenticated {
			http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AreaGuard is the hard gate: a dashboard path inside an area the session
// may not view redirects to the access page naming the area.
func (m *Middleware) AreaGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		area, gated := access.AreaForDashboardPath(r.URL.Path)
		if gated && !SessionFromContext(r.Context()).HasAreaAccess(area) {
			m.logger.Debug("area denied", "path", r.URL.Path, "area", area)
			http.Redirect(w, r, AccessPath+"?denied="+url.QueryEscape(string(area)), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	dest := LoginPath
	if target != "/" && isSafeReturnURL(target) {
		dest += "?next=" + url.QueryEscape(target)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// ============================================================================
// CSRF and flash
// ============================================================================

// CSRF issues a per-browser token cookie and checks it on state-changing
// requests against the _csrf form field or the X-CSRF-Token header.
func (m *Middleware) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := ""
		if ck, err := r.Cookie(CookieCSRF); err == nil {
			if _, err := uuid.Parse(ck.Value); err == nil {
				expected = ck.Value
			}
		}

		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			if expected == "" {
				expected = uuid.NewString()
				http.SetCookie(w, m.cookie(CookieCSRF, expected, 0))
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyCSRFToken, expected)))
			return
		}

		// Logout only clears cookies and is accepted without a token.
		if r.URL.Path == LogoutPath {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyCSRFToken, expected)))
			return
		}

		token := r.Header.Get(HeaderCSRF)
		if token == "" {
			token = r.FormValue(ui.CSRFFormField)
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			m.logger.Warn("CSRF validation failed",
				"path", r.URL.Path,
				"method", r.Method,
				"received_empty", token == "",
			)
			http.Error(w, "CSRF validation failed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyCSRFToken, expected)))
	})
}

func (m *Middleware) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case value == "":
		ck.MaxAge = -1
	case maxAge > 0:
		ck.MaxAge = int(maxAge.Seconds())
	}
	return ck
}

// Flash moves a pending flash message from its cookie into the context.
func (m *Middleware) Flash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(CookieFlash)
		if err != nil || ck.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		http.SetCookie(w, m.cookie(CookieFlash, "", 0))
		flash := decodeFlash(ck.Value)
		if flash == nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyFlash, flash)))
	})
}

// SetFlash queues a message for the next page view.
func (m *Middleware) SetFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, m.cookie(CookieFlash, url.QueryEscape(kind+":"+message), time.Minute))
}

func decodeFlash(raw string) *ui.FlashData {
	text, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(text, ":")
	if !ok || message == "" {
		return nil
	}
	switch kind {
	case "success", "error", "warning", "info":
	default:
		kind = "info"
	}
	return &ui.FlashData{Type: kind, Message: message}
}

// ============================================================================
// Generic
// ============================================================================

// LoginRateLimit limits login posts per IP. Over the limit the browser is
// sent back to the login page with a message.
func (m *Middleware) LoginRateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(m.config.LoginRateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, LoginPath+"?error="+errCodeThrottled, http.StatusSeeOther)
		})),
	)
}

// MaxRequestBody limits the size of request bodies.
func MaxRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoCache middleware adds headers to prevent caching.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// SecureHeaders adds security headers to response. Pages carry no script;
// styles are inline.
func SecureHeaders(next http.Handler) http.Handler {
	const csp = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; " +
		"script-src 'none'; frame-ancestors 'none'; base-uri 'self'; " +
		"form-action 'self' https://accounts.google.com"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", csp)
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// RecoverPanic renders the error page instead of dropping the connection.
func RecoverPanic(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					h.logger.Error("panic recovered in handler",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
					)
					h.renderError(w, r, http.StatusInternalServerError, unexpectedError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
