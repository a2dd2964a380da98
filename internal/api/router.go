// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/errors"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/handlers"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/middleware"
)

// RouterConfig contains configuration for setting up routes.
type RouterConfig struct {
	// CORSConfig applies to /api/*.
	CORSConfig middleware.CORSConfig

	// LoginRateLimit is the number of login attempts per minute and IP.
	LoginRateLimit int

	// RequestTimeout bounds the auth endpoints. The proxy is bounded by the
	// backend client timeout instead, so downloads can stream.
	RequestTimeout time.Duration

	// Global middleware, outermost first: request ids, logging, tracing.
	Global []func(http.Handler) http.Handler

	Version string
	Started time.Time
}

// DefaultRouterConfig returns a default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSConfig:     middleware.DefaultCORSConfig(nil),
		LoginRateLimit: 5,
		RequestTimeout: 30 * time.Second,
		Started:        time.Now(),
	}
}

// Handlers contains the JSON handlers. Nil handlers leave their routes
// unmounted.
type Handlers struct {
	Auth  *handlers.AuthHandler
	Proxy *handlers.ProxyHandler
}

// NewRouter creates the root router with the JSON routes. Page routes are
// added to the returned router by the caller.
func NewRouter(config RouterConfig, h *Handlers) chi.Router {
	r := chi.NewRouter()
	for _, mw := range config.Global {
		r.Use(mw)
	}

	r.Get("/healthz", handlers.Health(config.Version, config.Started))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(config.CORSConfig))

		if h.Auth != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Use(chimiddleware.StripSlashes)
				r.Use(chimiddleware.Timeout(config.RequestTimeout))

				r.With(middleware.AuthRateLimit(config.LoginRateLimit)).Post("/login", h.Auth.Login)
				r.With(middleware.AuthRateLimit(config.LoginRateLimit)).Post("/google", h.Auth.Google)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/session", h.Auth.Session)
			})
		}
		if h.Proxy != nil {
			r.Handle("/backend/*", h.Proxy)
		}

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			apierrors.WriteDetail(w, http.StatusNotFound, "Not found.")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			apierrors.WriteDetail(w, http.StatusMethodNotAllowed, "Method not allowed.")
		})
	})

	return r
}
