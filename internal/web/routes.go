// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds form posts and spreadsheet uploads.
const maxBodyBytes = 10 << 20

// RegisterRoutes registers the page routes. Request IDs, access logging
// and tracing are expected on the parent router.
func RegisterRoutes(r chi.Router, h *Handler, m *Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(RecoverPanic(h))
		r.Use(SecureHeaders)
		r.Use(NoCache)
		r.Use(MaxRequestBody(maxBodyBytes))
		r.Use(m.Session)
		r.Use(m.CSRF)
		r.Use(m.Flash)

		// Public routes (no auth required)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, DashboardPath, http.StatusFound)
		})
		r.With(m.RedirectAuthenticated).Get(LoginPath, h.LoginPage)
		r.With(m.LoginRateLimit()).Post(LoginPath, h.LoginSubmit)
		r.Get(LoginPath+"/google", h.GoogleBegin)
		r.Get(LoginPath+"/google/callback", h.GoogleCallback)
		r.Get(LogoutPath, h.Logout)
		r.Post(LogoutPath, h.Logout)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(m.AuthRequired)
			r.Use(m.AreaGuard)

			r.Get(DashboardPath, h.Dashboard)
			r.Get(AccessPath, h.Access)

			r.Get(guidesPath, h.Guides)
			r.Get(guidesPath+"/{topic}", h.GuideTopic)

			r.Route(DashboardPath+"/{area}", func(r chi.Router) {
				r.Get("/", h.AreaIndex)
				r.Route("/{page}", func(r chi.Router) {
					r.Get("/", h.List)
					r.Get("/new", h.NewForm)
					r.Post("/new", h.CreateSubmit)
					r.Post("/import", h.Import)
					r.Get("/{id}/edit", h.EditForm)
					r.Post("/{id}/edit", h.EditSubmit)
					r.Get("/{id}/delete", h.DeleteConfirm)
					r.Post("/{id}/delete", h.DeleteSubmit)
					r.Get("/{id}/actions/{action}", h.ActionConfirm)
					r.Post("/{id}/actions/{action}", h.ActionSubmit)
				})
			})

			r.Get(paymentsPath, h.PaymentForm)
			r.Post(paymentsPath, h.PaymentSubmit)
			r.Get(payPath, h.Pay)
		})

		r.NotFound(h.NotFound)
	})
}
