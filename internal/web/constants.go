// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

// Paths the middleware redirects to.
const (
	LoginPath     = "/login"
	LogoutPath    = "/logout"
	DashboardPath = "/dashboard"
	AccessPath    = "/dashboard/access"
)

// Cookie names owned by the web layer. Token cookies belong to the session
// package.
const (
	CookieCSRF      = "erp_csrf"
	CookieFlash     = "erp_flash"
	CookieLoginNext = "erp_login_next"
)

// Headers.
const (
	HeaderCSRF      = "X-CSRF-Token"
	HeaderRequestID = "X-Request-ID"
)
