// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package session

import (
	"net/http"
	"time"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
)

// Cookie defaults.
const (
	DefaultAccessCookie  = "erp_access_token"
	DefaultRefreshCookie = "erp_refresh_token"
	DefaultAccessMaxAge  = 30 * time.Minute
	DefaultRefreshMaxAge = 24 * time.Hour
)

// CookieConfig holds token cookie settings wired from app config.
type CookieConfig struct {
	AccessName    string
	RefreshName   string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	Secure        bool          // Force Secure flag (production)
	SameSite      http.SameSite // default Lax
	Domain        string        // empty = browser default
}

// WithDefaults fills unset fields.
func (c CookieConfig) WithDefaults() CookieConfig {
	if c.AccessName == "" {
		c.AccessName = DefaultAccessCookie
	}
	if c.RefreshName == "" {
		c.RefreshName = DefaultRefreshCookie
	}
	if c.AccessMaxAge == 0 {
		c.AccessMaxAge = DefaultAccessMaxAge
	}
	if c.RefreshMaxAge == 0 {
		c.RefreshMaxAge = DefaultRefreshMaxAge
	}
	if c.SameSite == 0 {
		c.SameSite = http.SameSiteLaxMode
	}
	return c
}

func (c CookieConfig) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
		MaxAge:   int(maxAge.Seconds()),
	}
	if value == "" {
		ck.MaxAge = -1
	}
	return ck
}

// SetTokens writes both token cookies.
func (c CookieConfig) SetTokens(w http.ResponseWriter, pair *backend.TokenPair) {
	http.SetCookie(w, c.cookie(c.AccessName, pair.Access, c.AccessMaxAge))
	http.SetCookie(w, c.cookie(c.RefreshName, pair.Refresh, c.RefreshMaxAge))
}

// Clear expires both token cookies. The two are never cleared independently.
func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(c.AccessName, "", 0))
	http.SetCookie(w, c.cookie(c.RefreshName, "", 0))
}

// Read returns the token cookie values; missing cookies read as "".
func (c CookieConfig) Read(r *http.Request) Tokens {
	var t Tokens
	if ck, err := r.Cookie(c.AccessName); err == nil {
		t.Access = ck.Value
	}
	if ck, err := r.Cookie(c.RefreshName); err == nil {
		t.Refresh = ck.Value
	}
	return t
}

// Tokens are the request's current token values. Handlers share one
// *Tokens per request so a refresh is visible to later backend calls.
type Tokens struct {
	Access  string
	Refresh string
}

// Empty reports whether neither token is present.
func (t *Tokens) Empty() bool {
	return t == nil || (t.Access == "" && t.Refresh == "")
}

// Snapshot derives the session snapshot from the tokens.
func (t *Tokens) Snapshot() Snapshot {
	if t == nil {
		return FromTokens("", "")
	}
	return FromTokens(t.Access, t.Refresh)
}
