// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"context"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	ContextKeyTokens    ContextKey = "tokens"
	ContextKeySession   ContextKey = "session"
	ContextKeyCSRFToken ContextKey = "csrf_token"
	ContextKeyFlash     ContextKey = "flash"
	ContextKeyRequestID ContextKey = "request_id"
)

// TokensFromContext returns the request's shared token holder. It is never
// nil; a request that skipped the session middleware gets an empty one.
func TokensFromContext(ctx context.Context) *session.Tokens {
	if t, ok := ctx.Value(ContextKeyTokens).(*session.Tokens); ok && t != nil {
		return t
	}
	return &session.Tokens{}
}

// SessionFromContext returns the session snapshot, unauthenticated when
// absent.
func SessionFromContext(ctx context.Context) session.Snapshot {
	if s, ok := ctx.Value(ContextKeySession).(session.Snapshot); ok {
		return s
	}
	return session.FromTokens("", "")
}

// CSRFTokenFromContext extracts the CSRF token.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyCSRFToken).(string)
	return token
}

// FlashFromContext returns the flash message read for this request.
func FlashFromContext(ctx context.Context) *ui.FlashData {
	flash, _ := ctx.Value(ContextKeyFlash).(*ui.FlashData)
	return flash
}

// RequestIDFromContext extracts the request id.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
