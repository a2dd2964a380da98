// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package session

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
)

// ErrNoSession is returned when no usable access token can be obtained.
var ErrNoSession = errors.NewWithStatus(errors.CodeUnauthorized,
	"يجب تسجيل الدخول. سجّل الدخول من صفحة تسجيل الدخول ثم أعد المحاولة.",
	http.StatusUnauthorized)

// TokenClient is the part of the backend client the bridge needs.
type TokenClient interface {
	ObtainToken(ctx context.Context, username, password string) (*backend.TokenPair, error)
	GoogleToken(ctx context.Context, idToken, userType string) (*backend.TokenPair, error)
	RefreshToken(ctx context.Context, refresh string) (*backend.TokenPair, error)
}

// Bridge moves tokens between the backend and the browser cookies.
type Bridge struct {
	client  TokenClient
	cookies CookieConfig
	logger  *logger.Logger
	now     func() time.Time
}

// NewBridge creates a cookie bridge.
func NewBridge(client TokenClient, cookies CookieConfig, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{
		client:  client,
		cookies: cookies.WithDefaults(),
		logger:  log.Named("session"),
		now:     time.Now,
	}
}

// Cookies returns the cookie settings in effect.
func (b *Bridge) Cookies() CookieConfig {
	return b.cookies
}

// Read returns the request's tokens.
func (b *Bridge) Read(r *http.Request) *Tokens {
	t := b.cookies.Read(r)
	return &t
}

// Login exchanges a username and password. On success both cookies are set;
// on any failure both are cleared and the backend error is returned as is.
func (b *Bridge) Login(ctx context.Context, w http.ResponseWriter, username, password string) (*backend.TokenPair, error) {
	pair, err := b.client.ObtainToken(ctx, username, password)
	return b.finishLogin(w, pair, err, "password")
}

// LoginGoogle exchanges a Google ID token.
func (b *Bridge) LoginGoogle(ctx context.Context, w http.ResponseWriter, idToken, userType string) (*backend.TokenPair, error) {
	pair, err := b.client.GoogleToken(ctx, idToken, userType)
	return b.finishLogin(w, pair, err, "google")
}

func (b *Bridge) finishLogin(w http.ResponseWriter, pair *backend.TokenPair, err error, method string) (*backend.TokenPair, error) {
	if err != nil {
		b.cookies.Clear(w)
		b.logger.Info("login failed", "method", method, "error", err)
		return nil, err
	}
	b.cookies.SetTokens(w, pair)
	b.logger.Debug("login succeeded", "method", method)
	return pair, nil
}

// Logout clears both cookies. It never fails.
func (b *Bridge) Logout(w http.ResponseWriter) {
	b.cookies.Clear(w)
}

// Ensure makes t.Access usable, refreshing when it is missing or expired.
// Rotated tokens are written to w and t. ErrNoSession means the user must
// sign in again.
func (b *Bridge) Ensure(ctx context.Context, w http.ResponseWriter, t *Tokens) error {
	if t.Access != "" && !IsExpired(t.Access, b.now()) {
		return nil
	}
	return b.refresh(ctx, w, t)
}

func (b *Bridge) refresh(ctx context.Context, w http.ResponseWriter, t *Tokens) error {
	if t.Refresh == "" {
		// An unusable access cookie with nothing to refresh it is dropped so
		// the snapshot reads as signed out.
		if t.Access != "" {
			b.cookies.Clear(w)
			*t = Tokens{}
		}
		return ErrNoSession
	}
	pair, err := b.client.RefreshToken(ctx, t.Refresh)
	if err != nil {
		if _, rejected := backend.AsAPIError(err); rejected {
			b.cookies.Clear(w)
			*t = Tokens{}
			return ErrNoSession
		}
		return err
	}
	if pair.Refresh == "" {
		pair.Refresh = t.Refresh
	}
	b.cookies.SetTokens(w, pair)
	t.Access, t.Refresh = pair.Access, pair.Refresh
	return nil
}

// Call runs fn with a usable access token. A backend 401 triggers one
// refresh and retry; a second 401 clears the cookies.
func (b *Bridge) Call(ctx context.Context, w http.ResponseWriter, t *Tokens, fn func(token string) error) error {
	if err := b.Ensure(ctx, w, t); err != nil {
		return err
	}

	err := fn(t.Access)
	if !backend.IsUnauthorized(err) || t.Refresh == "" {
		return err
	}

	if rerr := b.refresh(ctx, w, t); rerr != nil {
		if stderrors.Is(rerr, ErrNoSession) {
			return err
		}
		return rerr
	}
	err = fn(t.Access)
	if backend.IsUnauthorized(err) {
		b.cookies.Clear(w)
		*t = Tokens{}
	}
	return err
}
