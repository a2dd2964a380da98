// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
)

// Google sign-in errors.
var (
	ErrGoogleDisabled = errors.New("google sign-in is not configured")
	ErrInvalidState   = errors.New("invalid oauth state")
	ErrNoIDToken      = errors.New("no id_token in google response")
)

// GoogleIssuer is Google's OIDC issuer.
const GoogleIssuer = "https://accounts.google.com"

const stateCookie = "erp_oauth_state"

// GoogleConfig configures the server-side Google code flow.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
}

// GoogleSignIn runs the OAuth code flow and hands back a verified ID token,
// which the backend then exchanges for ERP tokens.
type GoogleSignIn struct {
	cfg     GoogleConfig
	cookies CookieConfig
	logger  *logger.Logger

	mu        sync.Mutex
	oauth2Cfg *oauth2.Config
	verifier  *oidc.IDTokenVerifier
}

// NewGoogleSignIn creates the flow. Discovery runs on first use.
func NewGoogleSignIn(cfg GoogleConfig, cookies CookieConfig, log *logger.Logger) *GoogleSignIn {
	if cfg.IssuerURL == "" {
		cfg.IssuerURL = GoogleIssuer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GoogleSignIn{cfg: cfg, cookies: cookies.WithDefaults(), logger: log.Named("oidc.google")}
}

// Enabled reports whether the code flow is fully configured.
func (g *GoogleSignIn) Enabled() bool {
	return g != nil && g.cfg.ClientID != "" && g.cfg.ClientSecret != "" && g.cfg.RedirectURL != ""
}

func (g *GoogleSignIn) init(ctx context.Context) error {
	if !g.Enabled() {
		return ErrGoogleDisabled
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.oauth2Cfg != nil {
		return nil
	}

	provider, err := oidc.NewProvider(ctx, g.cfg.IssuerURL)
	if err != nil {
		return fmt.Errorf("OIDC discovery failed: %w", err)
	}
	g.oauth2Cfg = &oauth2.Config{
		ClientID:     g.cfg.ClientID,
		ClientSecret: g.cfg.ClientSecret,
		RedirectURL:  g.cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		Endpoint:     provider.Endpoint(),
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	return nil
}

// Begin stores a fresh state cookie and returns the Google consent URL.
func (g *GoogleSignIn) Begin(ctx context.Context, w http.ResponseWriter) (string, error) {
	if err := g.init(ctx); err != nil {
		return "", err
	}
	state := uuid.NewString()
	http.SetCookie(w, g.cookies.cookie(stateCookie, state, 10*time.Minute))
	return g.oauth2Cfg.AuthCodeURL(state), nil
}

// Complete checks the state, exchanges the code and verifies the ID token.
// It returns the raw ID token.
func (g *GoogleSignIn) Complete(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	if err := g.init(ctx); err != nil {
		return "", err
	}

	ck, err := r.Cookie(stateCookie)
	http.SetCookie(w, g.cookies.cookie(stateCookie, "", 0))
	state := r.URL.Query().Get("state")
	if err != nil || ck.Value == "" || subtle.ConstantTimeCompare([]byte(ck.Value), []byte(state)) != 1 {
		return "", ErrInvalidState
	}

	token, err := g.oauth2Cfg.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		g.logger.Error("token exchange failed", "error", err)
		return "", fmt.Errorf("google token exchange: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", ErrNoIDToken
	}
	if _, err := g.verifier.Verify(ctx, rawIDToken); err != nil {
		return "", fmt.Errorf("verify id_token: %w", err)
	}
	return rawIDToken, nil
}
