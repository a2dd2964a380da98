// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
)

// Token endpoints.
const (
	TokenPath        = "/auth/token/"
	TokenRefreshPath = "/auth/token/refresh/"
	GoogleTokenPath  = "/auth/google/"
)

// DefaultUserType is sent with Google sign-in when the caller gives none.
const DefaultUserType = "employee"

// TokenPair is the {access, refresh} body returned by the token endpoints.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Complete reports whether both tokens are present.
func (p *TokenPair) Complete() bool {
	return p != nil && p.Access != "" && p.Refresh != ""
}

// ErrIncompleteTokens marks a 2xx token response without both tokens.
var ErrIncompleteTokens = errors.Upstream("Invalid token response from backend.")

func (c *Client) obtain(ctx context.Context, path string, body any) (*TokenPair, error) {
	var pair TokenPair
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, "", &pair); err != nil {
		return nil, err
	}
	if !pair.Complete() {
		return nil, ErrIncompleteTokens
	}
	return &pair, nil
}

// ObtainToken exchanges a username and password for a token pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (*TokenPair, error) {
	return c.obtain(ctx, TokenPath, map[string]string{
		"username": username,
		"password": password,
	})
}

// GoogleToken exchanges a Google ID token for a token pair.
func (c *Client) GoogleToken(ctx context.Context, idToken, userType string) (*TokenPair, error) {
	if userType == "" {
		userType = DefaultUserType
	}
	return c.obtain(ctx, GoogleTokenPath, map[string]string{
		"id_token":  idToken,
		"user_type": userType,
	})
}

// RefreshToken rotates the access token. When the backend omits a new
// refresh token the old one is kept.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.doJSON(ctx, http.MethodPost, TokenRefreshPath, nil, map[string]string{"refresh": refresh}, "", &pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, ErrIncompleteTokens
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return &pair, nil
}

// ============================================================================
// Raw forwarding
// ============================================================================

// ForwardRequest is an opaque request relayed to the backend.
type ForwardRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        []byte
	Token       string
}

// Forward relays req to {base}/api/{path}/ and returns the backend response
// unread. The caller closes the body.
func (c *Client) Forward(ctx context.Context, req ForwardRequest) (*http.Response, error) {
	path := "/" + strings.Trim(req.Path, "/") + "/"
	target := c.URL(path, nil)
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var body io.Reader
	if len(req.Body) > 0 && req.Method != http.MethodGet && req.Method != http.MethodHead {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBadRequest, "invalid forward request")
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("backend forward failed", "method", req.Method, "path", path, "error", err)
		return nil, errors.Unavailable(err)
	}
	return resp, nil
}
