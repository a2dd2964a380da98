// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/errors"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
)

// Forwarder relays raw requests to the backend.
type Forwarder interface {
	Forward(ctx context.Context, req backend.ForwardRequest) (*http.Response, error)
}

// passthroughHeaders are copied from the backend response.
var passthroughHeaders = []string{"Content-Type", "Content-Disposition"}

// ProxyHandler serves /api/backend/*: the request is sent on with the
// session's bearer token, refreshing once on a 401.
type ProxyHandler struct {
	client  Forwarder
	bridge  *session.Bridge
	maxBody int64
	logger  *logger.Logger
}

// NewProxyHandler creates the proxy handler.
func NewProxyHandler(client Forwarder, bridge *session.Bridge, maxBody int64, log *logger.Logger) *ProxyHandler {
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProxyHandler{client: client, bridge: bridge, maxBody: maxBody, logger: log.Named("proxy")}
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// ServeHTTP relays the request.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokens := h.bridge.Read(r)

	var body []byte
	if hasBody(r.Method) {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
		if err != nil {
			apierrors.WriteDetail(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
	}
	fwd := backend.ForwardRequest{
		Method:      r.Method,
		Path:        chi.URLParam(r, "*"),
		RawQuery:    r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	}

	// A final 401 is relayed with the backend's own body.
	var resp *http.Response
	var rejectedBody []byte
	err := h.bridge.Call(ctx, w, tokens, func(token string) error {
		fwd.Token = token
		res, err := h.client.Forward(ctx, fwd)
		if err != nil {
			return err
		}
		if res.StatusCode == http.StatusUnauthorized {
			rejectedBody, _ = io.ReadAll(res.Body)
			res.Body.Close()
			return &backend.APIError{Status: http.StatusUnauthorized, Body: rejectedBody}
		}
		resp = res
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, session.ErrNoSession):
		apierrors.WriteDetail(w, http.StatusUnauthorized, session.ErrNoSession.Message)
		return
	case backend.IsUnauthorized(err):
		apierrors.WriteRaw(w, http.StatusUnauthorized, rejectedBody)
		return
	default:
		h.logger.Warn("proxy request failed", "method", r.Method, "path", fwd.Path, "error", err)
		apierrors.WriteError(w, err, "Unable to reach the backend.")
		return
	}
	defer resp.Body.Close()

	for _, name := range passthroughHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Debug("proxy copy interrupted", "path", fwd.Path, "error", err)
	}
}
