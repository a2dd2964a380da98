// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package handlers provides the JSON route handlers: auth endpoints for
// script clients and the authenticated backend proxy.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	apierrors "github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/errors"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/validator"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
)

const maxAuthBody = 64 << 10

// AuthHandler serves /api/auth/*.
type AuthHandler struct {
	bridge *session.Bridge
	logger *logger.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(bridge *session.Bridge, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{bridge: bridge, logger: log.Named("auth")}
}

// decodeBody reads a small JSON object. Malformed bodies decode as empty so
// the handlers answer with their own missing-field message.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) {
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody)).Decode(v)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login/.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	decodeBody(w, r, &req)
	req.Username = strings.TrimSpace(req.Username)
	if err := validator.Validate(req); err != nil {
		apierrors.WriteDetail(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	if _, err := h.bridge.Login(r.Context(), w, req.Username, req.Password); err != nil {
		h.logger.Info("api login failed", "username", req.Username, "error", err)
		apierrors.WriteError(w, err, "Unable to login right now.")
		return
	}
	apierrors.OK(w)
}

type googleRequest struct {
	IDToken    string `json:"id_token" validate:"required_without=Credential"`
	Credential string `json:"credential"`
	UserType   string `json:"user_type"`
}

// Google handles POST /api/auth/google/. The ID token comes from Google
// Identity Services as id_token or credential.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	decodeBody(w, r, &req)
	req.IDToken = strings.TrimSpace(req.IDToken)
	req.Credential = strings.TrimSpace(req.Credential)
	if err := validator.Validate(req); err != nil {
		apierrors.WriteDetail(w, http.StatusBadRequest, "Google credential is required.")
		return
	}
	idToken := req.IDToken
	if idToken == "" {
		idToken = req.Credential
	}
	userType := strings.TrimSpace(req.UserType)
	if userType == "" {
		userType = backend.DefaultUserType
	}

	if _, err := h.bridge.LoginGoogle(r.Context(), w, idToken, userType); err != nil {
		h.logger.Info("api google login failed", "error", err)
		apierrors.WriteError(w, err, "Unable to authenticate with Google.")
		return
	}
	apierrors.OK(w)
}

// Logout handles POST /api/auth/logout/. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.bridge.Logout(w)
	apierrors.OK(w)
}

// Session handles GET /api/auth/session/: the decoded cookie snapshot.
// Nothing is verified or refreshed here.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteJSON(w, http.StatusOK, h.bridge.Read(r).Snapshot())
}
