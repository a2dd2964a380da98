// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package errors writes JSON error responses in the backend's envelope:
// {"detail": "..."}. Clients of the JSON routes can treat errors from this
// service and from the backend alike.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	pkgerrors "github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
)

// Detail is the error envelope.
type Detail struct {
	Detail string `json:"detail"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteDetail writes {"detail": message}.
func WriteDetail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Detail{Detail: message})
}

// WriteRaw relays a backend body unchanged. Empty bodies become a detail
// with the fallback message.
func WriteRaw(w http.ResponseWriter, status int, body []byte) {
	if len(body) == 0 {
		WriteDetail(w, status, http.StatusText(status))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteBackendError relays a backend failure verbatim when err carries one.
// It reports false when err is not a backend response.
func WriteBackendError(w http.ResponseWriter, err error) bool {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	WriteRaw(w, apiErr.Status, apiErr.Body)
	return true
}

// WriteError relays backend failures and reports client errors and bad
// upstream answers with their own message. Anything else is a 500 with
// fallback as the detail.
func WriteError(w http.ResponseWriter, err error, fallback string) {
	if WriteBackendError(w, err) {
		return
	}
	if ae, ok := pkgerrors.GetAppError(err); ok {
		status := pkgerrors.HTTPStatusCode(err)
		if status < http.StatusInternalServerError || status == http.StatusBadGateway {
			WriteDetail(w, status, ae.Message)
			return
		}
	}
	WriteDetail(w, http.StatusInternalServerError, fallback)
}

// OK is the {"ok": true} acknowledgement.
func OK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
