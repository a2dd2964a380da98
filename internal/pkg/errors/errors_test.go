// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

// ============================================================================
// AppError basics
// ============================================================================

func TestAppError_Error_WithWrapped(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")
	ae := Wrap(inner, CodeInternal, "backend call failed")

	got := ae.Error()
	for _, want := range []string{CodeInternal, "backend call failed", "connection refused"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("original")
	if Wrap(inner, CodeInternal, "wrapped").Unwrap() != inner {
		t.Error("Unwrap() did not return the wrapped error")
	}
	if New(CodeInternal, "bare").Unwrap() != nil {
		t.Error("Unwrap() should return nil without a wrapped error")
	}
}

// ============================================================================
// Constructors
// ============================================================================

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"New", New(CodeBadRequest, "bad"), CodeBadRequest, http.StatusInternalServerError},
		{"NewWithStatus", NewWithStatus(CodeNotFound, "x", http.StatusNotFound), CodeNotFound, http.StatusNotFound},
		{"NotFound", NotFound("guide"), CodeNotFound, http.StatusNotFound},
		{"Forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"Upstream", Upstream("missing tokens"), CodeUpstream, http.StatusBadGateway},
		{"Unavailable", Unavailable(fmt.Errorf("timeout")), CodeServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	ae := Newf(CodeBadRequest, "field %s is %s", "amount", "invalid")
	if ae.Message != "field amount is invalid" {
		t.Errorf("Message = %q", ae.Message)
	}
}

// ============================================================================
// GetAppError / HTTPStatusCode
// ============================================================================

func TestGetAppError_FromWrapped(t *testing.T) {
	wrapped := fmt.Errorf("layer: %w", NotFound("page"))

	got, ok := GetAppError(wrapped)
	if !ok {
		t.Fatal("GetAppError() should find AppError in chain")
	}
	if got.Code != CodeNotFound {
		t.Errorf("Code = %q, want %q", got.Code, CodeNotFound)
	}
	if _, ok := GetAppError(fmt.Errorf("plain")); ok {
		t.Error("GetAppError() should return false for plain error")
	}
}

func TestHTTPStatusCode_FromSentinelErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrUpstream, http.StatusBadGateway},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("wrap: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestUnavailable_IsSentinel(t *testing.T) {
	err := Unavailable(fmt.Errorf("dial"))
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Error("Unavailable() should match ErrServiceUnavailable")
	}
}
