// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package backend

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// fallbackMessage is shown when the backend body has no usable message.
const fallbackMessage = "Request failed"

// APIError is a non-2xx backend response, kept verbatim.
type APIError struct {
	Status      int
	Message     string
	Body        []byte
	Payload     map[string]any
	FieldErrors map[string][]string
}

// NewAPIError parses a backend error body. The message is "detail", then the
// first "non_field_errors" entry, then a generic fallback; remaining keys with
// string or string-list values become field errors.
func NewAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body, Message: fallbackMessage}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	e.Payload = payload

	if d, ok := payload["detail"].(string); ok && d != "" {
		e.Message = d
	} else if nfe := stringList(payload["non_field_errors"]); len(nfe) > 0 {
		e.Message = nfe[0]
	}

	for k, v := range payload {
		if k == "detail" || k == "non_field_errors" || k == "code" {
			continue
		}
		if msgs := stringList(v); len(msgs) > 0 {
			if e.FieldErrors == nil {
				e.FieldErrors = map[string][]string{}
			}
			e.FieldErrors[k] = msgs
		}
	}
	return e
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// Summary joins the message and field errors into one banner line.
func (e *APIError) Summary() string {
	if len(e.FieldErrors) == 0 || e.Message != fallbackMessage {
		return e.Message
	}
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.FieldErrors[k], " "))
	}
	return strings.Join(parts, " | ")
}

// IsUnauthorized reports whether the backend rejected the credentials.
func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsUnauthorized()
}
