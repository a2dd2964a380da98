// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package logger

import (
	"strings"
)

// sensitiveKeys are field names whose values never reach log output.
// Matched case-insensitively.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"access":        true,
	"refresh":       true,
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
	"credential":    true,
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"client_secret": true,
	"csrf_token":    true,
}

const redactedValue = "[REDACTED]"

// IsSensitiveKey reports whether key names a value that must be redacted.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// SanitizeField returns value, or the redaction marker when key is sensitive.
func SanitizeField(key string, value interface{}) interface{} {
	if IsSensitiveKey(key) {
		return redactedValue
	}
	return value
}

// sanitizePairs redacts the value following any sensitive string key in a
// zap-style key/value list.
func sanitizePairs(kv []interface{}) []interface{} {
	if len(kv) < 2 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		if key, ok := out[i].(string); ok {
			out[i+1] = SanitizeField(key, out[i+1])
		}
	}
	return out
}
