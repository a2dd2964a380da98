// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput("debug", "json", &buf)
	if err != nil {
		t.Fatalf("NewWithOutput: %v", err)
	}

	log.Named("web").Info("login ok", "username", "alice")
	_ = log.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "login ok" {
		t.Errorf("msg = %v, want %q", entry["msg"], "login ok")
	}
	if entry["logger"] != "web" {
		t.Errorf("logger = %v, want %q", entry["logger"], "web")
	}
	if entry["username"] != "alice" {
		t.Errorf("username = %v, want %q", entry["username"], "alice")
	}
}

func TestLogger_RedactsSensitivePairs(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithOutput("info", "json", &buf)

	log.Info("token refreshed", "refresh", "eyJhbGciOi.secret.part", "user_id", 7)
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "eyJhbGciOi") {
		t.Errorf("refresh token leaked into log output: %s", out)
	}
	if !strings.Contains(out, redactedValue) {
		t.Errorf("expected %q in output: %s", redactedValue, out)
	}
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithOutput("loud", "json", &buf)

	if got := log.Level(); got != "info" {
		t.Errorf("Level() = %q, want %q", got, "info")
	}
	log.Debug("hidden")
	_ = log.Sync()
	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %s", buf.String())
	}
}

func TestSanitizeField(t *testing.T) {
	for _, key := range []string{"Password", "Cookie", "id_token"} {
		if got := SanitizeField(key, "x"); got != redactedValue {
			t.Errorf("SanitizeField(%q) = %v, want redacted", key, got)
		}
	}
	if got := SanitizeField("username", "bob"); got != "bob" {
		t.Errorf("SanitizeField(username) = %v, want bob", got)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("ignored", "k", "v")
	if err := log.Sync(); err != nil {
		t.Errorf("Sync() on Nop logger: %v", err)
	}
}

func TestComponentLevels(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithOutput("debug", "json", &buf)
	cl := NewComponentLevels(map[string]string{"Cache": "warn"})

	cl.Leveled(log.Named("cache"), "cache").Info("hit")
	cl.Leveled(log.Named("cache"), "cache").Warn("redis down")
	cl.Leveled(log.Named("backend"), "backend").Debug("GET /v1/projects/")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, `"hit"`) {
		t.Errorf("info entry passed the warn override: %s", out)
	}
	for _, want := range []string{"redis down", "GET /v1/projects/"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
