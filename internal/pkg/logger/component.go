// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ============================================================================
// Per-component levels
// ============================================================================

// ComponentLevels quiets individual components below the global level.
//
//	logging:
//	  level: debug
//	  levels:
//	    backend: info
//	    cache: warn
//
// An override lower than the global level has no effect; the root core
// already drops those entries.
type ComponentLevels struct {
	levels map[string]zapcore.Level
}

// NewComponentLevels parses the overrides. Unknown level names mean info.
func NewComponentLevels(overrides map[string]string) *ComponentLevels {
	cl := &ComponentLevels{levels: make(map[string]zapcore.Level, len(overrides))}
	for component, level := range overrides {
		cl.levels[strings.ToLower(component)] = parseLevel(level)
	}
	return cl
}

// Leveled applies the component's override. The logger is not renamed;
// constructors call Named themselves.
func (cl *ComponentLevels) Leveled(parent *Logger, component string) *Logger {
	if cl == nil {
		return parent
	}
	lvl, ok := cl.levels[strings.ToLower(component)]
	if !ok {
		return parent
	}
	base := parent.base.WithOptions(zap.IncreaseLevel(lvl))
	return &Logger{SugaredLogger: base.Sugar(), base: base, level: parent.level}
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	}
	return zap.InfoLevel
}
