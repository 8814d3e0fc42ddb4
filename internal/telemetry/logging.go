// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/verifier-tui/internal/config"
)

// EncoderConfig is the JSON layout shared by the application log and the
// audit trail.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "ts",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// ParseLevel maps a config level to a zap level. The second result is false
// for "off".
func ParseLevel(name string) (zapcore.Level, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "off" {
		return zapcore.InfoLevel, false
	}
	level := zapcore.InfoLevel
	if err := level.Set(name); err != nil {
		return zapcore.InfoLevel, true
	}
	return level, true
}

// NewLogger builds the application logger writing JSON lines to cfg.Path.
// The returned func flushes and closes the file.
func NewLogger(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level, enabled := ParseLevel(cfg.Level)
	if !enabled || cfg.Path == "" {
		return zap.NewNop(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(EncoderConfig()),
		zapcore.AddSync(f),
		zap.NewAtomicLevelAt(level),
	)
	logger := zap.New(core, zap.AddCaller()).Named("verifier")

	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}
