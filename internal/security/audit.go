// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/verifier-tui/internal/telemetry"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

const (
	EventLoginSuccess           = "LOGIN_SUCCESS"
	EventLoginFailure           = "LOGIN_FAILURE"
	EventLogout                 = "LOGOUT"
	EventPasswordCreated        = "PASSWORD_CREATED"
	EventPasswordChanged        = "PASSWORD_CHANGED"
	EventPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	EventPasswordResetThrottled = "PASSWORD_RESET_THROTTLED"
	EventTwoFactorEnrolled      = "TWO_FACTOR_ENROLLED"
	EventAccountLocked          = "ACCOUNT_LOCKED"
	EventLoginBlocked           = "LOGIN_BLOCKED"
	EventSessionStart           = "SESSION_START"
	EventSessionWarning         = "SESSION_WARNING"
	EventSessionExtended        = "SESSION_EXTENDED"
	EventSessionExpired         = "SESSION_EXPIRED"
	EventSessionEnd             = "SESSION_END"
	EventIdentityTampered       = "IDENTITY_TAMPERED"
)

// =============================================================================
// AUDIT EVENT
// =============================================================================

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time
	EventType string
	SessionID string
	// User is the username, or its MaskIdentifier form for failed attempts.
	User     string
	Success  bool
	Error    string
	Metadata map[string]string
}

func (e AuditEvent) fields() []zap.Field {
	fields := []zap.Field{
		zap.Time("event_time", e.Timestamp),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
	}
	if e.SessionID != "" {
		fields = append(fields, zap.String("session_id", e.SessionID))
	}
	if e.User != "" {
		fields = append(fields, zap.String("user", e.User))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields = append(fields, zap.Object("metadata", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
			for _, k := range keys {
				enc.AddString(k, e.Metadata[k])
			}
			return nil
		})))
	}
	return fields
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

// AuditLogger writes security events as JSON lines. A nil *AuditLogger is
// valid and discards everything.
type AuditLogger struct {
	logger  *zap.Logger
	file    *os.File
	path    string
	enabled bool
	now     func() time.Time
	mu      sync.Mutex
}

// NewAuditLogger opens (appending) the audit log at path with 0600
// permissions.
func NewAuditLogger(path string) (*AuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(telemetry.EncoderConfig()), zapcore.AddSync(f), zapcore.InfoLevel)

	l := NewAuditLoggerWithCore(core)
	l.file = f
	l.path = path
	return l, nil
}

// NewAuditLoggerWithCore builds a logger on an existing zap core.
func NewAuditLoggerWithCore(core zapcore.Core) *AuditLogger {
	return &AuditLogger{
		logger:  zap.New(core).Named("audit"),
		enabled: true,
		now:     time.Now,
	}
}

// Log writes one event. Events without a timestamp are stamped now.
func (l *AuditLogger) Log(event AuditEvent) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	if event.Success {
		l.logger.Info(event.EventType, event.fields()...)
	} else {
		l.logger.Warn(event.EventType, event.fields()...)
	}
	return nil
}

// LogEvent is a convenience wrapper around Log.
func (l *AuditLogger) LogEvent(eventType, sessionID, user string, success bool, metadata map[string]string) {
	if err := l.Log(AuditEvent{
		EventType: eventType,
		SessionID: sessionID,
		User:      user,
		Success:   success,
		Metadata:  metadata,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "AUDIT ERROR: failed to log %s: %v\n", eventType, err)
	}
}

// SetEnabled turns the audit trail on or off.
func (l *AuditLogger) SetEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled reports whether events are written.
func (l *AuditLogger) IsEnabled() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Path returns the log file path, empty for core-backed loggers.
func (l *AuditLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close flushes and closes the log file.
func (l *AuditLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.logger.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// MaskIdentifier reduces a username to a stable, non-reversible tag for
// logs about failed or blocked attempts.
func MaskIdentifier(id string) string {
	hash := sha256.Sum256([]byte(id))
	return "hash:" + hex.EncodeToString(hash[:])[:12]
}

// shortSessionID truncates a session ID for log correlation.
func shortSessionID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:4] + "..." + id[len(id)-4:]
}
