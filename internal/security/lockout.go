// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/verifier-tui/internal/clock"
)

const (
	// DefaultMaxAttempts is the number of consecutive failures that lock an
	// account.
	DefaultMaxAttempts = 5

	// DefaultLockoutDuration is how long a lock lasts.
	DefaultLockoutDuration = 15 * time.Minute
)

// ErrLocked is returned while an identifier is locked out.
var ErrLocked = errors.New("account locked: too many failed attempts")

// AttemptRecord tracks consecutive failures for one identifier.
type AttemptRecord struct {
	Count        int
	FirstFailure time.Time
	LastAttempt  time.Time
	LockedUntil  time.Time
	LockoutCount int
}

// lockedAt reports whether the record is locked at now.
func (a *AttemptRecord) lockedAt(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// LockoutManager counts failed logins per identifier and locks an
// identifier after too many consecutive failures. State is in memory.
type LockoutManager struct {
	attempts        map[string]*AttemptRecord
	maxAttempts     int
	lockoutDuration time.Duration
	clock           clock.Clock
	audit           *AuditLogger
	mu              sync.Mutex
}

// LockoutManagerOption is a functional option for configuring LockoutManager.
type LockoutManagerOption func(*LockoutManager)

// WithMaxAttempts sets the number of failures before lockout.
func WithMaxAttempts(max int) LockoutManagerOption {
	return func(l *LockoutManager) {
		if max > 0 {
			l.maxAttempts = max
		}
	}
}

// WithLockoutDuration sets the lockout duration.
func WithLockoutDuration(d time.Duration) LockoutManagerOption {
	return func(l *LockoutManager) {
		if d > 0 {
			l.lockoutDuration = d
		}
	}
}

// WithLockoutClock sets the time source.
func WithLockoutClock(c clock.Clock) LockoutManagerOption {
	return func(l *LockoutManager) {
		l.clock = c
	}
}

// WithLockoutAudit sets the audit logger for lockout events.
func WithLockoutAudit(a *AuditLogger) LockoutManagerOption {
	return func(l *LockoutManager) {
		l.audit = a
	}
}

// NewLockoutManager creates a LockoutManager.
func NewLockoutManager(opts ...LockoutManagerOption) *LockoutManager {
	l := &LockoutManager{
		attempts:        make(map[string]*AttemptRecord),
		maxAttempts:     DefaultMaxAttempts,
		lockoutDuration: DefaultLockoutDuration,
		clock:           clock.Real(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsLocked reports whether identifier is currently locked.
func (l *LockoutManager) IsLocked(identifier string) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.attempts[identifier]
	return ok && rec.lockedAt(l.clock.Now())
}

// RecordAttempt records the outcome of a login attempt. A success clears the
// counter. A failure increments it; the failure that reaches the threshold
// locks the identifier and returns ErrLocked. Attempts made while locked are
// rejected with ErrLocked and do not extend the lock.
func (l *LockoutManager) RecordAttempt(identifier string, success bool) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	rec, ok := l.attempts[identifier]
	if !ok {
		rec = &AttemptRecord{}
		l.attempts[identifier] = rec
	}

	if rec.lockedAt(now) {
		return ErrLocked
	}
	if !rec.LockedUntil.IsZero() {
		// lock expired: start a fresh series
		rec.LockedUntil = time.Time{}
		rec.Count = 0
		rec.FirstFailure = time.Time{}
	}

	rec.LastAttempt = now
	if success {
		delete(l.attempts, identifier)
		return nil
	}

	if rec.Count == 0 {
		rec.FirstFailure = now
	}
	rec.Count++
	if rec.Count < l.maxAttempts {
		return nil
	}

	rec.LockedUntil = now.Add(l.lockoutDuration)
	rec.LockoutCount++
	l.audit.LogEvent(EventAccountLocked, "", MaskIdentifier(identifier), false, map[string]string{
		"attempts": fmt.Sprintf("%d", rec.Count),
		"until":    rec.LockedUntil.UTC().Format(time.RFC3339),
	})
	return ErrLocked
}

// Remaining returns the time left on a lock, or zero.
func (l *LockoutManager) Remaining(identifier string) time.Duration {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.attempts[identifier]
	if !ok {
		return 0
	}
	now := l.clock.Now()
	if !rec.lockedAt(now) {
		return 0
	}
	return rec.LockedUntil.Sub(now)
}

// FailureCount returns the current consecutive failure count.
func (l *LockoutManager) FailureCount(identifier string) int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.attempts[identifier]; ok {
		return rec.Count
	}
	return 0
}

// Reset clears all state for identifier.
func (l *LockoutManager) Reset(identifier string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, identifier)
}

// MaxAttempts returns the configured threshold.
func (l *LockoutManager) MaxAttempts() int {
	return l.maxAttempts
}
