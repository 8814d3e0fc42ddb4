// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/verifier-tui/internal/clock"
	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/storage"
)

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type navCall struct {
	Route   Route
	Replace bool
}

type fixture struct {
	t        *testing.T
	clock    *clock.Fake
	dir      *directory.MemoryDirectory
	remember *storage.MemoryStore
	session  *storage.MemoryStore
	vault    *IdentityVault
	lockout  *LockoutManager
	audit    *AuditLogger
	logs     *observer.ObservedLogs
	nav      []navCall
	auth     *AuthManager
	bus      *ActivityBus
	monitor  *SessionMonitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		clock:    clock.NewFake(epoch),
		dir:      directory.NewMemory(),
		remember: storage.NewMemoryStore(),
		session:  storage.NewMemoryStore(),
		bus:      NewActivityBus(),
	}

	hasher := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, directory.Seed(context.Background(), f.dir, directory.DemoAccounts(), hasher.Hash))

	core, logs := observer.New(zapcore.InfoLevel)
	f.logs = logs
	f.audit = NewAuditLoggerWithCore(core)
	f.vault = NewIdentityVault(f.remember, f.session)
	f.lockout = NewLockoutManager(
		WithLockoutClock(f.clock),
		WithMaxAttempts(3),
		WithLockoutDuration(15*time.Minute),
		WithLockoutAudit(f.audit),
	)
	f.auth = NewAuthManager(f.dir, f.vault,
		WithHasher(hasher),
		WithLockout(f.lockout),
		WithAuditLogger(f.audit),
		WithLogger(zap.NewNop()),
		WithTwoFactor(NewTwoFactorVerifier(f.clock, "")),
		WithResetNotifier(NewResetNotifier(nil, f.clock, time.Minute, f.audit)),
		WithNavigator(NavigatorFunc(func(r Route, replace bool) {
			f.nav = append(f.nav, navCall{r, replace})
		})),
	)
	f.monitor = NewSessionMonitor(f.auth, f.bus,
		WithMonitorClock(f.clock),
		WithMonitorAudit(f.audit),
	)
	f.monitor.Start()
	t.Cleanup(f.monitor.Stop)
	return f
}

func (f *fixture) login(username, password string, remember bool) {
	f.t.Helper()
	require.NoError(f.t, f.auth.Login(context.Background(), username, password, remember))
}

func (f *fixture) auditTypes() []string {
	var out []string
	for _, e := range f.logs.All() {
		out = append(out, e.Message)
	}
	return out
}

func storeEmpty(t *testing.T, s storage.Store) bool {
	t.Helper()
	keys, err := s.Keys()
	require.NoError(t, err)
	return len(keys) == 0
}
