// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/storage"
)

func TestAuthManager_LoginSessionScope(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.auth.Login(context.Background(), "test", "test", false))

	id := f.auth.Identity()
	assert.True(t, id.Authenticated)
	assert.Equal(t, "test", id.Username)
	assert.Equal(t, directory.RoleAdmin, id.Role)
	assert.Equal(t, storage.ScopeSession, id.Scope)

	assert.True(t, f.vault.Has(storage.ScopeSession))
	assert.False(t, f.vault.Has(storage.ScopeRemember))
	v, ok, err := f.session.Get(KeyIsAuthenticated)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	assert.Equal(t, []navCall{{RouteLanding, false}}, f.nav)
	assert.Contains(t, f.auditTypes(), EventLoginSuccess)
}

func TestAuthManager_LoginRememberScope(t *testing.T) {
	f := newFixture(t)
	f.login("senior@verify.com", "senior123", true)

	assert.True(t, f.vault.Has(storage.ScopeRemember))
	assert.False(t, f.vault.Has(storage.ScopeSession))
	role, _, err := f.remember.Get(KeyUserRole)
	require.NoError(t, err)
	assert.Equal(t, "Senior Verifier", role)

	// a later session-only login moves the identity out of the remember scope
	f.login("junior@verify.com", "junior123", false)
	assert.False(t, f.vault.Has(storage.ScopeRemember))
	assert.True(t, f.vault.Has(storage.ScopeSession))
}

func TestAuthManager_LoginFailuresAreGeneric(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "test", "wrong"},
		{"unknown user", "nobody@verify.com", "test"},
		{"username case", "TEST", "test"},
		{"password case", "test", "Test"},
		{"no password set", "new@verify.com", ""},
		{"trailing space", "test", "test "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.auth.Login(context.Background(), tc.username, tc.password, false)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.False(t, f.auth.IsAuthenticated())
			assert.True(t, storeEmpty(t, f.session))
			assert.True(t, storeEmpty(t, f.remember))
			assert.Empty(t, f.nav)
		})
	}
}

func TestAuthManager_LockoutAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.auth.Login(ctx, "test", "bad1", false), ErrInvalidCredentials)
	assert.ErrorIs(t, f.auth.Login(ctx, "test", "bad2", false), ErrInvalidCredentials)
	assert.ErrorIs(t, f.auth.Login(ctx, "test", "bad3", false), ErrAccountLocked)

	// the right password does not help while locked
	assert.ErrorIs(t, f.auth.Login(ctx, "test", "test", false), ErrAccountLocked)
	assert.Contains(t, f.auditTypes(), EventAccountLocked)
	assert.Contains(t, f.auditTypes(), EventLoginBlocked)

	f.clock.Advance(15 * time.Minute)
	require.NoError(t, f.auth.Login(ctx, "test", "test", false))
	assert.Zero(t, f.lockout.FailureCount("test"))
}

func TestAuthManager_CreatePasswordOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.CreatePassword(ctx, "new@verify.com", "longenough1"))

	id := f.auth.Identity()
	assert.True(t, id.Authenticated)
	assert.Equal(t, directory.LowestRole, id.Role)
	assert.Equal(t, storage.ScopeRemember, id.Scope)
	assert.Equal(t, navCall{RouteLanding, false}, f.nav[len(f.nav)-1])

	err := f.auth.CreatePassword(ctx, "new@verify.com", "anotherone2")
	assert.ErrorIs(t, err, ErrCannotCreatePassword)

	f.auth.Logout()
	require.NoError(t, f.auth.Login(ctx, "new@verify.com", "longenough1", false))
}

func TestAuthManager_CreatePasswordRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.auth.CreatePassword(ctx, "test", "longenough1"), ErrCannotCreatePassword)
	assert.ErrorIs(t, f.auth.CreatePassword(ctx, "ghost@verify.com", "longenough1"), ErrCannotCreatePassword)
	assert.ErrorIs(t, f.auth.CreatePassword(ctx, "new@verify.com", "short"), ErrWeakPassword)

	assert.False(t, f.auth.IsAuthenticated())
	acct, err := f.dir.Lookup(ctx, "new@verify.com")
	require.NoError(t, err)
	assert.False(t, acct.HasPassword())
}

func TestAuthManager_LogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	notified := 0
	f.auth.Subscribe(func(Identity) { notified++ })

	assert.NotPanics(t, f.auth.Logout)
	assert.False(t, f.auth.IsAuthenticated())
	assert.Zero(t, notified)

	f.login("test", "test", true)
	f.auth.Logout()
	f.auth.Logout()

	assert.Equal(t, 2, notified, "one login and one logout")
	assert.True(t, storeEmpty(t, f.remember))
	assert.True(t, storeEmpty(t, f.session))
	assert.Equal(t, navCall{RouteLogin, true}, f.nav[len(f.nav)-1])
}

func TestAuthManager_LogoutKeepsUnrelatedSessionKeys(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Set("draft", "x"))
	f.login("test", "test", false)

	f.auth.Logout()

	_, ok, err := f.session.Get("draft")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.vault.Has(storage.ScopeSession))
}

func TestAuthManager_SubscribeCancel(t *testing.T) {
	f := newFixture(t)
	calls := 0
	cancel := f.auth.Subscribe(func(Identity) { calls++ })
	cancel()
	cancel()

	f.login("test", "test", false)
	assert.Zero(t, calls)
}

func TestAuthManager_ValidateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, f.auth.ValidateUsername(ctx, "new@verify.com"))
	assert.True(t, f.auth.ValidateUsername(ctx, "test"))
	assert.False(t, f.auth.ValidateUsername(ctx, ""))
	assert.False(t, f.auth.ValidateUsername(ctx, "ghost@verify.com"))
}

func TestAuthManager_ForgotPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.auth.ForgotPassword(ctx, "ghost@verify.com"))
	assert.True(t, f.auth.ForgotPassword(ctx, "admin@verify.com"))
	assert.True(t, f.auth.ForgotPassword(ctx, "admin@verify.com"), "throttled requests look the same")

	types := f.auditTypes()
	assert.Contains(t, types, EventPasswordResetRequested)
	assert.Contains(t, types, EventPasswordResetThrottled)
}

func TestAuthManager_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.auth.ChangePassword(ctx, "admin123", "newpassword1"), ErrNotAuthenticated)

	f.login("admin@verify.com", "admin123", false)
	assert.ErrorIs(t, f.auth.ChangePassword(ctx, "wrong", "newpassword1"), ErrInvalidCredentials)
	assert.ErrorIs(t, f.auth.ChangePassword(ctx, "admin123", "short"), ErrWeakPassword)

	require.NoError(t, f.auth.ChangePassword(ctx, "admin123", "newpassword1"))
	f.auth.Logout()

	assert.ErrorIs(t, f.auth.Login(ctx, "admin@verify.com", "admin123", false), ErrInvalidCredentials)
	require.NoError(t, f.auth.Login(ctx, "admin@verify.com", "newpassword1", false))
}

func TestAuthManager_LoginRejectsLongerPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pw := strings.Repeat("a", 72)

	require.NoError(t, f.auth.CreatePassword(ctx, "new@verify.com", pw))
	f.auth.Logout()

	assert.ErrorIs(t, f.auth.Login(ctx, "new@verify.com", pw+"EXTRA", false), ErrInvalidCredentials)
	assert.False(t, f.auth.IsAuthenticated())
	require.NoError(t, f.auth.Login(ctx, "new@verify.com", pw, false))
}

func TestAuthManager_LoginWithCode_NotEnrolled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.auth.LoginWithCode(ctx, "test", "test", "12345", false), ErrInvalidCode)
	assert.ErrorIs(t, f.auth.LoginWithCode(ctx, "test", "test", "12a456", false), ErrInvalidCode)
	require.NoError(t, f.auth.LoginWithCode(ctx, "test", "test", "123456", false))

	f = newFixture(t)
	assert.ErrorIs(t, f.auth.LoginWithCode(ctx, "test", "nope", "123456", false), ErrInvalidCredentials)
}

func TestAuthManager_LoginWithCode_Enrolled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.auth.EnrollTwoFactor(ctx, "senior@verify.com")
	require.NoError(t, err)
	assert.Contains(t, key.URL(), "otpauth://totp/")

	v := NewTwoFactorVerifier(f.clock, "")
	code, err := v.CurrentCode(key.Secret())
	require.NoError(t, err)

	wrong := []byte(code)
	wrong[5] = '0' + (wrong[5]-'0'+1)%10
	assert.ErrorIs(t, f.auth.LoginWithCode(ctx, "senior@verify.com", "senior123", string(wrong), false), ErrInvalidCode)

	require.NoError(t, f.auth.LoginWithCode(ctx, "senior@verify.com", "senior123", code, false))
	assert.Contains(t, f.auditTypes(), EventTwoFactorEnrolled)

	_, err = f.auth.EnrollTwoFactor(ctx, "ghost@verify.com")
	assert.ErrorIs(t, err, directory.ErrAccountNotFound)
}

func TestAuthManager_Rehydrate(t *testing.T) {
	f := newFixture(t)
	f.login("senior@verify.com", "senior123", true)

	restarted := NewAuthManager(f.dir, f.vault)
	id, err := restarted.Rehydrate(context.Background())
	require.NoError(t, err)
	assert.True(t, id.Authenticated)
	assert.Equal(t, "senior@verify.com", id.Username)
	assert.Equal(t, storage.ScopeRemember, id.Scope)
	assert.True(t, restarted.IsAuthenticated())
}

func TestAuthManager_RehydrateDropsUnknownAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.Save(Identity{Authenticated: true, Username: "ghost", Role: directory.RoleAdmin}))

	id, err := f.auth.Rehydrate(context.Background())
	require.NoError(t, err)
	assert.False(t, id.Authenticated)
	assert.True(t, storeEmpty(t, f.session))
}

func TestAuthManager_RehydrateTamperedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity.json")
	sealer := storage.NewSealer([]byte("0123456789abcdef0123456789abcdef"), "identity")
	remember := storage.NewFileStore(path, sealer)
	vault := NewIdentityVault(remember, storage.NewMemoryStore())

	f := newFixture(t)
	require.NoError(t, vault.Save(Identity{Authenticated: true, Username: "test", Role: directory.RoleAdmin, Scope: storage.ScopeRemember}))

	require.FileExists(t, path)
	forged := []byte(`{"version":1,"values":{"verifier_isAuthenticated":"true","verifier_userName":"test","verifier_userRole":"Admin"},"mac":"00"}`)
	require.NoError(t, os.WriteFile(path, forged, 0600))

	auth := NewAuthManager(f.dir, vault, WithAuditLogger(f.audit))
	id, err := auth.Rehydrate(context.Background())
	require.NoError(t, err)
	assert.False(t, id.Authenticated)
	assert.Contains(t, f.auditTypes(), EventIdentityTampered)
	assert.NoFileExists(t, path)
}

func TestAuthManager_SetNavigator(t *testing.T) {
	f := newFixture(t)

	var routes []Route
	f.auth.SetNavigator(NavigatorFunc(func(r Route, _ bool) { routes = append(routes, r) }))
	f.login("test", "test", false)
	f.auth.Logout()
	assert.Equal(t, []Route{RouteLanding, RouteLogin}, routes)
	assert.Empty(t, f.nav, "the replaced navigator is not called")

	// nil detaches without panicking
	f.auth.SetNavigator(nil)
	f.login("test", "test", false)
	assert.Len(t, routes, 2)
}

func TestAuthManager_SetPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login("admin@verify.com", "admin123", false)

	f.auth.SetPolicy(PasswordPolicy{MinLength: 8, RequireNumbers: true})
	assert.True(t, f.auth.Policy().RequireNumbers)
	assert.ErrorIs(t, f.auth.ChangePassword(ctx, "admin123", "nonumbers"), ErrWeakPassword)
	require.NoError(t, f.auth.ChangePassword(ctx, "admin123", "numbers123"))
}
