// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/verifier-tui/internal/clock"
	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/security"
	"github.com/jeranaias/verifier-tui/internal/storage"
)

func TestNewServices_MemoryDirectory(t *testing.T) {
	cfg := testConfig(t)
	svc, err := NewServices(context.Background(), cfg, clock.NewFake(epoch))
	require.NoError(t, err)
	defer svc.Close()

	accounts, err := svc.Directory.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, len(directory.DemoAccounts()))

	info, err := os.Stat(filepath.Join(filepath.Dir(cfg.Identity.RememberPath), SecretFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewServices_SQLiteDirectoryPersists(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Directory = "sqlite"
	ctx := context.Background()

	svc, err := NewServices(ctx, cfg, clock.NewFake(epoch))
	require.NoError(t, err)
	require.NoError(t, svc.Auth.Login(ctx, "admin@verify.com", "admin123", false))
	require.NoError(t, svc.Auth.ChangePassword(ctx, "admin123", "rotated-pass1"))
	require.NoError(t, svc.Close())

	// seeding again must not overwrite the changed password
	svc, err = NewServices(ctx, cfg, clock.NewFake(epoch))
	require.NoError(t, err)
	defer svc.Close()
	assert.ErrorIs(t, svc.Auth.Login(ctx, "admin@verify.com", "admin123", false), security.ErrInvalidCredentials)
	require.NoError(t, svc.Auth.Login(ctx, "admin@verify.com", "rotated-pass1", false))
}

func TestNewServices_SessionScopeFile(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	svc, err := NewServices(ctx, cfg, clock.NewFake(epoch))
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.Auth.Login(ctx, "test", "test", false))
	assert.True(t, svc.Vault.Has(storage.ScopeSession))
	assert.FileExists(t, filepath.Join(cfg.Identity.SessionDir, SessionFileName))
	assert.NoFileExists(t, cfg.Identity.RememberPath)
}

func TestNewServices_SessionScopeInMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Identity.SessionDir = ""
	ctx := context.Background()

	svc, err := NewServices(ctx, cfg, clock.NewFake(epoch))
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.Auth.Login(ctx, "test", "test", false))
	assert.True(t, svc.Vault.Has(storage.ScopeSession))
}

func TestNewServices_AuditTrail(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.AuditEnabled = true
	ctx := context.Background()

	svc, err := NewServices(ctx, cfg, clock.NewFake(epoch))
	require.NoError(t, err)
	require.Error(t, svc.Auth.Login(ctx, "test", "wrong", false))
	require.NoError(t, svc.Close())

	data, err := os.ReadFile(cfg.Security.AuditLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), security.EventLoginFailure)
}

func TestPolicies(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.TimeoutMinutes = 20
	cfg.Session.WarningLeadMinutes = 3
	cfg.Security.PasswordPolicy.RequireSymbols = true

	sp := SessionPolicy(cfg)
	assert.Equal(t, 20*time.Minute, sp.Timeout)
	assert.Equal(t, 17*time.Minute, sp.WarningAfter())
	assert.True(t, PasswordPolicy(cfg).RequireSymbols)
}
