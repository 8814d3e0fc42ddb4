// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/storage"
)

func TestIdentityVault_SaveLoadErase(t *testing.T) {
	remember, session := storage.NewMemoryStore(), storage.NewMemoryStore()
	v := NewIdentityVault(remember, session)

	id, err := v.Load()
	require.NoError(t, err)
	assert.False(t, id.Authenticated)

	want := Identity{Authenticated: true, Username: "test", Role: directory.RoleAdmin, Scope: storage.ScopeSession}
	require.NoError(t, v.Save(want))

	got, err := v.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	keys, err := session.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{KeyIsAuthenticated, KeyUserName, KeyUserRole}, keys)

	require.NoError(t, v.Erase())
	assert.False(t, v.Has(storage.ScopeSession))
	assert.False(t, v.Has(storage.ScopeRemember))
}

func TestIdentityVault_RememberWins(t *testing.T) {
	remember, session := storage.NewMemoryStore(), storage.NewMemoryStore()
	v := NewIdentityVault(remember, session)

	require.NoError(t, session.SetAll(map[string]string{
		KeyIsAuthenticated: "true", KeyUserName: "junior@verify.com", KeyUserRole: "Junior Verifier",
	}))
	require.NoError(t, remember.SetAll(map[string]string{
		KeyIsAuthenticated: "true", KeyUserName: "test", KeyUserRole: "Admin",
	}))

	got, err := v.Load()
	require.NoError(t, err)
	assert.Equal(t, "test", got.Username)
	assert.Equal(t, storage.ScopeRemember, got.Scope)
}

func TestIdentityVault_IgnoresIncompleteIdentity(t *testing.T) {
	remember, session := storage.NewMemoryStore(), storage.NewMemoryStore()
	v := NewIdentityVault(remember, session)

	require.NoError(t, remember.SetAll(map[string]string{KeyIsAuthenticated: "false", KeyUserName: "test", KeyUserRole: "Admin"}))
	require.NoError(t, session.SetAll(map[string]string{KeyIsAuthenticated: "true", KeyUserName: "test", KeyUserRole: "Root"}))

	got, err := v.Load()
	require.NoError(t, err)
	assert.False(t, got.Authenticated)
}

func TestIdentityVault_ClearSession(t *testing.T) {
	remember, session := storage.NewMemoryStore(), storage.NewMemoryStore()
	v := NewIdentityVault(remember, session)
	require.NoError(t, session.Set("other", "1"))
	require.NoError(t, remember.Set("other", "1"))

	require.NoError(t, v.ClearSession())

	keys, _ := session.Keys()
	assert.Empty(t, keys)
	keys, _ = remember.Keys()
	assert.Equal(t, []string{"other"}, keys)
}
