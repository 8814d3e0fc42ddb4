// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	secret, err := LoadOrCreateSecret(filepath.Join(t.TempDir(), "identity.key"))
	require.NoError(t, err)
	return NewSealer(secret, "identity")
}

// exerciseStore runs the behavior every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("verifier_userName")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetAll(map[string]string{
		"verifier_isAuthenticated": "true",
		"verifier_userName":        "test",
		"verifier_userRole":        "Admin",
	}))
	v, ok, err := s.Get("verifier_userRole")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Admin", v)

	require.NoError(t, s.Set("other", "x"))
	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "verifier_isAuthenticated", "verifier_userName", "verifier_userRole"}, keys)

	require.NoError(t, s.Delete("verifier_isAuthenticated", "verifier_userName", "verifier_userRole", "absent"))
	keys, err = s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, keys)

	require.NoError(t, s.Clear())
	keys, err = s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "identity.json"), testSealer(t)))
}

func TestFileStore_Unsealed(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "session.json"), nil))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	sealer := testSealer(t)

	require.NoError(t, NewFileStore(path, sealer).Set("verifier_userName", "admin@verify.com"))

	v, ok, err := NewFileStore(path, sealer).Get("verifier_userName")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "admin@verify.com", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_EmptyRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	s := NewFileStore(path, nil)

	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Delete("k"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_DetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	s := NewFileStore(path, testSealer(t))
	require.NoError(t, s.Set("verifier_userRole", "Junior Verifier"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	forged := strings.Replace(string(data), "Junior Verifier", "Admin", 1)
	require.NoError(t, os.WriteFile(path, []byte(forged), 0600))

	_, _, err = s.Get("verifier_userRole")
	assert.ErrorIs(t, err, ErrTampered)

	// deleting from a tampered file discards it entirely
	require.NoError(t, s.Delete("verifier_userRole"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_WrongSecretIsTampered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, NewFileStore(path, testSealer(t)).Set("k", "v"))

	_, _, err := NewFileStore(path, testSealer(t)).Get("k")
	assert.ErrorIs(t, err, ErrTampered)
}

func TestFileStore_GarbageIsTampered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, _, err := NewFileStore(path, nil).Get("k")
	assert.ErrorIs(t, err, ErrTampered)

	// a write replaces the damaged file
	require.NoError(t, NewFileStore(path, nil).Set("k", "v"))
	v, ok, err := NewFileStore(path, nil).Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestLoadOrCreateSecret_Stable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.key")

	first, err := LoadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Len(t, first, SecretSize)

	second, err := LoadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSealer_PurposeSeparation(t *testing.T) {
	secret := make([]byte, SecretSize)
	values := map[string]string{"a": "b"}

	identity := NewSealer(secret, "identity")
	other := NewSealer(secret, "lockout")
	assert.True(t, identity.Verify(values, identity.Seal(values)))
	assert.False(t, other.Verify(values, identity.Seal(values)))
	assert.False(t, identity.Verify(values, "zz"))
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "session", ScopeSession.String())
	assert.Equal(t, "remember", ScopeRemember.String())
}
