// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainHash is a stand-in hasher; hashing itself is tested in security.
func plainHash(pw string) (string, error) { return "h:" + pw, nil }

func backends(t *testing.T) map[string]Directory {
	t.Helper()
	ctx := context.Background()

	sq, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "directory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Directory{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestDirectory_SeedAndLookup(t *testing.T) {
	ctx := context.Background()
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Seed(ctx, d, DemoAccounts(), plainHash))

			acct, err := d.Lookup(ctx, "admin@verify.com")
			require.NoError(t, err)
			assert.Equal(t, RoleAdmin, acct.Role)
			assert.Equal(t, "h:admin123", acct.PasswordHash)
			assert.True(t, acct.HasPassword())
			assert.False(t, acct.CreatedAt.IsZero())

			fresh, err := d.Lookup(ctx, "new@verify.com")
			require.NoError(t, err)
			assert.False(t, fresh.HasPassword())
			assert.Equal(t, RoleJuniorVerifier, fresh.Role)

			_, err = d.Lookup(ctx, "nobody@verify.com")
			assert.ErrorIs(t, err, ErrAccountNotFound)

			// exact match only
			_, err = d.Lookup(ctx, "ADMIN@verify.com")
			assert.ErrorIs(t, err, ErrAccountNotFound)

			all, err := d.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 5)
			assert.Equal(t, "admin@verify.com", all[0].Username)
		})
	}
}

func TestDirectory_SeedKeepsExistingAccounts(t *testing.T) {
	ctx := context.Background()
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Seed(ctx, d, DemoAccounts(), plainHash))
			require.NoError(t, d.UpdatePassword(ctx, "test", "h:changed"))

			require.NoError(t, Seed(ctx, d, DemoAccounts(), plainHash))

			acct, err := d.Lookup(ctx, "test")
			require.NoError(t, err)
			assert.Equal(t, "h:changed", acct.PasswordHash)
		})
	}
}

func TestDirectory_ClaimPasswordOnce(t *testing.T) {
	ctx := context.Background()
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Seed(ctx, d, DemoAccounts(), plainHash))

			require.NoError(t, d.ClaimPassword(ctx, "new@verify.com", "h:first"))
			assert.ErrorIs(t, d.ClaimPassword(ctx, "new@verify.com", "h:second"), ErrPasswordAlreadySet)
			assert.ErrorIs(t, d.ClaimPassword(ctx, "test", "h:x"), ErrPasswordAlreadySet)
			assert.ErrorIs(t, d.ClaimPassword(ctx, "ghost", "h:x"), ErrAccountNotFound)

			acct, err := d.Lookup(ctx, "new@verify.com")
			require.NoError(t, err)
			assert.Equal(t, "h:first", acct.PasswordHash)
		})
	}
}

func TestDirectory_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, d.Insert(ctx, Account{Username: "a", Role: RoleAdmin}))
			assert.ErrorIs(t, d.Insert(ctx, Account{Username: "a", Role: RoleAdmin}), ErrAccountExists)
		})
	}
}

func TestDirectory_TOTPSecret(t *testing.T) {
	ctx := context.Background()
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Seed(ctx, d, DemoAccounts(), plainHash))

			require.NoError(t, d.SetTOTPSecret(ctx, "senior@verify.com", "JBSWY3DPEHPK3PXP"))
			acct, err := d.Lookup(ctx, "senior@verify.com")
			require.NoError(t, err)
			assert.True(t, acct.HasTwoFactor())

			assert.ErrorIs(t, d.SetTOTPSecret(ctx, "ghost", "x"), ErrAccountNotFound)
			assert.ErrorIs(t, d.UpdatePassword(ctx, "ghost", "x"), ErrAccountNotFound)
		})
	}
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "directory.db")

	d, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, Seed(ctx, d, DemoAccounts(), plainHash))
	require.NoError(t, d.ClaimPassword(ctx, "new@verify.com", "h:mine"))
	require.NoError(t, d.Close())

	d, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer d.Close()

	acct, err := d.Lookup(ctx, "new@verify.com")
	require.NoError(t, err)
	assert.Equal(t, "h:mine", acct.PasswordHash)
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Lookup(ctx, "test")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRole(t *testing.T) {
	assert.Greater(t, RoleAdmin.Rank(), RoleSeniorVerifier.Rank())
	assert.Greater(t, RoleSeniorVerifier.Rank(), RoleJuniorVerifier.Rank())
	assert.Equal(t, RoleJuniorVerifier, LowestRole)

	r, err := ParseRole("Senior Verifier")
	require.NoError(t, err)
	assert.Equal(t, RoleSeniorVerifier, r)

	_, err = ParseRole("Intern")
	assert.Error(t, err)
}
