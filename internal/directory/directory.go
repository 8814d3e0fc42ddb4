// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAccountNotFound is returned when no account has the username.
	ErrAccountNotFound = errors.New("directory: account not found")

	// ErrAccountExists is returned when inserting a duplicate username.
	ErrAccountExists = errors.New("directory: account already exists")

	// ErrPasswordAlreadySet is returned when claiming the password of an
	// account that already has one.
	ErrPasswordAlreadySet = errors.New("directory: password already set")
)

// =============================================================================
// ROLES
// =============================================================================

// Role is a staff role label.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleSeniorVerifier Role = "Senior Verifier"
	RoleJuniorVerifier Role = "Junior Verifier"
)

// LowestRole is assigned to accounts that set their first password.
const LowestRole = RoleJuniorVerifier

// Rank orders roles by privilege; unknown roles rank below every known one.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleSeniorVerifier:
		return 2
	case RoleJuniorVerifier:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// ParseRole converts a stored label back to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is one credentials record.
type Account struct {
	Username     string
	PasswordHash string
	Role         Role
	TOTPSecret   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account has completed password setup.
func (a Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// HasTwoFactor reports whether a TOTP secret is enrolled.
func (a Account) HasTwoFactor() bool {
	return a.TOTPSecret != ""
}

// =============================================================================
// DIRECTORY
// =============================================================================

// Directory is the credential store. Usernames are matched exactly.
type Directory interface {
	// Lookup returns the account or ErrAccountNotFound.
	Lookup(ctx context.Context, username string) (Account, error)

	// List returns every account ordered by username.
	List(ctx context.Context) ([]Account, error)

	// Insert adds a new account or returns ErrAccountExists.
	Insert(ctx context.Context, acct Account) error

	// ClaimPassword sets the hash only if the account has none yet. It
	// returns ErrPasswordAlreadySet otherwise, so two concurrent claims
	// cannot both succeed.
	ClaimPassword(ctx context.Context, username, hash string) error

	// UpdatePassword replaces the hash of an existing account.
	UpdatePassword(ctx context.Context, username, hash string) error

	// SetTOTPSecret enrolls (or with "" removes) a TOTP secret.
	SetTOTPSecret(ctx context.Context, username, secret string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// SEEDING
// =============================================================================

// SeedAccount is a plaintext account definition used for seeding.
type SeedAccount struct {
	Username string
	Password string // empty: the user creates it on first sign-in
	Role     Role
}

// DemoAccounts returns the pre-provisioned staff accounts of the demo
// environment.
func DemoAccounts() []SeedAccount {
	return []SeedAccount{
		{Username: "test", Password: "test", Role: RoleAdmin},
		{Username: "admin@verify.com", Password: "admin123", Role: RoleAdmin},
		{Username: "senior@verify.com", Password: "senior123", Role: RoleSeniorVerifier},
		{Username: "junior@verify.com", Password: "junior123", Role: RoleJuniorVerifier},
		{Username: "new@verify.com", Role: RoleJuniorVerifier},
	}
}

// Seed inserts every seed account that is not present yet. Existing accounts
// are left untouched so passwords changed after seeding survive restarts.
func Seed(ctx context.Context, d Directory, seeds []SeedAccount, hash func(string) (string, error)) error {
	for _, s := range seeds {
		if _, err := d.Lookup(ctx, s.Username); err == nil {
			continue
		} else if !errors.Is(err, ErrAccountNotFound) {
			return fmt.Errorf("seed %s: %w", s.Username, err)
		}

		acct := Account{Username: s.Username, Role: s.Role}
		if s.Password != "" {
			h, err := hash(s.Password)
			if err != nil {
				return fmt.Errorf("seed %s: %w", s.Username, err)
			}
			acct.PasswordHash = h
		}
		if err := d.Insert(ctx, acct); err != nil && !errors.Is(err, ErrAccountExists) {
			return fmt.Errorf("seed %s: %w", s.Username, err)
		}
	}
	return nil
}
