// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// HASHING
// =============================================================================

// DefaultBcryptCost is the work factor for new password hashes.
const DefaultBcryptCost = bcrypt.DefaultCost

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// dummyHash is compared against when no real hash exists so that an unknown
// username costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("verifier-dummy-password"), bcrypt.MinCost)

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher. Out-of-range costs use the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

// Verify reports whether password matches hash. An empty hash never
// matches, but still costs one comparison. bcrypt ignores bytes past the
// 72nd, so a longer password never matches either.
func (h *PasswordHasher) Verify(hash, password string) bool {
	if hash == "" || len(password) > maxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// =============================================================================
// POLICY
// =============================================================================

// ErrWeakPassword is returned when a password violates the policy.
var ErrWeakPassword = errors.New("password does not meet policy")

// PasswordPolicy describes the acceptable shape of a new password.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	RequireSymbols   bool
}

// DefaultPasswordPolicy only requires eight characters.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8}
}

// PolicyError lists the rules a password broke.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password must " + strings.Join(e.Violations, ", ")
}

func (e *PolicyError) Unwrap() error {
	return ErrWeakPassword
}

// Check returns a *PolicyError when password breaks any rule. Length is
// counted in characters, not bytes.
func (p PasswordPolicy) Check(password string) error {
	var v []string
	if utf8.RuneCountInString(password) < p.MinLength {
		v = append(v, fmt.Sprintf("be at least %d characters", p.MinLength))
	}
	if len(password) > maxPasswordBytes {
		v = append(v, fmt.Sprintf("be at most %d bytes", maxPasswordBytes))
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if p.RequireUppercase && !upper {
		v = append(v, "contain an uppercase letter")
	}
	if p.RequireLowercase && !lower {
		v = append(v, "contain a lowercase letter")
	}
	if p.RequireNumbers && !digit {
		v = append(v, "contain a number")
	}
	if p.RequireSymbols && !symbol {
		v = append(v, "contain a symbol")
	}

	if len(v) > 0 {
		return &PolicyError{Violations: v}
	}
	return nil
}

// Describe renders the policy as a short sentence for forms.
func (p PasswordPolicy) Describe() string {
	parts := []string{fmt.Sprintf("at least %d characters", p.MinLength)}
	if p.RequireUppercase {
		parts = append(parts, "an uppercase letter")
	}
	if p.RequireLowercase {
		parts = append(parts, "a lowercase letter")
	}
	if p.RequireNumbers {
		parts = append(parts, "a number")
	}
	if p.RequireSymbols {
		parts = append(parts, "a symbol")
	}
	return "Use " + strings.Join(parts, ", ") + "."
}
