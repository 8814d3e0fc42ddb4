// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/jeranaias/verifier-tui/internal/clock"
	"github.com/jeranaias/verifier-tui/internal/directory"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// DefaultIssuer labels enrolled TOTP keys in authenticator apps.
const DefaultIssuer = "Verifier"

// IsWellFormedCode reports whether code is exactly six ASCII digits.
func IsWellFormedCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// TwoFactorVerifier checks second-step codes.
//
// Accounts with an enrolled secret are checked as RFC 6238 TOTP with one
// step of skew. Accounts without one accept any well-formed code, matching
// the voluntary two-factor step of the login form.
type TwoFactorVerifier struct {
	clock  clock.Clock
	issuer string
}

// NewTwoFactorVerifier creates a verifier. A nil clock uses the wall clock.
func NewTwoFactorVerifier(clk clock.Clock, issuer string) *TwoFactorVerifier {
	if clk == nil {
		clk = clock.Real()
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &TwoFactorVerifier{clock: clk, issuer: issuer}
}

func (v *TwoFactorVerifier) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Verify reports whether code completes the second step for acct.
func (v *TwoFactorVerifier) Verify(acct directory.Account, code string) bool {
	if !IsWellFormedCode(code) {
		return false
	}
	if !acct.HasTwoFactor() {
		return true
	}
	ok, err := totp.ValidateCustom(code, acct.TOTPSecret, v.clock.Now().UTC(), v.opts())
	return err == nil && ok
}

// Enroll generates a new TOTP key for username.
func (v *TwoFactorVerifier) Enroll(username string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      v.issuer,
		AccountName: username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}
	return key, nil
}

// CurrentCode returns the code for secret at the verifier's current time.
func (v *TwoFactorVerifier) CurrentCode(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, v.clock.Now().UTC(), v.opts())
}
