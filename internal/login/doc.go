// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the sign-in form as a state machine independent
// of any rendering.
//
// # Steps
//
//	Credentials ──submit──────────────────────────────▶ Done
//	     │ ╲──two-factor──▶ TwoFactor ──submit─────────▶ Done
//	     │ ╲──create──▶ CreateUsername ──▶ CreatePassword ──▶ Done
//	     ╰──forgot──▶ ForgotPassword ──submit──▶ ResetSent
//
// Every side step returns to Credentials with Back.
//
// # Submitting
//
// Submit validates the current step. On a validation error it sets Error and
// returns nil. Otherwise it marks the flow busy and returns an Operation;
// the caller runs it (after any artificial delay) and hands the Outcome back
// to Resolve, which moves the flow on or sets Error.
package login
