// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/jeranaias/verifier-tui/internal/security"
)

// =============================================================================
// MESSAGES
// =============================================================================

const (
	MsgUsernameRequired   = "Please enter your username"
	MsgPasswordRequired   = "Please enter your password"
	MsgUsernameUnknown    = "Username not found in our system"
	MsgInvalidCredentials = "Invalid username or password"
	MsgCodeFormat         = "Please enter a valid 6-digit code"
	MsgInvalidCode        = "Invalid verification code"
	MsgPasswordMismatch   = "Passwords do not match"
	MsgCreateFailed       = "Failed to create password. Please try again."
	MsgAccountLocked      = "Account temporarily locked. Please try again later."
	MsgUnexpected         = "An error occurred. Please try again."
	MsgResetSent          = "Password reset instructions have been sent to your email."
)

// MsgPasswordTooShort formats the minimum length message.
func MsgPasswordTooShort(min int) string {
	return fmt.Sprintf("Password must be at least %d characters", min)
}

// =============================================================================
// STEPS AND OPERATIONS
// =============================================================================

// Step is the visible form.
type Step int

const (
	StepCredentials Step = iota
	StepTwoFactor
	StepCreateUsername
	StepCreatePassword
	StepForgotPassword
	StepResetSent
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepTwoFactor:
		return "two-factor"
	case StepCreateUsername:
		return "create-username"
	case StepCreatePassword:
		return "create-password"
	case StepForgotPassword:
		return "forgot-password"
	case StepResetSent:
		return "reset-sent"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// OpKind names the backend call behind an Operation.
type OpKind int

const (
	OpLogin OpKind = iota
	OpVerifyCode
	OpValidateUsername
	OpCreatePassword
	OpSendReset
)

// Operation is a submitted step waiting to run.
type Operation struct {
	Kind OpKind
	seq  uint64
	run  func(ctx context.Context) Outcome
}

// Run performs the backend call.
func (o *Operation) Run(ctx context.Context) Outcome {
	out := o.run(ctx)
	out.Kind = o.Kind
	out.seq = o.seq
	return out
}

// Outcome is the result of running an Operation.
type Outcome struct {
	Kind OpKind
	OK   bool
	Err  error
	seq  uint64
}

// Authenticator is the part of security.AuthManager the form calls.
type Authenticator interface {
	Login(ctx context.Context, username, password string, remember bool) error
	LoginWithCode(ctx context.Context, username, password, code string, remember bool) error
	CreatePassword(ctx context.Context, username, password string) error
	ValidateUsername(ctx context.Context, username string) bool
	ForgotPassword(ctx context.Context, username string) bool
}

// =============================================================================
// FLOW
// =============================================================================

// Flow holds the sign-in form state.
type Flow struct {
	auth     Authenticator
	validate *validator.Validate
	minLen   int

	step     Step
	username string
	password string
	confirm  string
	code     string
	remember bool

	err  string
	busy bool
	seq  uint64
}

// Option configures a Flow.
type Option func(*Flow)

// WithMinPasswordLength sets the length rule for new passwords.
func WithMinPasswordLength(n int) Option {
	return func(f *Flow) {
		if n > 0 {
			f.minLen = n
		}
	}
}

// New creates a Flow at the credentials step.
func New(auth Authenticator, opts ...Option) *Flow {
	f := &Flow{
		auth:     auth,
		validate: validator.New(),
		minLen:   8,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Step returns the current step.
func (f *Flow) Step() Step { return f.step }

// Error returns the message to show, or "".
func (f *Flow) Error() string { return f.err }

// Busy reports whether an operation is outstanding.
func (f *Flow) Busy() bool { return f.busy }

func (f *Flow) Username() string { return f.username }
func (f *Flow) Password() string { return f.password }
func (f *Flow) Confirm() string  { return f.confirm }
func (f *Flow) Code() string     { return f.code }
func (f *Flow) Remember() bool   { return f.remember }

// MinPasswordLength returns the length rule for new passwords.
func (f *Flow) MinPasswordLength() int { return f.minLen }

// SetUsername updates the username field. It is fixed once the username has
// been validated for password creation.
func (f *Flow) SetUsername(v string) {
	if f.busy || f.step == StepCreatePassword {
		return
	}
	f.username = v
}

func (f *Flow) SetPassword(v string) {
	if !f.busy {
		f.password = v
	}
}

func (f *Flow) SetConfirm(v string) {
	if !f.busy {
		f.confirm = v
	}
}

// SetCode keeps only ASCII digits, at most six.
func (f *Flow) SetCode(v string) {
	if f.busy {
		return
	}
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' && b.Len() < security.CodeLength {
			b.WriteRune(r)
		}
	}
	f.code = b.String()
}

func (f *Flow) SetRemember(v bool) {
	if !f.busy {
		f.remember = v
	}
}

// ToggleRemember flips the remember-me box.
func (f *Flow) ToggleRemember() {
	f.SetRemember(!f.remember)
}

// =============================================================================
// NAVIGATION
// =============================================================================

func (f *Flow) moveFrom(from, to Step) bool {
	if f.busy || f.step != from {
		return false
	}
	f.step = to
	f.err = ""
	return true
}

// UseTwoFactor switches to the code step.
func (f *Flow) UseTwoFactor() bool {
	return f.moveFrom(StepCredentials, StepTwoFactor)
}

// StartPasswordCreation switches to first-time password setup.
func (f *Flow) StartPasswordCreation() bool {
	return f.moveFrom(StepCredentials, StepCreateUsername)
}

// StartForgotPassword switches to the reset request.
func (f *Flow) StartForgotPassword() bool {
	return f.moveFrom(StepCredentials, StepForgotPassword)
}

// Back returns to the credentials step from any side step.
func (f *Flow) Back() bool {
	if f.busy || f.step == StepCredentials || f.step == StepDone {
		return false
	}
	if f.step == StepCreatePassword {
		f.password = ""
		f.confirm = ""
	}
	f.step = StepCredentials
	f.err = ""
	return true
}

// Reset returns the flow to an empty credentials form.
func (f *Flow) Reset() {
	*f = Flow{auth: f.auth, validate: f.validate, minLen: f.minLen, seq: f.seq}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates the current step and returns the operation to run, or nil
// when validation failed or nothing can be submitted.
func (f *Flow) Submit() *Operation {
	if f.busy {
		return nil
	}
	f.err = ""

	var op *Operation
	switch f.step {
	case StepCredentials:
		op = f.submitCredentials()
	case StepTwoFactor:
		op = f.submitCode()
	case StepCreateUsername:
		op = f.submitCreateUsername()
	case StepCreatePassword:
		op = f.submitCreatePassword()
	case StepForgotPassword:
		op = f.submitForgot()
	}
	if op == nil {
		return nil
	}

	f.seq++
	op.seq = f.seq
	f.busy = true
	return op
}

func (f *Flow) requireUsername() bool {
	if f.validate.Var(strings.TrimSpace(f.username), "required") != nil {
		f.err = MsgUsernameRequired
		return false
	}
	return true
}

func (f *Flow) submitCredentials() *Operation {
	if !f.requireUsername() {
		return nil
	}
	if f.validate.Var(f.password, "required") != nil {
		f.err = MsgPasswordRequired
		return nil
	}
	u, p, r := f.username, f.password, f.remember
	return &Operation{Kind: OpLogin, run: func(ctx context.Context) Outcome {
		err := f.auth.Login(ctx, u, p, r)
		return Outcome{OK: err == nil, Err: err}
	}}
}

func (f *Flow) submitCode() *Operation {
	if f.validate.Var(f.code, "len=6,number") != nil {
		f.err = MsgCodeFormat
		return nil
	}
	u, p, c, r := f.username, f.password, f.code, f.remember
	return &Operation{Kind: OpVerifyCode, run: func(ctx context.Context) Outcome {
		err := f.auth.LoginWithCode(ctx, u, p, c, r)
		return Outcome{OK: err == nil, Err: err}
	}}
}

func (f *Flow) submitCreateUsername() *Operation {
	if !f.requireUsername() {
		return nil
	}
	u := f.username
	return &Operation{Kind: OpValidateUsername, run: func(ctx context.Context) Outcome {
		return Outcome{OK: f.auth.ValidateUsername(ctx, u)}
	}}
}

func (f *Flow) submitCreatePassword() *Operation {
	if !f.requireUsername() {
		return nil
	}
	if f.validate.Var(f.password, fmt.Sprintf("min=%d", f.minLen)) != nil {
		f.err = MsgPasswordTooShort(f.minLen)
		return nil
	}
	if f.validate.VarWithValue(f.confirm, f.password, "eqfield") != nil {
		f.err = MsgPasswordMismatch
		return nil
	}
	u, p := f.username, f.password
	return &Operation{Kind: OpCreatePassword, run: func(ctx context.Context) Outcome {
		err := f.auth.CreatePassword(ctx, u, p)
		return Outcome{OK: err == nil, Err: err}
	}}
}

func (f *Flow) submitForgot() *Operation {
	if !f.requireUsername() {
		return nil
	}
	u := f.username
	return &Operation{Kind: OpSendReset, run: func(ctx context.Context) Outcome {
		return Outcome{OK: f.auth.ForgotPassword(ctx, u)}
	}}
}

// =============================================================================
// RESOLVE
// =============================================================================

// Resolve applies the outcome of the last submitted operation. Outcomes of
// earlier operations are ignored.
func (f *Flow) Resolve(out Outcome) {
	if !f.busy || out.seq != f.seq {
		return
	}
	f.busy = false

	switch out.Kind {
	case OpLogin:
		f.finish(out, MsgInvalidCredentials)
	case OpVerifyCode:
		f.finish(out, MsgInvalidCode)
	case OpCreatePassword:
		if out.OK {
			f.done()
			return
		}
		var pe *security.PolicyError
		switch {
		case errors.As(out.Err, &pe):
			f.err = capitalize(pe.Error())
		default:
			f.err = MsgCreateFailed
		}
	case OpValidateUsername:
		if out.OK {
			f.step = StepCreatePassword
			f.password = ""
			f.confirm = ""
			return
		}
		f.err = MsgUsernameUnknown
	case OpSendReset:
		if out.OK {
			f.step = StepResetSent
			return
		}
		f.err = MsgUsernameUnknown
	}
}

func (f *Flow) finish(out Outcome, rejected string) {
	switch {
	case out.OK:
		f.done()
	case errors.Is(out.Err, security.ErrAccountLocked):
		f.err = MsgAccountLocked
	case errors.Is(out.Err, security.ErrInvalidCredentials), errors.Is(out.Err, security.ErrInvalidCode):
		f.err = rejected
	case out.Kind == OpVerifyCode:
		f.err = MsgInvalidCode
	default:
		f.err = MsgUnexpected
	}
}

func (f *Flow) done() {
	f.step = StepDone
	f.password = ""
	f.confirm = ""
	f.code = ""
	f.err = ""
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// =============================================================================
// PRESENTATION
// =============================================================================

// Title is the heading of the current step.
func (f *Flow) Title() string {
	switch f.step {
	case StepForgotPassword, StepResetSent:
		return "Reset your password"
	case StepCreateUsername, StepCreatePassword:
		return "Create your password"
	case StepTwoFactor:
		return "Two-Factor Authentication"
	default:
		return "Sign in to your account"
	}
}

// SubmitLabel is the text of the submit control, which changes while busy.
func (f *Flow) SubmitLabel() string {
	type labels struct{ idle, busy string }
	var l labels
	switch f.step {
	case StepTwoFactor:
		l = labels{"Verify", "Verifying..."}
	case StepCreateUsername:
		l = labels{"Continue", "Checking..."}
	case StepCreatePassword:
		l = labels{"Create Password", "Creating Password..."}
	case StepForgotPassword:
		l = labels{"Send Reset Link", "Sending Reset Link..."}
	case StepResetSent:
		l = labels{"Back to Login", "Back to Login"}
	default:
		l = labels{"Sign in", "Signing in..."}
	}
	if f.busy {
		return l.busy
	}
	return l.idle
}
