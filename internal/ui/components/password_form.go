// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"github.com/jeranaias/verifier-tui/internal/login"
	"github.com/jeranaias/verifier-tui/internal/security"
	"github.com/jeranaias/verifier-tui/internal/ui/styles"
)

// Messages shown by the change password form.
const (
	MsgCurrentRequired  = "Please enter your current password"
	MsgCurrentIncorrect = "Current password is incorrect"
	MsgNotSignedIn      = "You are no longer signed in"
)

// PasswordChangedMsg is emitted after a successful change.
type PasswordChangedMsg struct{}

// PasswordCancelledMsg is emitted when the user leaves the form.
type PasswordCancelledMsg struct{}

// PasswordChanger is the part of security.AuthManager the form calls.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, current, next string) error
}

// =============================================================================
// PASSWORD FORM
// =============================================================================

// PasswordForm changes the signed-in user's password.
type PasswordForm struct {
	auth     PasswordChanger
	validate *validator.Validate
	minLen   int
	hint     string
	keys     FormKeyMap

	fields []*TextField
	focus  int // len(fields) is the submit button
	err    string
}

// NewPasswordForm creates the form. minLen is checked before the policy.
func NewPasswordForm(auth PasswordChanger, minLen int, hint string) *PasswordForm {
	return &PasswordForm{
		auth:     auth,
		validate: validator.New(),
		minLen:   minLen,
		hint:     hint,
		keys:     DefaultFormKeyMap(),
		fields: []*TextField{
			NewTextField("Current password", "", true),
			NewTextField("New password", "", true),
			NewTextField("Confirm new password", "", true),
		},
	}
}

// SetPolicy updates the length rule and hint.
func (p *PasswordForm) SetPolicy(minLen int, hint string) {
	p.minLen = minLen
	p.hint = hint
}

// SetWidth adapts the field widths.
func (p *PasswordForm) SetWidth(width int) {
	inner := width - 16
	if inner > 40 {
		inner = 40
	}
	for _, field := range p.fields {
		field.SetWidth(inner)
	}
}

// Error returns the current error message.
func (p *PasswordForm) Error() string {
	return p.err
}

// Reset clears every field and focuses the first.
func (p *PasswordForm) Reset() tea.Cmd {
	for _, field := range p.fields {
		field.SetValue("")
	}
	p.err = ""
	p.focus = 0
	return p.applyFocus()
}

func (p *PasswordForm) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i, field := range p.fields {
		if i == p.focus {
			cmd = field.Focus()
		} else {
			field.Blur()
		}
	}
	return cmd
}

// Update handles a key press.
func (p *PasswordForm) Update(ctx context.Context, msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	n := len(p.fields) + 1
	switch {
	case key.Matches(keyMsg, p.keys.Next):
		p.focus = (p.focus + 1) % n
		return p.applyFocus()
	case key.Matches(keyMsg, p.keys.Prev):
		p.focus = (p.focus + n - 1) % n
		return p.applyFocus()
	case key.Matches(keyMsg, p.keys.Back):
		return func() tea.Msg { return PasswordCancelledMsg{} }
	case key.Matches(keyMsg, p.keys.Submit):
		if p.submit(ctx) {
			return func() tea.Msg { return PasswordChangedMsg{} }
		}
		return nil
	}
	if p.focus < len(p.fields) {
		return p.fields[p.focus].Update(keyMsg)
	}
	return nil
}

// submit validates the fields and calls ChangePassword. It reports success.
func (p *PasswordForm) submit(ctx context.Context) bool {
	current, next, confirm := p.fields[0].Value(), p.fields[1].Value(), p.fields[2].Value()
	p.err = ""

	switch {
	case p.validate.Var(current, "required") != nil:
		p.err = MsgCurrentRequired
		return false
	case p.validate.Var(next, fmt.Sprintf("min=%d", p.minLen)) != nil:
		p.err = login.MsgPasswordTooShort(p.minLen)
		return false
	case p.validate.VarWithValue(confirm, next, "eqfield") != nil:
		p.err = login.MsgPasswordMismatch
		return false
	}

	err := p.auth.ChangePassword(ctx, current, next)
	var pe *security.PolicyError
	switch {
	case err == nil:
		p.Reset()
		return true
	case errors.Is(err, security.ErrInvalidCredentials):
		p.err = MsgCurrentIncorrect
	case errors.Is(err, security.ErrNotAuthenticated):
		p.err = MsgNotSignedIn
	case errors.As(err, &pe):
		p.err = upperFirst(pe.Error())
	default:
		p.err = login.MsgUnexpected
	}
	return false
}

// View renders the form centered in width x height.
func (p *PasswordForm) View(theme *styles.Theme, width, height int) string {
	parts := []string{
		theme.FormTitle.Render("Change password"),
		theme.FormSubtitle.Render("Enter your current password to confirm the change"),
		"",
	}
	for i, field := range p.fields {
		parts = append(parts, field.View(theme))
		if i == 2 && p.hint != "" {
			parts = append(parts, theme.Hint.Render(p.hint))
		}
	}
	if p.err != "" {
		parts = append(parts, theme.FieldError.Render(styles.StatusIndicators.Error+" "+p.err))
	}

	button := theme.Button
	if p.focus == len(p.fields) {
		button = theme.ButtonFocused
	}
	parts = append(parts, "", button.Render("Update Password"))

	box := theme.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
