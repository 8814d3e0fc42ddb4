// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/verifier-tui/internal/login"
	"github.com/jeranaias/verifier-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// LoginDueMsg carries a submitted operation once its latency has elapsed.
type LoginDueMsg struct {
	Op *login.Operation
}

// SpinnerTickMsg advances the busy indicator on the submit button.
type SpinnerTickMsg struct{}

func spinnerTick() tea.Cmd {
	return tea.Tick(styles.LineSpinner.Duration(), func(time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}

// =============================================================================
// CONTROLS
// =============================================================================

type control int

const (
	ctlUsername control = iota
	ctlPassword
	ctlConfirm
	ctlCode
	ctlRemember
	ctlSubmit
	ctlTwoFactor
	ctlCreate
	ctlForgot
	ctlBack
)

func (c control) isField() bool {
	return c <= ctlCode
}

// controls lists the focusable controls of a step in tab order.
func controls(step login.Step) []control {
	switch step {
	case login.StepTwoFactor:
		return []control{ctlCode, ctlSubmit, ctlBack}
	case login.StepCreateUsername, login.StepForgotPassword:
		return []control{ctlUsername, ctlSubmit, ctlBack}
	case login.StepCreatePassword:
		return []control{ctlPassword, ctlConfirm, ctlSubmit, ctlBack}
	case login.StepResetSent:
		return []control{ctlSubmit}
	case login.StepDone:
		return nil
	default:
		return []control{ctlUsername, ctlPassword, ctlRemember, ctlSubmit,
			ctlTwoFactor, ctlCreate, ctlForgot}
	}
}

// =============================================================================
// LOGIN FORM
// =============================================================================

// LoginForm renders a login.Flow and turns key presses into flow calls.
// Submitted operations come back as LoginDueMsg after the configured latency
// and are completed with Complete on the update loop.
type LoginForm struct {
	flow    *login.Flow
	latency time.Duration
	hint    string
	keys    FormKeyMap

	fields map[control]*TextField
	focus  int
	frame  int

	width int
}

// NewLoginForm creates a form over flow. latency delays every submitted
// operation; hint is shown under new password fields.
func NewLoginForm(flow *login.Flow, latency time.Duration, hint string) *LoginForm {
	f := &LoginForm{
		flow:    flow,
		latency: latency,
		hint:    hint,
		keys:    DefaultFormKeyMap(),
		fields: map[control]*TextField{
			ctlUsername: NewTextField("Username", "you@verify.com", false),
			ctlPassword: NewTextField("Password", "", true),
			ctlConfirm:  NewTextField("Confirm password", "", true),
			ctlCode:     NewTextField("Verification code", "000000", false),
		},
	}
	f.syncFields()
	return f
}

// Flow returns the underlying flow.
func (f *LoginForm) Flow() *login.Flow {
	return f.flow
}

// Keys returns the form key map.
func (f *LoginForm) Keys() FormKeyMap {
	return f.keys
}

// SetLatency changes the delay applied to later submissions.
func (f *LoginForm) SetLatency(d time.Duration) {
	f.latency = d
}

// SetHint changes the password rule hint.
func (f *LoginForm) SetHint(hint string) {
	f.hint = hint
}

// SetWidth adapts the field widths.
func (f *LoginForm) SetWidth(width int) {
	f.width = width
	inner := width - 16
	if inner > 40 {
		inner = 40
	}
	for _, field := range f.fields {
		field.SetWidth(inner)
	}
}

// Reset returns to an empty credentials step.
func (f *LoginForm) Reset() tea.Cmd {
	f.flow.Reset()
	f.syncFields()
	return f.refocus()
}

// Init focuses the first control.
func (f *LoginForm) Init() tea.Cmd {
	return f.refocus()
}

func (f *LoginForm) focused() control {
	ctls := controls(f.flow.Step())
	if len(ctls) == 0 {
		return ctlSubmit
	}
	if f.focus >= len(ctls) {
		f.focus = len(ctls) - 1
	}
	return ctls[f.focus]
}

// FocusedField returns the label of the focused text field, or "".
func (f *LoginForm) FocusedField() string {
	if c := f.focused(); c.isField() {
		return f.fields[c].Label
	}
	return ""
}

func (f *LoginForm) refocus() tea.Cmd {
	f.focus = 0
	return f.applyFocus()
}

func (f *LoginForm) applyFocus() tea.Cmd {
	current := f.focused()
	var cmd tea.Cmd
	for c, field := range f.fields {
		if c == current {
			cmd = field.Focus()
		} else {
			field.Blur()
		}
	}
	return cmd
}

func (f *LoginForm) move(delta int) tea.Cmd {
	n := len(controls(f.flow.Step()))
	if n == 0 {
		return nil
	}
	f.focus = (f.focus + delta + n) % n
	return f.applyFocus()
}

// syncFields copies the flow values into the inputs.
func (f *LoginForm) syncFields() {
	f.fields[ctlUsername].SetValue(f.flow.Username())
	f.fields[ctlPassword].SetValue(f.flow.Password())
	f.fields[ctlConfirm].SetValue(f.flow.Confirm())
	f.fields[ctlCode].SetValue(f.flow.Code())
}

// pushField copies one input into the flow and back, so rejected or
// filtered input is visible immediately.
func (f *LoginForm) pushField(c control) {
	v := f.fields[c].Value()
	switch c {
	case ctlUsername:
		f.flow.SetUsername(v)
	case ctlPassword:
		f.flow.SetPassword(v)
	case ctlConfirm:
		f.flow.SetConfirm(v)
	case ctlCode:
		f.flow.SetCode(v)
	}
	f.syncFields()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update handles key presses and spinner ticks.
func (f *LoginForm) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(SpinnerTickMsg); ok {
		if !f.flow.Busy() {
			return nil
		}
		f.frame++
		return spinnerTick()
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if f.flow.Busy() {
		return nil
	}

	current := f.focused()
	switch {
	case key.Matches(keyMsg, f.keys.Next):
		return f.move(1)
	case key.Matches(keyMsg, f.keys.Prev):
		return f.move(-1)
	case key.Matches(keyMsg, f.keys.Back):
		return f.stepChanged(f.flow.Back())
	case key.Matches(keyMsg, f.keys.Submit):
		return f.activate(current)
	case current == ctlRemember && key.Matches(keyMsg, f.keys.Toggle):
		f.flow.ToggleRemember()
		return nil
	}

	if current.isField() {
		cmd := f.fields[current].Update(keyMsg)
		f.pushField(current)
		return cmd
	}
	return nil
}

func (f *LoginForm) activate(c control) tea.Cmd {
	switch c {
	case ctlRemember:
		f.flow.ToggleRemember()
		return nil
	case ctlTwoFactor:
		return f.stepChanged(f.flow.UseTwoFactor())
	case ctlCreate:
		return f.stepChanged(f.flow.StartPasswordCreation())
	case ctlForgot:
		return f.stepChanged(f.flow.StartForgotPassword())
	case ctlBack:
		return f.stepChanged(f.flow.Back())
	}
	if f.flow.Step() == login.StepResetSent {
		return f.stepChanged(f.flow.Back())
	}
	return f.Submit()
}

// Submit validates the current step and schedules its operation.
func (f *LoginForm) Submit() tea.Cmd {
	op := f.flow.Submit()
	if op == nil {
		return nil
	}
	if f.latency <= 0 {
		return func() tea.Msg { return LoginDueMsg{Op: op} }
	}
	f.frame = 0
	return tea.Batch(
		tea.Tick(f.latency, func(time.Time) tea.Msg { return LoginDueMsg{Op: op} }),
		spinnerTick(),
	)
}

// Complete runs a due operation and applies its outcome.
func (f *LoginForm) Complete(ctx context.Context, msg LoginDueMsg) tea.Cmd {
	if msg.Op == nil {
		return nil
	}
	before := f.flow.Step()
	f.flow.Resolve(msg.Op.Run(ctx))
	return f.stepChanged(f.flow.Step() != before)
}

func (f *LoginForm) stepChanged(changed bool) tea.Cmd {
	f.syncFields()
	if !changed {
		return nil
	}
	return f.refocus()
}

// View renders the form centered in width x height.
func (f *LoginForm) View(theme *styles.Theme, width, height int) string {
	var parts []string
	parts = append(parts, theme.FormTitle.Render(f.flow.Title()))
	if sub := f.subtitle(); sub != "" {
		parts = append(parts, theme.FormSubtitle.Render(sub))
	}
	parts = append(parts, "")

	current := f.focused()
	for _, c := range controls(f.flow.Step()) {
		switch {
		case c.isField():
			parts = append(parts, f.fields[c].View(theme))
			if c == ctlConfirm && f.hint != "" {
				parts = append(parts, theme.Hint.Render(f.hint))
			}
		case c == ctlRemember:
			box := "[ ]"
			if f.flow.Remember() {
				box = "[x]"
			}
			style := theme.Checkbox
			if current == c {
				style = style.Underline(true)
			}
			parts = append(parts, style.Render(box+" Remember me"))
		case c == ctlSubmit:
			if msg := f.flow.Error(); msg != "" {
				parts = append(parts, theme.FieldError.Render(styles.StatusIndicators.Error+" "+msg))
			}
			parts = append(parts, "", f.renderButton(theme, current == c))
		default:
			if c == ctlTwoFactor {
				parts = append(parts, "")
			}
			parts = append(parts, f.renderLink(theme, c, current == c))
		}
	}

	box := theme.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (f *LoginForm) subtitle() string {
	switch f.flow.Step() {
	case login.StepTwoFactor:
		return "Enter the 6-digit code from your authenticator app"
	case login.StepCreateUsername:
		return "Enter the username your administrator gave you"
	case login.StepCreatePassword:
		return "Setting a password for " + f.flow.Username()
	case login.StepForgotPassword:
		return "We will send reset instructions to your email"
	case login.StepResetSent:
		return login.MsgResetSent
	default:
		return "Document verification console"
	}
}

func (f *LoginForm) renderButton(theme *styles.Theme, focused bool) string {
	label := f.flow.SubmitLabel()
	switch {
	case f.flow.Busy():
		return theme.ButtonBusy.Render(styles.LineSpinner.Frame(f.frame) + " " + label)
	case focused:
		return theme.ButtonFocused.Render(label)
	default:
		return theme.Button.Render(label)
	}
}

func (f *LoginForm) renderLink(theme *styles.Theme, c control, focused bool) string {
	var label string
	switch c {
	case ctlTwoFactor:
		label = "Use two-factor code"
	case ctlCreate:
		label = "First time? Create your password"
	case ctlForgot:
		label = "Forgot password?"
	case ctlBack:
		label = "Back to Login"
	}
	if focused {
		return theme.LinkFocused.Render("> " + label)
	}
	return theme.Link.Render("  " + label)
}

// String summarizes the step and any error.
func (f *LoginForm) String() string {
	var b strings.Builder
	b.WriteString(f.flow.Step().String())
	if msg := f.flow.Error(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}
