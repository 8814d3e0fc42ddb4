// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/verifier-tui/internal/ui/styles"
)

// =============================================================================
// TEXT FIELD - labeled single-line input
// =============================================================================

// TextField is a labeled text input used by the forms.
type TextField struct {
	Label string
	input textinput.Model
}

// NewTextField creates a field. Secret fields echo bullets.
func NewTextField(label, placeholder string, secret bool) *TextField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 32
	ti.Prompt = ""

	ti.TextStyle = lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	ti.PlaceholderStyle = lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	ti.Cursor.Style = lipgloss.NewStyle().
		Foreground(styles.Cyan)

	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}

	return &TextField{Label: label, input: ti}
}

// Focus focuses the field.
func (f *TextField) Focus() tea.Cmd {
	return f.input.Focus()
}

// Blur removes focus from the field.
func (f *TextField) Blur() {
	f.input.Blur()
}

// Focused returns whether the field has focus.
func (f *TextField) Focused() bool {
	return f.input.Focused()
}

// SetWidth sets the visible width of the text.
func (f *TextField) SetWidth(width int) {
	if width < 12 {
		width = 12
	}
	f.input.Width = width
}

// SetCharLimit limits the input length.
func (f *TextField) SetCharLimit(n int) {
	f.input.CharLimit = n
}

// Value returns the current value.
func (f *TextField) Value() string {
	return f.input.Value()
}

// SetValue replaces the value; it is a no-op when unchanged so the cursor
// stays put while typing.
func (f *TextField) SetValue(v string) {
	if f.input.Value() == v {
		return
	}
	f.input.SetValue(v)
	f.input.CursorEnd()
}

// Update feeds a message to the input.
func (f *TextField) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

// View renders the label above a bordered input.
func (f *TextField) View(theme *styles.Theme) string {
	box := theme.Field
	if f.input.Focused() {
		box = theme.FieldFocused
	}
	var b strings.Builder
	b.WriteString(theme.Label.Render(f.Label))
	b.WriteString("\n")
	b.WriteString(box.Width(f.input.Width + 3).Render(f.input.View()))
	return b.String()
}
