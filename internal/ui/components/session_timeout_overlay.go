// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/verifier-tui/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// SessionTimeoutOverlay warns that the idle session is about to expire and
// offers to extend it.
type SessionTimeoutOverlay struct {
	// State
	visible       bool
	timeRemaining time.Duration

	keys OverlayKeyMap

	// Dimensions
	width  int
	height int
}

// NewSessionTimeoutOverlay creates a hidden overlay.
func NewSessionTimeoutOverlay() SessionTimeoutOverlay {
	return SessionTimeoutOverlay{keys: DefaultOverlayKeyMap()}
}

// SetSize sets the overlay dimensions.
func (o *SessionTimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// Show displays the overlay with the given time remaining.
func (o *SessionTimeoutOverlay) Show(remaining time.Duration) {
	o.visible = true
	o.timeRemaining = remaining
}

// Hide hides the overlay.
func (o *SessionTimeoutOverlay) Hide() {
	o.visible = false
}

// UpdateTime updates the countdown.
func (o *SessionTimeoutOverlay) UpdateTime(remaining time.Duration) {
	o.timeRemaining = remaining
}

// IsVisible returns whether the overlay is currently visible.
func (o SessionTimeoutOverlay) IsVisible() bool {
	return o.visible
}

// TimeRemaining returns the current time remaining.
func (o SessionTimeoutOverlay) TimeRemaining() time.Duration {
	return o.timeRemaining
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// ExtendSessionMsg is emitted when the user chooses to stay signed in.
type ExtendSessionMsg struct{}

// LogoutRequestMsg is emitted when the user chooses to sign out now.
type LogoutRequestMsg struct{}

// Update handles keys while the overlay is visible. The second result
// reports whether the key was consumed.
func (o SessionTimeoutOverlay) Update(msg tea.Msg) (SessionTimeoutOverlay, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if !o.visible {
			return o, nil, false
		}
		switch {
		case key.Matches(msg, o.keys.Extend):
			o.Hide()
			return o, func() tea.Msg { return ExtendSessionMsg{} }, true
		case key.Matches(msg, o.keys.Logout):
			o.Hide()
			return o, func() tea.Msg { return LogoutRequestMsg{} }, true
		}
	}
	return o, nil, false
}

// View renders the overlay, or "" when hidden.
func (o SessionTimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}

	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 64 {
		maxWidth = 64
	}

	timeStr := FormatTimeRemaining(o.timeRemaining)

	var parts []string

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Warning+" Session Timeout Warning"))
	parts = append(parts, "")

	timeStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)
	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 8).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render(
		"Your session will expire in "+timeStyle.Render(timeStr)+" due to inactivity."))
	parts = append(parts, "")

	noteStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(maxWidth - 8).
		Align(lipgloss.Center)
	parts = append(parts, noteStyle.Render(
		"To protect your account you will be signed out automatically when the timer reaches zero."))
	parts = append(parts, "")

	extend := lipgloss.NewStyle().
		Foreground(styles.TextInverse).
		Background(styles.Amber).
		Bold(true).
		Padding(0, 2).
		Render("Extend Session")
	logout := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Padding(0, 2).
		Render("Log out now")
	parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Center, extend, "  ", logout))
	parts = append(parts, "")

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	parts = append(parts, hintStyle.Render(fmt.Sprintf("%s extend   %s log out",
		o.keys.Extend.Help().Key, o.keys.Logout.Help().Key)))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Amber).
		Padding(1, 3).
		Width(maxWidth).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// FormatTimeRemaining formats a duration as M:SS, rounding partial seconds
// up so the countdown reaches 0:00 only at expiry.
func FormatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	totalSecs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", totalSecs/60, totalSecs%60)
}
