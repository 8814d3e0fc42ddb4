// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/verifier-tui/internal/security"
	"github.com/jeranaias/verifier-tui/internal/storage"
	"github.com/jeranaias/verifier-tui/internal/ui/styles"
	"github.com/jeranaias/verifier-tui/internal/util"
)

// =============================================================================
// LANDING DASHBOARD
// =============================================================================

// DashboardData is the snapshot the landing screen renders.
type DashboardData struct {
	Identity     security.Identity
	SessionID    string
	State        security.MonitorState
	TimeLeft     time.Duration
	Timeout      time.Duration
	LastActivity time.Time
}

// RenderDashboard renders the signed-in landing screen.
func RenderDashboard(theme *styles.Theme, d DashboardData, width int) string {
	if width <= 0 {
		width = 80
	}
	cardWidth := width - 4
	if cardWidth > 72 {
		cardWidth = 72
	}
	valueWidth := cardWidth - 22

	row := func(label, value string) string {
		return theme.StatLabel.Render(util.PadRight(label, 16)) +
			theme.StatValue.Render(util.Truncate(value, valueWidth))
	}

	scope := "Session only"
	if d.Identity.Scope == storage.ScopeRemember {
		scope = "Remembered on this device"
	}

	account := lipgloss.JoinVertical(lipgloss.Left,
		theme.CardTitle.Render("Signed in"),
		"",
		row("User", d.Identity.Username),
		row("Role", string(d.Identity.Role)),
		row("Sign-in", scope),
	)

	session := lipgloss.JoinVertical(lipgloss.Left,
		theme.CardTitle.Render("Session"),
		"",
		row("State", d.State.String()),
		row("Session ID", shortID(d.SessionID)),
		row("Last activity", formatClock(d.LastActivity)),
		row("Idle timeout", formatMinutes(d.Timeout)),
		"",
		renderGauge(theme, d, cardWidth-6),
	)

	card := theme.Card.Width(cardWidth)
	return lipgloss.JoinVertical(lipgloss.Left,
		card.Render(account),
		card.Render(session),
	)
}

// renderGauge draws the time-left bar, colored by how close expiry is.
func renderGauge(theme *styles.Theme, d DashboardData, width int) string {
	label := "Time left " + FormatTimeRemaining(d.TimeLeft)
	barWidth := width - util.Width(label) - 1
	if barWidth < 10 {
		barWidth = 10
	}

	percent := 0.0
	if d.Timeout > 0 {
		percent = float64(d.TimeLeft) / float64(d.Timeout) * 100
	}

	style := theme.GaugeOK
	switch {
	case d.State == security.MonitorWarning:
		style = theme.GaugeDanger
	case percent < 50:
		style = theme.GaugeWarn
	}
	return style.Render(styles.RenderProgressBar(barWidth, percent)) + " " + theme.StatLabel.Render(label)
}

func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("15:04:05")
}

func formatMinutes(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
