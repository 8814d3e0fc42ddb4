// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted in configuration.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// FRAME
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderUser  lipgloss.Style
	Footer      lipgloss.Style
	ShortcutKey lipgloss.Style
	ShortcutDsc lipgloss.Style

	// ==========================================================================
	// FORMS
	// ==========================================================================

	FormBox       lipgloss.Style
	FormTitle     lipgloss.Style
	FormSubtitle  lipgloss.Style
	Label         lipgloss.Style
	Field         lipgloss.Style
	FieldFocused  lipgloss.Style
	Checkbox      lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonBusy    lipgloss.Style
	Link          lipgloss.Style
	LinkFocused   lipgloss.Style
	FieldError    lipgloss.Style
	Hint          lipgloss.Style

	// ==========================================================================
	// DASHBOARD
	// ==========================================================================

	Card        lipgloss.Style
	CardTitle   lipgloss.Style
	StatLabel   lipgloss.Style
	StatValue   lipgloss.Style
	GaugeOK     lipgloss.Style
	GaugeWarn   lipgloss.Style
	GaugeDanger lipgloss.Style

	// ==========================================================================
	// NOTIFICATIONS
	// ==========================================================================

	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style
}

// NewTheme creates a theme. mode is auto, dark or light; auto asks the
// terminal.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()

	// Frame
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)
	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.Footer = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ShortcutDsc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Forms
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 3)
	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)
	t.FormSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)
	t.Field = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)
	t.FieldFocused = t.Field.
		BorderForeground(Indigo)
	t.Checkbox = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.Button = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(Overlay).
		Padding(0, 2)
	t.ButtonFocused = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Bold(true).
		Padding(0, 2)
	t.ButtonBusy = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(Overlay).
		Padding(0, 2)
	t.Link = lipgloss.NewStyle().
		Foreground(Cyan)
	t.LinkFocused = lipgloss.NewStyle().
		Foreground(Cyan).
		Underline(true).
		Bold(true)
	t.FieldError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Dashboard
	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 2)
	t.CardTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)
	t.StatLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.StatValue = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)
	t.GaugeOK = lipgloss.NewStyle().Foreground(Emerald)
	t.GaugeWarn = lipgloss.NewStyle().Foreground(Amber)
	t.GaugeDanger = lipgloss.NewStyle().Foreground(Rose)

	// Notifications
	toast := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)
	t.ToastInfo = toast.BorderForeground(Cyan).Foreground(TextPrimary)
	t.ToastSuccess = toast.BorderForeground(Emerald).Foreground(TextPrimary)
	t.ToastWarning = toast.BorderForeground(Amber).Foreground(TextPrimary)
	t.ToastError = toast.BorderForeground(Rose).Foreground(TextPrimary)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
