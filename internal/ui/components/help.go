// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// HELP SCREEN
// =============================================================================

// HelpInfo holds the policy values quoted on the help screen.
type HelpInfo struct {
	SessionTimeout  time.Duration
	WarningLead     time.Duration
	MaxAttempts     int
	LockoutDuration time.Duration
	PasswordRule    string
}

const helpTemplate = `# Verifier console

## Session

You are signed out after **%d minutes** without keyboard or mouse activity.
A warning appears **%d minutes** before that; any key keeps you signed in.

## Sign-in

* After **%d** failed attempts an account is locked for **%d minutes**.
* %s
* Two-factor codes come from the authenticator app enrolled with
  ` + "`verifier users enroll-2fa`" + `.

## Keys

| Key | Action |
|-----|--------|
| p | Change password |
| ? | Toggle this help |
| L | Log out |
| x | Dismiss the newest notification |
| q | Quit |
`

// HelpMarkdown renders the help text for info.
func HelpMarkdown(info HelpInfo) string {
	rule := info.PasswordRule
	if rule == "" {
		rule = "Passwords follow the configured policy."
	}
	return fmt.Sprintf(helpTemplate,
		int(info.SessionTimeout/time.Minute),
		int(info.WarningLead/time.Minute),
		info.MaxAttempts,
		int(info.LockoutDuration/time.Minute),
		rule,
	)
}

// HelpView shows the rendered help in a scrollable viewport.
type HelpView struct {
	viewport viewport.Model
	keys     PagerKeyMap
	markdown string
	dark     bool
	width    int
}

// HelpClosedMsg is emitted when the user closes the help screen.
type HelpClosedMsg struct{}

// NewHelpView creates a help view. dark selects the glamour style.
func NewHelpView(dark bool) *HelpView {
	return &HelpView{
		viewport: viewport.New(80, 20),
		keys:     DefaultPagerKeyMap(),
		dark:     dark,
	}
}

// SetContent replaces the markdown.
func (h *HelpView) SetContent(markdown string) {
	h.markdown = markdown
	h.render()
}

// SetSize resizes the viewport and re-wraps the text.
func (h *HelpView) SetSize(width, height int) {
	h.viewport.Width = width
	h.viewport.Height = height
	if width != h.width {
		h.width = width
		h.render()
	}
}

func (h *HelpView) render() {
	wrap := h.width - 4
	if wrap < 40 {
		wrap = 40
	}
	style := "light"
	if h.dark {
		style = "dark"
	}
	out := h.markdown
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		if rendered, rerr := r.Render(h.markdown); rerr == nil {
			out = strings.TrimRight(rendered, "\n")
		}
	}
	h.viewport.SetContent(out)
	h.viewport.GotoTop()
}

// Update scrolls or closes the view.
func (h *HelpView) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, h.keys.Close) {
		return func() tea.Msg { return HelpClosedMsg{} }
	}
	var cmd tea.Cmd
	h.viewport, cmd = h.viewport.Update(msg)
	return cmd
}

// View renders the viewport.
func (h *HelpView) View() string {
	return h.viewport.View()
}

// Keys returns the pager key map.
func (h *HelpView) Keys() PagerKeyMap {
	return h.keys
}
