// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/verifier-tui/internal/config"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// RunMsg carries a deferred callback onto the update loop. Timer callbacks
// of the dispatched clock arrive this way, so session state is only ever
// touched by the loop.
type RunMsg func()

// ConfigReloadedMsg is sent when config.toml changed and loaded cleanly.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg is sent when a changed config.toml could not be loaded.
type ConfigErrorMsg struct {
	Err error
}

// ClockTickMsg refreshes countdowns once per second.
type ClockTickMsg struct {
	Time time.Time
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return ClockTickMsg{Time: t}
	})
}
