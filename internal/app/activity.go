// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/verifier-tui/internal/security"
)

// activityKind maps terminal input to the activity kind it counts as.
// Mouse releases and non-input messages do not count.
func activityKind(msg tea.Msg) (security.ActivityKind, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return security.ActivityKeyDown, true
	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp, tea.MouseWheelDown:
			return security.ActivityScroll, true
		case tea.MouseMotion:
			return security.ActivityPointerMove, true
		case tea.MouseLeft, tea.MouseRight, tea.MouseMiddle:
			return security.ActivityPointerDown, true
		}
	}
	return 0, false
}
