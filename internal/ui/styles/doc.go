// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the verifier TUI.

All colors use Lip Gloss AdaptiveColor so the same palette works on light and
dark terminals.

# Color System (colors.go)

  - Indigo - brand, focused fields and primary buttons
  - Cyan - info, links and key hints
  - Emerald - success and a healthy session gauge
  - Amber - the session timeout warning
  - Rose - errors and expiry

Status helpers (RenderSuccess, RenderError, RenderWarning, RenderInfo) prefix
an ASCII indicator so meaning never depends on color alone.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme) // auto, dark or light
	box := theme.FormBox.Render(content)

# Animation System (animations.go)

LineSpinner animates busy buttons; RenderProgressBar draws the session time
gauge.
*/
package styles
