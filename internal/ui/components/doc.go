// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the screens and widgets of the verifier TUI.

Components are built on Bubble Tea, Bubbles and Lip Gloss. They hold view
state only; authentication and session state live in the security and login
packages and are passed in.

# Forms

LoginForm (login_form.go) - Renders a login.Flow. Submissions are delayed by
the configured latency and come back as LoginDueMsg.

PasswordForm (password_form.go) - Current, new and confirm fields for a
password change.

TextField (input.go) - Labeled single-line input shared by both forms.

# Display

RenderDashboard (dashboard.go) - Signed-in identity and session gauge.

HelpView (help.go) - Glamour-rendered help in a scrollable viewport.

SessionTimeoutOverlay (session_timeout_overlay.go) - Countdown shown before
an idle sign-out, with extend and log out actions.

# Notifications

Notifier (notifier.go) - Toast stack with clock-driven auto-dismiss.

	n := components.NewNotifier(clk)
	n.Add("Welcome back", components.KindSuccess)
	n.AddFor("Session expired", components.KindWarning, 0) // stays until removed

# Key Bindings

Key maps (keys.go) implement help.KeyMap so the footer can render them with
bubbles/help.
*/
package components
