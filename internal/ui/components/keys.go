// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// FORM KEYS
// =============================================================================

// FormKeyMap defines the bindings shared by the sign-in and password forms.
type FormKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Toggle key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// DefaultFormKeyMap returns the default form bindings.
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k FormKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Back, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k FormKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Toggle},
		{k.Submit, k.Back, k.Quit},
	}
}

// =============================================================================
// DASHBOARD KEYS
// =============================================================================

// DashboardKeyMap defines the bindings on the landing screen.
type DashboardKeyMap struct {
	ChangePassword key.Binding
	Help           key.Binding
	Logout         key.Binding
	Dismiss        key.Binding
	Quit           key.Binding
}

// DefaultDashboardKeyMap returns the default landing bindings.
func DefaultDashboardKeyMap() DashboardKeyMap {
	return DashboardKeyMap{
		ChangePassword: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "change password"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss notification"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k DashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ChangePassword, k.Help, k.Logout, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k DashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ChangePassword, k.Help},
		{k.Logout, k.Dismiss, k.Quit},
	}
}

// =============================================================================
// OVERLAY KEYS
// =============================================================================

// OverlayKeyMap defines the bindings of the session timeout overlay.
type OverlayKeyMap struct {
	Extend key.Binding
	Logout key.Binding
}

// DefaultOverlayKeyMap returns the default overlay bindings.
func DefaultOverlayKeyMap() OverlayKeyMap {
	return OverlayKeyMap{
		Extend: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter/e", "extend session"),
		),
		Logout: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log out now"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k OverlayKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Extend, k.Logout}
}

// FullHelp implements help.KeyMap.
func (k OverlayKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Extend, k.Logout}}
}

// =============================================================================
// PAGER KEYS
// =============================================================================

// PagerKeyMap defines the bindings of the help screen.
type PagerKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Close key.Binding
}

// DefaultPagerKeyMap returns the default help screen bindings.
func DefaultPagerKeyMap() PagerKeyMap {
	return PagerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "?", "q"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k PagerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Close}
}

// FullHelp implements help.KeyMap.
func (k PagerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
