// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{500 * time.Millisecond, "0:01"},
		{59 * time.Second, "0:59"},
		{5 * time.Minute, "5:00"},
		{4*time.Minute + 59*time.Second + 100*time.Millisecond, "5:00"},
		{12*time.Minute + 5*time.Second, "12:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimeRemaining(tt.in), tt.in.String())
	}
}

func TestSessionTimeoutOverlay_ShowHide(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	assert.False(t, o.IsVisible())
	assert.Empty(t, o.View())

	o.SetSize(80, 24)
	o.Show(5 * time.Minute)
	assert.True(t, o.IsVisible())
	view := o.View()
	assert.Contains(t, view, "Session Timeout Warning")
	assert.Contains(t, view, "5:00")
	assert.Contains(t, view, "Extend Session")

	o.UpdateTime(61 * time.Second)
	assert.Equal(t, 61*time.Second, o.TimeRemaining())
	assert.Contains(t, o.View(), "1:01")

	o.Hide()
	assert.Empty(t, o.View())
}

func TestSessionTimeoutOverlay_Keys(t *testing.T) {
	o := NewSessionTimeoutOverlay()

	_, cmd, consumed := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, consumed, "hidden overlay ignores keys")
	assert.Nil(t, cmd)

	o.Show(time.Minute)
	o, cmd, consumed = o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, consumed)
	require.NotNil(t, cmd)
	assert.IsType(t, ExtendSessionMsg{}, cmd())
	assert.False(t, o.IsVisible())

	o.Show(time.Minute)
	o, cmd, consumed = o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	assert.True(t, consumed)
	require.NotNil(t, cmd)
	assert.IsType(t, LogoutRequestMsg{}, cmd())

	o.Show(time.Minute)
	_, cmd, consumed = o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")})
	assert.False(t, consumed, "other keys count as activity upstream")
	assert.Nil(t, cmd)
}
