// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, "", RenderProgressBar(0, 50))
	assert.Equal(t, "----------", RenderProgressBar(10, 0))
	assert.Equal(t, "#####-----", RenderProgressBar(10, 50))
	assert.Equal(t, "##########", RenderProgressBar(10, 150))
	assert.Equal(t, "----------", RenderProgressBar(10, -5))
}

func TestSpinnerFrame(t *testing.T) {
	assert.Equal(t, "|", LineSpinner.Frame(0))
	assert.Equal(t, "|", LineSpinner.Frame(4))
	assert.Equal(t, "-", LineSpinner.Frame(2))
	assert.Equal(t, "", SpinnerConfig{}.Frame(3))
	assert.Greater(t, LineSpinner.Duration().Milliseconds(), int64(0))
}

func TestNewTheme_ForcedModes(t *testing.T) {
	assert.True(t, NewTheme(ModeDark).IsDark)
	assert.False(t, NewTheme(ModeLight).IsDark)
}

func TestLayoutMode(t *testing.T) {
	th := NewTheme(ModeDark)
	th.SetSize(40, 20)
	assert.Equal(t, LayoutNarrow, th.GetLayoutMode())
	th.SetSize(80, 20)
	assert.Equal(t, LayoutMedium, th.GetLayoutMode())
	th.SetSize(120, 20)
	assert.Equal(t, LayoutWide, th.GetLayoutMode())
}

func TestStatusRenderersKeepIndicator(t *testing.T) {
	assert.True(t, strings.Contains(RenderError("nope"), StatusIndicators.Error))
	assert.True(t, strings.Contains(RenderWarning("careful"), StatusIndicators.Warning))
	assert.True(t, strings.Contains(RenderSuccess("done"), StatusIndicators.Success))
	assert.True(t, strings.Contains(RenderInfo("fyi"), "fyi"))
}
