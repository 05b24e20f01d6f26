// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()

	assert.NotNil(t, theme)
	// Styles are usable immediately after construction
	assert.NotPanics(t, func() {
		theme.UserBubble.Render("hello")
		theme.AssistantBubble.Render("world")
		theme.MatchCard.Render("card")
		theme.StatusBar.Render("status")
	})
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)

	assert.Equal(t, 120, theme.Width)
	assert.Equal(t, 40, theme.Height)
}

func TestRenderHelpersIncludeIndicators(t *testing.T) {
	assert.Contains(t, RenderSuccess("saved"), StatusIndicators.Success)
	assert.Contains(t, RenderError("failed"), StatusIndicators.Error)
	assert.Contains(t, RenderWarning("careful"), StatusIndicators.Warning)
	assert.Contains(t, RenderInfo("note"), StatusIndicators.Info)
}

func TestRenderStatus(t *testing.T) {
	assert.Contains(t, RenderStatus(true, "up"), StatusIndicators.Success)
	assert.Contains(t, RenderStatus(false, "down"), StatusIndicators.Error)
}

func TestAdaptiveColorsDefined(t *testing.T) {
	colors := []struct {
		name  string
		light string
		dark  string
	}{
		{"Purple", Purple.Light, Purple.Dark},
		{"Cyan", Cyan.Light, Cyan.Dark},
		{"Emerald", Emerald.Light, Emerald.Dark},
		{"Rose", Rose.Light, Rose.Dark},
		{"MatchCardBorder", MatchCardBorder.Light, MatchCardBorder.Dark},
	}

	for _, c := range colors {
		assert.NotEmpty(t, c.light, c.name)
		assert.NotEmpty(t, c.dark, c.name)
	}
}
