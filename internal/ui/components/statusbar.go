// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/flowos-tui/internal/model"
	"github.com/jeranaias/flowos-tui/internal/ui/styles"
	"github.com/jeranaias/flowos-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar shows backend health, visitor count, the conversation stage
// and keyboard shortcuts at the bottom of the screen.
type StatusBar struct {
	Width int

	// Backend health, updated by the 30s poll.
	BackendOnline bool
	HealthKnown   bool

	// Visitor count, updated by the 30s poll.
	VisitorCount int
	ShowVisitors bool

	// Current conversation stage.
	Stage model.ChatStage

	// Streaming indicates a response is in flight.
	Streaming bool

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Width:        80,
		ShowVisitors: true,
		theme:        theme,
	}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	left := s.renderHealth() + "  " + s.renderStage()
	if s.ShowVisitors {
		left += "  " + s.renderVisitors()
	}
	if s.Streaming {
		left += "  " + s.theme.Hint.Render("回复中…")
	}

	right := s.renderShortcuts()

	gap := s.Width - util.StringWidth(stripANSI(left)) - util.StringWidth(stripANSI(right)) - 2
	if gap < 1 {
		gap = 1
	}

	bar := left + strings.Repeat(" ", gap) + right
	return s.theme.StatusBar.Width(s.Width).Render(bar)
}

func (s *StatusBar) renderHealth() string {
	if !s.HealthKnown {
		return s.theme.Hint.Render("○ 检测中")
	}
	if s.BackendOnline {
		return s.theme.StatusOnline.Render("● 在线")
	}
	return s.theme.StatusOffline.Render("● 离线")
}

func (s *StatusBar) renderStage() string {
	var label string
	switch s.Stage {
	case model.StageRefining:
		label = "细化中"
	case model.StageFinal:
		label = "已确认"
	default:
		label = "描述中"
	}
	return s.theme.StatusStage.Render(label)
}

func (s *StatusBar) renderVisitors() string {
	return s.theme.Hint.Render("👀 " + util.IntToString(s.VisitorCount))
}

func (s *StatusBar) renderShortcuts() string {
	key := s.theme.ShortcutKey
	desc := s.theme.ShortcutDesc
	return key.Render("ctrl+r") + desc.Render(" 重置 ") +
		key.Render("ctrl+c") + desc.Render(" 退出")
}

// stripANSI removes escape sequences so width math uses visible characters.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
