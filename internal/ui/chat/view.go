// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/flowos-tui/internal/ui/components"
)

// =============================================================================
// LAYOUT
// =============================================================================

// chromeHeight is the vertical space reserved around the viewport:
// header, input line, status bar and their separators.
const chromeHeight = 7

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.theme.SetSize(msg.Width, msg.Height)
	m.welcome.SetWidth(msg.Width)
	m.statusBar.SetWidth(msg.Width)
	m.input.Width = msg.Width - 6

	vpHeight := msg.Height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight

	m.ready = true
	m.syncViewport()
	return m, nil
}

// syncViewport re-renders the message list and keeps the view pinned to
// the newest message.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}

	list := components.NewMessageList(m.theme)
	list.Messages = m.conv.Messages
	list.Width = m.viewport.Width
	list.SelectedMatches = m.selection

	m.viewport.SetContent(list.View())
	m.viewport.GotoBottom()
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the full chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "加载中…"
	}

	var b strings.Builder

	b.WriteString(m.welcome.View())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.spinner.IsActive() {
		b.WriteString(m.spinner.View())
	}
	b.WriteString("\n")

	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(
		m.theme.InputPrompt.Render("> ") + m.input.View(),
	))
	b.WriteString("\n")

	m.statusBar.Stage = m.conv.Stage
	m.statusBar.Streaming = m.streaming
	b.WriteString(m.statusBar.View())

	return b.String()
}
