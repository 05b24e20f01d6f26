// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/flowos-tui/internal/ui/styles"
)

// =============================================================================
// WELCOME BANNER
// =============================================================================

// WelcomeBanner renders the greeting shown on first start and after reset.
type WelcomeBanner struct {
	Width int
	theme *styles.Theme
}

// NewWelcomeBanner creates a welcome banner.
func NewWelcomeBanner(theme *styles.Theme) *WelcomeBanner {
	return &WelcomeBanner{
		Width: 80,
		theme: theme,
	}
}

// SetWidth sets the banner width.
func (w *WelcomeBanner) SetWidth(width int) {
	w.Width = width
}

// View renders the banner.
func (w *WelcomeBanner) View() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		w.theme.HeaderTitle.Render("🤝 FlowOS 搭子匹配"),
		"",
		w.theme.HeaderSubtitle.Render("描述你理想中的搭子，我来帮你找到 TA"),
	)

	centerStyle := lipgloss.NewStyle().
		Width(w.Width).
		Align(lipgloss.Center)

	return centerStyle.Render(w.theme.Header.Render(content))
}
