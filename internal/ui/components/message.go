// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/flowos-tui/internal/model"
	"github.com/jeranaias/flowos-tui/internal/ui/styles"
	"github.com/jeranaias/flowos-tui/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders a single chat message.
type MessageBubble struct {
	Message       *model.Message
	Width         int
	ShowTimestamp bool
	Streaming     bool

	// Selected holds the indices chosen from this message's match
	// results. Only meaningful for KindMatches messages.
	Selected map[int]bool

	theme *styles.Theme
}

// NewMessageBubble creates a message bubble for the given message.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	if msg == nil {
		msg = &model.Message{Role: model.RoleSystem}
	}
	if theme == nil {
		theme = styles.NewTheme()
	}
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		Streaming:     msg.IsStreaming,
		theme:         theme,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message.Kind == model.KindMatches {
		return b.renderMatchCards()
	}

	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUserBubble()
	case model.RoleAssistant:
		return b.renderAssistantBubble()
	default:
		return b.renderSystemBubble()
	}
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.Content
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-8)

	bubble := b.theme.UserBubble.Width(contentWidth).Render(wrapped)

	header := b.theme.Hint.Render("你")
	if b.ShowTimestamp {
		header += " " + b.renderTimestamp()
	}

	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}
	marginStyle := lipgloss.NewStyle().MarginLeft(leftMargin)

	return lipgloss.JoinVertical(lipgloss.Right,
		marginStyle.Render(header),
		marginStyle.Render(bubble),
	)
}

// ==========================================================================
// ASSISTANT BUBBLE - Purple tones, left-aligned
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	content := b.Message.Content
	if b.Streaming {
		content += "▋"
	}
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-8)

	bubble := b.theme.AssistantBubble.Width(contentWidth).Render(wrapped)

	header := b.theme.Hint.Render("搭子助手")
	if b.ShowTimestamp {
		header += " " + b.renderTimestamp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

// ==========================================================================
// SYSTEM BUBBLE - Amber tones, centered
// ==========================================================================

func (b *MessageBubble) renderSystemBubble() string {
	content := b.Message.Content
	if content == "" {
		content = "系统消息"
	}

	maxContentWidth := b.Width - 20
	if maxContentWidth < 30 {
		maxContentWidth = 30
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-16)

	bubbleStyle := b.theme.SystemBubble.Width(contentWidth)

	centerStyle := lipgloss.NewStyle().
		Width(b.Width).
		Align(lipgloss.Center)

	header := b.theme.Hint.Render("系统")
	if b.ShowTimestamp {
		header += " " + b.renderTimestamp()
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		centerStyle.Render(header),
		centerStyle.Render(bubbleStyle.Render(wrapped)),
	)
}

// ==========================================================================
// MATCH CARDS - One card per match result
// ==========================================================================

func (b *MessageBubble) renderMatchCards() string {
	matches := b.Message.Matches
	if len(matches) == 0 {
		return b.renderSystemBubble()
	}

	maxCardWidth := b.Width - 8
	if maxCardWidth < 30 {
		maxCardWidth = 30
	}

	parts := []string{b.theme.HeaderTitle.Render("🎯 为你找到这些搭子：")}
	for i, m := range matches {
		parts = append(parts, b.renderMatchCard(i, m, maxCardWidth))
	}

	parts = append(parts, b.theme.Hint.Render("按 1-3 选择搭子，按 p 推送联系方式"))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *MessageBubble) renderMatchCard(index int, m model.MatchResult, width int) string {
	selected := b.Selected[index]

	// Keep each line inside the card; padding and border eat 6 columns.
	lineWidth := minInt(width, b.Width-8) - 6
	if lineWidth < 10 {
		lineWidth = 10
	}

	var lines []string
	marker := "  "
	if selected {
		marker = "✓ "
	}
	lines = append(lines,
		marker+m.Person.Avatar+" "+m.Person.Name+"  "+util.IntToString(m.Score)+"分")
	lines = append(lines, "   "+util.TruncateWidth(m.Person.School, lineWidth-3))
	lines = append(lines, "   "+util.TruncateWidth("兴趣："+strings.Join(m.Person.Interests, "、"), lineWidth-3))

	cardStyle := b.theme.MatchCard
	if selected {
		cardStyle = b.theme.MatchCardActive
	}

	return cardStyle.Width(minInt(width, b.Width-8)).Render(strings.Join(lines, "\n"))
}

// renderTimestamp renders the message time, dimmed.
func (b *MessageBubble) renderTimestamp() string {
	return b.theme.Timestamp.Render(formatTime(b.Message.Timestamp))
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders a sequence of messages.
type MessageList struct {
	Messages []*model.Message
	Width    int

	// SelectedMatches is the selection set applied to the newest match
	// message only. Older match messages render unselected.
	SelectedMatches map[int]bool

	theme *styles.Theme
}

// NewMessageList creates a message list renderer.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width: 80,
		theme: theme,
	}
}

// View renders all messages separated by blank lines.
func (l *MessageList) View() string {
	if len(l.Messages) == 0 {
		return ""
	}

	latestMatch := -1
	for i := len(l.Messages) - 1; i >= 0; i-- {
		if l.Messages[i].Kind == model.KindMatches {
			latestMatch = i
			break
		}
	}

	var parts []string
	for i, msg := range l.Messages {
		bubble := NewMessageBubble(msg, l.theme)
		bubble.SetWidth(l.Width)
		if i == latestMatch {
			bubble.Selected = l.SelectedMatches
		}
		parts = append(parts, bubble.View())
	}

	return strings.Join(parts, "\n\n")
}

// =============================================================================
// HELPERS
// =============================================================================

// wordWrap wraps text at the given display width. CJK text without spaces
// is wrapped per rune; spaced text is wrapped at word boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for lineIdx, line := range strings.Split(text, "\n") {
		if lineIdx > 0 {
			result.WriteString("\n")
		}
		result.WriteString(wrapLine(line, width))
	}
	return result.String()
}

func wrapLine(line string, width int) string {
	if util.StringWidth(line) <= width {
		return line
	}

	words := strings.Fields(line)
	if len(words) <= 1 {
		return wrapRunes(line, width)
	}

	var result strings.Builder
	current := words[0]
	for _, word := range words[1:] {
		if util.StringWidth(current)+1+util.StringWidth(word) <= width {
			current += " " + word
			continue
		}
		result.WriteString(wrapRunes(current, width))
		result.WriteString("\n")
		current = word
	}
	result.WriteString(wrapRunes(current, width))
	return result.String()
}

// wrapRunes hard-wraps a single unbreakable run at the display width.
func wrapRunes(s string, width int) string {
	if util.StringWidth(s) <= width {
		return s
	}

	var result strings.Builder
	var current strings.Builder
	currentWidth := 0
	for _, r := range s {
		rw := util.StringWidth(string(r))
		if currentWidth+rw > width {
			result.WriteString(current.String())
			result.WriteString("\n")
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(r)
		currentWidth += rw
	}
	result.WriteString(current.String())
	return result.String()
}

// maxLineWidth returns the widest display width among the lines of text.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		if w := util.StringWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// formatTime formats a time as "15:04".
func formatTime(t time.Time) string {
	return t.Format("15:04")
}
