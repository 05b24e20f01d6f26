// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/flowos-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER
// =============================================================================

// Spinner is a loading spinner shown while waiting for first tokens or
// search results.
type Spinner struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	isActive  bool
	showTimer bool
}

// NewSpinner creates a spinner with ASCII-safe frames.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	return Spinner{
		spinner:   s,
		message:   message,
		showTimer: true,
	}
}

// Start activates the spinner and resets the timer.
func (s *Spinner) Start() tea.Cmd {
	s.isActive = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	return s.isActive
}

// SetMessage updates the label shown beside the spinner.
func (s *Spinner) SetMessage(message string) {
	s.message = message
}

// Update advances the animation.
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	if !s.isActive {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// View renders the spinner line, empty when inactive.
func (s *Spinner) View() string {
	if !s.isActive {
		return ""
	}

	line := s.spinner.View() + " " + s.message
	if s.showTimer {
		elapsed := time.Since(s.startTime).Round(time.Second)
		timerStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		line += " " + timerStyle.Render("("+elapsed.String()+")")
	}
	return line
}
