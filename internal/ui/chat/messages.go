// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/flowos-tui/internal/backend"
	"github.com/jeranaias/flowos-tui/internal/config"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTokenMsg carries one token from the streaming goroutine.
type StreamTokenMsg struct {
	Token string
}

// StreamCompleteMsg signals the stream finished cleanly.
type StreamCompleteMsg struct {
	Content string
}

// StreamErrorMsg signals the stream failed, possibly mid-response.
type StreamErrorMsg struct {
	Err     error
	Partial string
}

// StreamTickMsg drives buffered token flushes at the render frame rate.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// POLLING MESSAGES
// =============================================================================

// HealthMsg carries the result of a backend health probe.
type HealthMsg struct {
	Online bool
}

// VisitorsMsg carries the current visitor count.
type VisitorsMsg struct {
	Count int
	// Remote is true when the count came from the analytics service
	// rather than the local counter or a placeholder.
	Remote bool
}

// PollTickMsg fires every poll interval to refresh health and visitors.
type PollTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a freshly reloaded configuration so the
// running model can rebuild its remote clients.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// SEARCH MESSAGES
// =============================================================================

// SearchResultMsg carries candidates found by the search backend.
type SearchResultMsg struct {
	Candidates []backend.Candidate
	Err        error
}
