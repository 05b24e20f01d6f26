// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION STAGE
// =============================================================================

// ChatStage is the phase of the matching conversation.
//
// The stage only ever moves forward: initial -> refining -> final.
// Reset creates a fresh conversation rather than rewinding the stage.
type ChatStage int

const (
	// StageInitial is the opening phase before the user has described anyone.
	StageInitial ChatStage = iota
	// StageRefining is the back-and-forth phase where requirements are refined.
	StageRefining
	// StageFinal is reached once the user confirms, triggering matching.
	StageFinal
)

// String returns the stage name used in persistence and logs.
func (s ChatStage) String() string {
	switch s {
	case StageInitial:
		return "initial"
	case StageRefining:
		return "refining"
	case StageFinal:
		return "final"
	default:
		return "unknown"
	}
}

// ParseStage converts a persisted stage name back to a ChatStage.
// Unknown names map to StageInitial.
func ParseStage(s string) ChatStage {
	switch s {
	case "refining":
		return StageRefining
	case "final":
		return StageFinal
	default:
		return StageInitial
	}
}
