// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLES AND KINDS
// =============================================================================

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// MessageKind distinguishes plain chat text from structured payloads.
type MessageKind string

const (
	// KindText is an ordinary chat message.
	KindText MessageKind = "text"
	// KindMatches is an assistant message carrying match results.
	KindMatches MessageKind = "matches"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Message represents a single chat message.
type Message struct {
	// ID uniquely identifies the message.
	ID string `json:"id"`

	// Role is one of RoleUser, RoleAssistant, RoleSystem.
	Role string `json:"role"`

	// Kind distinguishes text messages from match-result messages.
	Kind MessageKind `json:"kind"`

	// Content is the message text. For streaming messages it grows as
	// tokens arrive.
	Content string `json:"content"`

	// Matches holds the match results for KindMatches messages.
	Matches []MatchResult `json:"matches,omitempty"`

	// Timestamp is when the message was created.
	Timestamp time.Time `json:"timestamp"`

	// IsStreaming is true while tokens are still arriving.
	IsStreaming bool `json:"-"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Kind:      KindText,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates a completed assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Kind:      KindText,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewStreamingMessage creates an empty assistant placeholder that will be
// filled as stream tokens arrive.
func NewStreamingMessage() *Message {
	return &Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Kind:        KindText,
		Content:     "",
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleSystem,
		Kind:      KindText,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewMatchMessage creates an assistant message carrying match results.
func NewMatchMessage(content string, matches []MatchResult) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Kind:      KindMatches,
		Content:   content,
		Matches:   matches,
		Timestamp: time.Now(),
	}
}

// GetDisplayContent returns the content for display.
func (m *Message) GetDisplayContent() string {
	return m.Content
}

// IsUser returns true for user messages.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true for assistant messages.
func (m *Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}
