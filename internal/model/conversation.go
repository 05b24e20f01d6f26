// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation holds the ordered message list and the stage machine for a
// single matching session.
type Conversation struct {
	// ID uniquely identifies the conversation (also used as the backend
	// session id).
	ID string `json:"id"`

	// Stage is the current conversation phase.
	Stage ChatStage `json:"stage"`

	// Messages in chronological order.
	Messages []*Message `json:"messages"`

	// CreatedAt and UpdatedAt track conversation lifetime.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates an empty conversation in the initial stage.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		Stage:     StageInitial,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AddUserMessage appends a user message and returns it.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.append(msg)
	return msg
}

// AddAssistantMessage appends a completed assistant message and returns it.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	msg := NewAssistantMessage(content)
	c.append(msg)
	return msg
}

// AddStreamingMessage appends an empty assistant placeholder and returns it.
// Callers must not add a second placeholder before finalizing or failing the
// first; the UI enforces a single in-flight stream.
func (c *Conversation) AddStreamingMessage() *Message {
	msg := NewStreamingMessage()
	c.append(msg)
	return msg
}

// AddSystemMessage appends a system message and returns it.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	c.append(msg)
	return msg
}

// AddMatchMessage appends an assistant message carrying match results.
func (c *Conversation) AddMatchMessage(content string, matches []MatchResult) *Message {
	msg := NewMatchMessage(content, matches)
	c.append(msg)
	return msg
}

// AppendToLast appends streamed content to the last message if it is an
// assistant message still streaming. Tokens arriving after finalization are
// dropped.
func (c *Conversation) AppendToLast(token string) {
	last := c.GetLastMessage()
	if last == nil || !last.IsStreaming {
		return
	}
	last.Content += token
	c.UpdatedAt = time.Now()
}

// FinalizeLast marks the last streaming message as complete.
func (c *Conversation) FinalizeLast() {
	last := c.GetLastMessage()
	if last == nil || !last.IsStreaming {
		return
	}
	last.IsStreaming = false
	c.UpdatedAt = time.Now()
}

// FailLast replaces the content of the last streaming message and marks it
// complete. Used when a stream errors out and a local response takes over.
func (c *Conversation) FailLast(replacement string) {
	last := c.GetLastMessage()
	if last == nil || !last.IsStreaming {
		return
	}
	last.Content = replacement
	last.IsStreaming = false
	c.UpdatedAt = time.Now()
}

// GetLastMessage returns the most recent message, or nil when empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetHistory returns the message slice.
func (c *Conversation) GetHistory() []*Message {
	return c.Messages
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// UserTexts returns the content of every user message in order. This is the
// payload sent to the candidate search backend.
func (c *Conversation) UserTexts() []string {
	texts := make([]string, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.IsUser() {
			texts = append(texts, msg.Content)
		}
	}
	return texts
}

// LatestMatches returns the match results of the most recent match message,
// or nil if none exists. Selection always refers to this set.
func (c *Conversation) LatestMatches() []MatchResult {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Kind == KindMatches {
			return c.Messages[i].Matches
		}
	}
	return nil
}

// =============================================================================
// STAGE MACHINE
// =============================================================================

// AdvanceStage moves the conversation forward to target. Backward moves are
// ignored so the stage is strictly monotonic.
func (c *Conversation) AdvanceStage(target ChatStage) {
	if target > c.Stage {
		c.Stage = target
		c.UpdatedAt = time.Now()
	}
}

func (c *Conversation) append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}
