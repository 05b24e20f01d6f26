// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/flowos-tui/internal/model"
	"github.com/jeranaias/flowos-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxStoredMessages caps the persisted history. Older messages are
	// dropped first.
	MaxStoredMessages = 100

	historyFile = "history.json"
	profileFile = "profile.json"
	matchesFile = "matches.json"
)

// =============================================================================
// STORED TYPES
// =============================================================================

// StoredMessage is the on-disk form of a chat message.
type StoredMessage struct {
	ID        string              `json:"id"`
	Role      string              `json:"role"`
	Kind      string              `json:"kind,omitempty"`
	Content   string              `json:"content"`
	Matches   []model.MatchResult `json:"matches,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// StoredHistory is the on-disk form of the conversation.
type StoredHistory struct {
	Stage    string          `json:"stage"`
	Messages []StoredMessage `json:"messages"`
	SavedAt  time.Time       `json:"saved_at"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversation state as JSON files in a directory.
type Store struct {
	// BaseDir is the directory holding the JSON files.
	BaseDir string
}

// NewStore creates a store rooted at the default data directory
// (~/.flowos).
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(filepath.Join(homeDir, ".flowos"))
}

// NewStoreWithDir creates a store rooted at a custom directory.
func NewStoreWithDir(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{BaseDir: baseDir}, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// SaveHistory persists the conversation. Only the newest MaxStoredMessages
// messages are kept.
func (s *Store) SaveHistory(conv *model.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}

	messages := conv.Messages
	if len(messages) > MaxStoredMessages {
		messages = messages[len(messages)-MaxStoredMessages:]
	}

	stored := StoredHistory{
		Stage:   conv.Stage.String(),
		SavedAt: time.Now(),
	}
	for _, msg := range messages {
		// Unfinished streaming placeholders are not worth restoring.
		if msg.IsStreaming {
			continue
		}
		stored.Messages = append(stored.Messages, StoredMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Kind:      string(msg.Kind),
			Content:   msg.Content,
			Matches:   msg.Matches,
			Timestamp: msg.Timestamp,
		})
	}

	return s.writeJSON(historyFile, stored)
}

// LoadHistory restores the conversation. Returns (nil, nil) when no
// history file exists yet.
func (s *Store) LoadHistory() (*model.Conversation, error) {
	var stored StoredHistory
	found, err := s.readJSON(historyFile, &stored)
	if err != nil || !found {
		return nil, err
	}

	conv := model.NewConversation()
	conv.Stage = model.ParseStage(stored.Stage)
	for _, sm := range stored.Messages {
		msg := &model.Message{
			ID:        sm.ID,
			Role:      sm.Role,
			Kind:      model.MessageKind(sm.Kind),
			Content:   sm.Content,
			Matches:   sm.Matches,
			Timestamp: sm.Timestamp,
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, nil
}

// =============================================================================
// PROFILE AND MATCHES
// =============================================================================

// SaveProfile persists the analyzed user profile.
func (s *Store) SaveProfile(profile model.UserProfile) error {
	return s.writeJSON(profileFile, profile)
}

// LoadProfile restores the user profile. Returns an empty profile when
// none was saved.
func (s *Store) LoadProfile() (model.UserProfile, error) {
	var profile model.UserProfile
	_, err := s.readJSON(profileFile, &profile)
	return profile, err
}

// SaveMatches persists the latest match results.
func (s *Store) SaveMatches(matches []model.MatchResult) error {
	return s.writeJSON(matchesFile, matches)
}

// LoadMatches restores the latest match results.
func (s *Store) LoadMatches() ([]model.MatchResult, error) {
	var matches []model.MatchResult
	_, err := s.readJSON(matchesFile, &matches)
	return matches, err
}

// Reset removes all persisted JSON state.
func (s *Store) Reset() error {
	for _, name := range []string{historyFile, profileFile, matchesFile} {
		if err := os.Remove(filepath.Join(s.BaseDir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := util.AtomicWriteFile(filepath.Join(s.BaseDir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// readJSON reads a JSON file into v. Returns found=false when the file
// does not exist.
func (s *Store) readJSON(name string, v interface{}) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.BaseDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}
