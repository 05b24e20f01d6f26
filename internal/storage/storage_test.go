// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/flowos-tui/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreWithDir(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestHistoryRoundTrip(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation()
	conv.Stage = model.StageRefining
	conv.Messages = append(conv.Messages,
		model.NewUserMessage("想找一起跑步的搭子"),
		model.NewAssistantMessage("好的，了解了！"),
	)

	require.NoError(t, store.SaveHistory(conv))

	loaded, err := store.LoadHistory()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, model.StageRefining, loaded.Stage)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, model.RoleUser, loaded.Messages[0].Role)
	assert.Equal(t, "想找一起跑步的搭子", loaded.Messages[0].Content)
	assert.Equal(t, "好的，了解了！", loaded.Messages[1].Content)
}

func TestHistoryCapsAtLimit(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation()
	for i := 0; i < MaxStoredMessages+20; i++ {
		conv.Messages = append(conv.Messages, model.NewUserMessage(fmt.Sprintf("message %d", i)))
	}

	require.NoError(t, store.SaveHistory(conv))

	loaded, err := store.LoadHistory()
	require.NoError(t, err)
	require.Len(t, loaded.Messages, MaxStoredMessages)

	// Oldest messages are dropped, newest kept
	assert.Equal(t, "message 20", loaded.Messages[0].Content)
	assert.Equal(t, fmt.Sprintf("message %d", MaxStoredMessages+19),
		loaded.Messages[len(loaded.Messages)-1].Content)
}

func TestHistorySkipsStreamingPlaceholder(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation()
	conv.Messages = append(conv.Messages,
		model.NewUserMessage("hi"),
		model.NewStreamingMessage(),
	)

	require.NoError(t, store.SaveHistory(conv))

	loaded, err := store.LoadHistory()
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, model.RoleUser, loaded.Messages[0].Role)
}

func TestHistoryPreservesMatchMessages(t *testing.T) {
	store := newTestStore(t)

	results := []model.MatchResult{
		{Person: model.Person{Name: "李小雨", School: "清华大学"}, Score: 100},
	}
	conv := model.NewConversation()
	conv.Messages = append(conv.Messages, model.NewMatchMessage("为你找到这些搭子", results))

	require.NoError(t, store.SaveHistory(conv))

	loaded, err := store.LoadHistory()
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, model.KindMatches, loaded.Messages[0].Kind)
	require.Len(t, loaded.Messages[0].Matches, 1)
	assert.Equal(t, "李小雨", loaded.Messages[0].Matches[0].Person.Name)
}

func TestLoadHistoryMissing(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.LoadHistory()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestProfileRoundTrip(t *testing.T) {
	store := newTestStore(t)

	profile := model.UserProfile{Traits: []string{"运动", "开朗外向"}}
	require.NoError(t, store.SaveProfile(profile))

	loaded, err := store.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, profile.Traits, loaded.Traits)
}

func TestMatchesRoundTrip(t *testing.T) {
	store := newTestStore(t)

	matches := []model.MatchResult{
		{Person: model.Person{Name: "王思涵", School: "复旦大学", Avatar: "👩‍🎨"}, Score: 92},
	}
	require.NoError(t, store.SaveMatches(matches))

	loaded, err := store.LoadMatches()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "王思涵", loaded[0].Person.Name)
	assert.Equal(t, 92, loaded[0].Score)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveProfile(model.UserProfile{Traits: []string{"音乐"}}))
	require.NoError(t, store.SaveMatches([]model.MatchResult{{Score: 1}}))
	require.NoError(t, store.Reset())

	profile, err := store.LoadProfile()
	require.NoError(t, err)
	assert.True(t, profile.IsEmpty())

	matches, err := store.LoadMatches()
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Resetting an already empty store is fine
	require.NoError(t, store.Reset())
}

// =============================================================================
// VISIT DATABASE
// =============================================================================

func newTestVisitDB(t *testing.T) *VisitDB {
	t.Helper()
	db, err := OpenVisitDB(filepath.Join(t.TempDir(), "flowos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordVisitIncrements(t *testing.T) {
	db := newTestVisitDB(t)

	count, err := db.VisitCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = db.RecordVisit()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = db.RecordVisit()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestVisitCountSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowos.db")

	db, err := OpenVisitDB(path)
	require.NoError(t, err)
	_, err = db.RecordVisit()
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenVisitDB(path)
	require.NoError(t, err)
	defer db.Close()

	count, err := db.VisitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMatchHistoryLog(t *testing.T) {
	db := newTestVisitDB(t)

	require.NoError(t, db.RecordMatches([]model.MatchResult{
		{Person: model.Person{Name: "李小雨", School: "清华大学"}, Score: 100},
		{Person: model.Person{Name: "张明轩", School: "北京大学"}, Score: 88},
	}))

	records, err := db.MatchHistory(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "李小雨", records[0].Name)
	assert.Equal(t, 100, records[0].Score)
	assert.Equal(t, "清华大学", records[0].School)
	assert.False(t, records[0].MatchedAt.IsZero())
}

func TestMatchHistoryEmptyNoOp(t *testing.T) {
	db := newTestVisitDB(t)

	require.NoError(t, db.RecordMatches(nil))

	records, err := db.MatchHistory(10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
