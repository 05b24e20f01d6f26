// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	user := NewUserMessage("你好")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, KindText, user.Kind)
	assert.Equal(t, "你好", user.Content)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsStreaming)

	streaming := NewStreamingMessage()
	assert.Equal(t, RoleAssistant, streaming.Role)
	assert.True(t, streaming.IsStreaming)
	assert.Empty(t, streaming.Content)

	matches := []MatchResult{{Person: Person{Name: "李小雨"}, Score: 95}}
	match := NewMatchMessage("为你找到这些搭子", matches)
	assert.Equal(t, KindMatches, match.Kind)
	assert.Len(t, match.Matches, 1)
}

func TestConversationStreamingLifecycle(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("我想找运动搭子")
	msg := conv.AddStreamingMessage()

	conv.AppendToLast("好的")
	conv.AppendToLast("，我来帮你")
	assert.Equal(t, "好的，我来帮你", msg.Content)
	assert.True(t, msg.IsStreaming)

	conv.FinalizeLast()
	assert.False(t, msg.IsStreaming)

	// Tokens after finalization are dropped
	conv.AppendToLast("late")
	assert.Equal(t, "好的，我来帮你", msg.Content)
}

func TestConversationFailLast(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hi")
	conv.AddStreamingMessage()
	conv.AppendToLast("partial out")

	conv.FailLast("本地回复")

	last := conv.GetLastMessage()
	require.NotNil(t, last)
	assert.Equal(t, "本地回复", last.Content)
	assert.False(t, last.IsStreaming)

	// FailLast on a non-streaming message does nothing
	conv.FailLast("again")
	assert.Equal(t, "本地回复", last.Content)
}

func TestConversationStageMonotonic(t *testing.T) {
	conv := NewConversation()
	assert.Equal(t, StageInitial, conv.Stage)

	conv.AdvanceStage(StageRefining)
	assert.Equal(t, StageRefining, conv.Stage)

	// Backward moves are ignored
	conv.AdvanceStage(StageInitial)
	assert.Equal(t, StageRefining, conv.Stage)

	conv.AdvanceStage(StageFinal)
	assert.Equal(t, StageFinal, conv.Stage)
}

func TestConversationUserTexts(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("第一条")
	conv.AddAssistantMessage("回复")
	conv.AddSystemMessage("系统")
	conv.AddUserMessage("第二条")

	assert.Equal(t, []string{"第一条", "第二条"}, conv.UserTexts())
}

func TestConversationLatestMatches(t *testing.T) {
	conv := NewConversation()
	assert.Nil(t, conv.LatestMatches())

	first := []MatchResult{{Person: Person{Name: "旧"}, Score: 80}}
	second := []MatchResult{{Person: Person{Name: "新"}, Score: 90}}
	conv.AddMatchMessage("first", first)
	conv.AddAssistantMessage("chat in between")
	conv.AddMatchMessage("second", second)

	latest := conv.LatestMatches()
	require.Len(t, latest, 1)
	assert.Equal(t, "新", latest[0].Person.Name)
}

func TestProfileAddIdempotent(t *testing.T) {
	p := UserProfile{}
	p.Add("运动")
	p.Add("音乐")
	p.Add("运动")

	assert.Equal(t, []string{"运动", "音乐"}, p.Traits)
	assert.True(t, p.Has("运动"))
	assert.False(t, p.Has("学习"))

	clone := p.Clone()
	clone.Add("学习")
	assert.Len(t, p.Traits, 2)
	assert.Len(t, clone.Traits, 3)
}

func TestStageRoundTrip(t *testing.T) {
	for _, s := range []ChatStage{StageInitial, StageRefining, StageFinal} {
		assert.Equal(t, s, ParseStage(s.String()))
	}
	assert.Equal(t, StageInitial, ParseStage("bogus"))
}
