// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/flowos-tui/internal/assistant"
	"github.com/jeranaias/flowos-tui/internal/canned"
	"github.com/jeranaias/flowos-tui/internal/config"
	"github.com/jeranaias/flowos-tui/internal/match"
	"github.com/jeranaias/flowos-tui/internal/model"
	"github.com/jeranaias/flowos-tui/internal/storage"
)

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParserSubcommand(t *testing.T) {
	args := NewArgParser([]string{"status", "--json"})
	assert.Equal(t, "status", args.Subcommand())
	assert.True(t, args.BoolFlag("json"))
}

func TestArgParserFlagFormats(t *testing.T) {
	args := NewArgParser([]string{"chat", "--limit", "50", "--since=2024-01-01", "-q"})

	assert.Equal(t, "50", args.Flag("limit"))
	assert.Equal(t, "2024-01-01", args.Flag("since"))
	assert.True(t, args.BoolFlag("q"))
	assert.False(t, args.BoolFlag("missing"))
}

func TestArgParserExplicitBool(t *testing.T) {
	args := NewArgParser([]string{"--json=false", "--color=true"})
	assert.False(t, args.BoolFlag("json"))
	assert.True(t, args.BoolFlag("color"))
}

func TestArgParserIntFlags(t *testing.T) {
	args := NewArgParser([]string{"--limit", "25", "--bad", "xyz"})

	val, err := args.FlagInt("limit")
	require.NoError(t, err)
	assert.Equal(t, 25, val)

	assert.Equal(t, 10, args.FlagIntOrDefault("bad", 10))
	assert.Equal(t, 7, args.FlagIntOrDefault("missing", 7))
}

func TestArgParserPositionals(t *testing.T) {
	args := NewArgParser([]string{"chat", "hello", "world"})

	assert.Equal(t, 3, args.PositionalCount())
	assert.Equal(t, "hello", args.Positional(1))
	assert.Equal(t, "", args.Positional(9))
	assert.Equal(t, []string{"hello", "world"}, args.PositionalFrom(1))
}

func TestArgParserHasFlag(t *testing.T) {
	args := NewArgParser([]string{"--name", "value", "--flag"})
	assert.True(t, args.HasFlag("name"))
	assert.True(t, args.HasFlag("--flag"))
	assert.False(t, args.HasFlag("other"))
}

// =============================================================================
// REPL HELPERS
// =============================================================================

func newTestSession(t *testing.T) *ChatSession {
	t.Helper()
	conv := model.NewConversation()
	return &ChatSession{
		Conv:      conv,
		Selection: make(map[int]bool),
	}
}

// sseBody builds a minimal SSE response body from content tokens.
func sseBody(tokens ...string) string {
	var b strings.Builder
	for _, tok := range tokens {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", tok)
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

// captureStdout collects everything fn prints to standard output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestPrintHistoryShowsMatchRecords(t *testing.T) {
	db, err := storage.OpenVisitDB(filepath.Join(t.TempDir(), "flowos.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RecordMatches([]model.MatchResult{
		{Person: model.Person{Name: "李小雨", School: "清华大学"}, Score: 100},
	}))

	session := newTestSession(t)
	session.Visits = db
	session.Conv.AddUserMessage("想找搭子")

	out := captureStdout(t, func() { printHistory(session) })
	assert.Contains(t, out, "想找搭子")
	assert.Contains(t, out, "历史匹配")
	assert.Contains(t, out, "李小雨")
	assert.Contains(t, out, "100分")
}

func TestStatusReportCountsStoredMatches(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()

	store, err := storage.NewStoreWithDir(cfg.Storage.DataDir)
	require.NoError(t, err)
	require.NoError(t, store.SaveMatches([]model.MatchResult{
		{Person: model.Person{Name: "王思涵"}, Score: 92},
		{Person: model.Person{Name: "李小雨"}, Score: 95},
	}))

	report := buildStatusReport(cfg)
	assert.Equal(t, 2, report.StoredMatches)
	assert.False(t, report.BackendConfigured)
}

func TestProcessMessageSuccessKeepsStage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody("好的，", "已记录"))
	}))
	defer server.Close()

	session := newTestSession(t)
	session.Responder = canned.NewResponder()
	session.Assistant = assistant.NewClient("test-key").WithBaseURL(server.URL)

	require.NoError(t, processMessage(session, "我想找一个喜欢跑步的搭子"))
	assert.Equal(t, model.StageInitial, session.Conv.Stage,
		"a successful reply never advances the stage")

	require.NoError(t, processMessage(session, "可以，就这样"))
	assert.Equal(t, model.StageInitial, session.Conv.Stage)
	assert.Empty(t, session.Conv.LatestMatches())
}

func TestProcessMessageFallbackAdvancesStage(t *testing.T) {
	session := newTestSession(t)
	session.Responder = canned.NewResponder()

	require.NoError(t, processMessage(session, "想找运动搭子"))
	assert.Equal(t, model.StageRefining, session.Conv.Stage)

	require.NoError(t, processMessage(session, "确定"))
	assert.Equal(t, model.StageFinal, session.Conv.Stage)
	assert.Len(t, session.Conv.LatestMatches(), 3)
}

func TestSelectCommandTogglesSelection(t *testing.T) {
	session := newTestSession(t)
	session.Conv.AddMatchMessage("匹配结果", match.FindMatches(model.UserProfile{}))

	require.NoError(t, handleSelectCommand(session, []string{"1", "3"}))
	assert.True(t, session.Selection[0])
	assert.True(t, session.Selection[2])

	// Selecting again deselects.
	require.NoError(t, handleSelectCommand(session, []string{"3"}))
	assert.False(t, session.Selection[2])
}

func TestSelectCommandValidation(t *testing.T) {
	session := newTestSession(t)

	err := handleSelectCommand(session, []string{"1"})
	assert.Error(t, err, "selection before any matches must fail")

	session.Conv.AddMatchMessage("匹配结果", match.FindMatches(model.UserProfile{}))
	assert.Error(t, handleSelectCommand(session, []string{"0"}))
	assert.Error(t, handleSelectCommand(session, []string{"4"}))
	assert.Error(t, handleSelectCommand(session, []string{"abc"}))
	assert.Error(t, handleSelectCommand(session, nil))
}

func TestPushClearsSelection(t *testing.T) {
	session := newTestSession(t)
	session.Conv.AddMatchMessage("匹配结果", match.FindMatches(model.UserProfile{}))
	session.Selection[0] = true

	handlePushCommand(session)

	assert.Empty(t, session.Selection)
	last := session.Conv.GetLastMessage()
	require.NotNil(t, last)
	assert.Equal(t, model.RoleSystem, last.Role)
	assert.Contains(t, last.Content, "已为你推送")
}

func TestPushWithoutSelectionAddsNothing(t *testing.T) {
	session := newTestSession(t)
	session.Conv.AddMatchMessage("匹配结果", match.FindMatches(model.UserProfile{}))
	before := session.Conv.Len()

	handlePushCommand(session)

	assert.Equal(t, before, session.Conv.Len())
}

func TestResetSessionClearsState(t *testing.T) {
	session := newTestSession(t)
	session.Conv.AddUserMessage("想找搭子")
	session.Conv.AdvanceStage(model.StageRefining)
	session.Profile.Add("运动")
	session.Selection[1] = true

	resetSession(session)

	assert.Equal(t, 1, session.Conv.Len())
	assert.Equal(t, model.StageInitial, session.Conv.Stage)
	assert.True(t, session.Profile.IsEmpty())
	assert.Empty(t, session.Selection)
}

func TestSlashCommandDispatch(t *testing.T) {
	session := newTestSession(t)

	cont, err := handleSlashCommand("/quit", session)
	assert.False(t, cont)
	assert.NoError(t, err)

	cont, err = handleSlashCommand("/unknown", session)
	assert.True(t, cont)
	assert.Error(t, err)

	cont, err = handleSlashCommand("/help", session)
	assert.True(t, cont)
	assert.NoError(t, err)
}

func TestStageLabels(t *testing.T) {
	assert.Equal(t, "描述中", stageLabel(model.StageInitial))
	assert.Equal(t, "细化中", stageLabel(model.StageRefining))
	assert.Equal(t, "已确认", stageLabel(model.StageFinal))
}

func TestRenderMatchesShowsSelection(t *testing.T) {
	results := match.FindMatches(model.UserProfile{})
	out := renderMatches(results, map[int]bool{1: true})

	for _, r := range results {
		assert.Contains(t, out, r.Person.Name)
	}
	assert.Contains(t, out, "✓")
}

func TestRunReturnsErrorCodeForUnknownCommand(t *testing.T) {
	assert.Equal(t, 1, Run([]string{"no-such-command"}))
	assert.Equal(t, 0, Run([]string{"version"}))
	assert.Equal(t, 0, Run([]string{"help"}))
}
