// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/flowos-tui/internal/assistant"
	"github.com/jeranaias/flowos-tui/internal/backend"
	"github.com/jeranaias/flowos-tui/internal/canned"
	"github.com/jeranaias/flowos-tui/internal/config"
	"github.com/jeranaias/flowos-tui/internal/match"
	"github.com/jeranaias/flowos-tui/internal/model"
	"github.com/jeranaias/flowos-tui/internal/profile"
	"github.com/jeranaias/flowos-tui/internal/stats"
	"github.com/jeranaias/flowos-tui/internal/storage"
	"github.com/jeranaias/flowos-tui/internal/ui/components"
	"github.com/jeranaias/flowos-tui/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// pollInterval is how often backend health and the visitor count
	// are refreshed.
	pollInterval = 30 * time.Second

	// streamTimeout bounds a single assistant exchange.
	streamTimeout = 2 * time.Minute
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the matching conversation.
type Model struct {
	// Domain state
	conv      *model.Conversation
	profile   model.UserProfile
	selection map[int]bool

	// Clients, any of which may be unconfigured
	assistant *assistant.Client
	backend   *backend.Client
	stats     *stats.Client

	// Persistence
	store  *storage.Store
	visits *storage.VisitDB

	// Canned fallback
	responder *canned.Responder

	// Streaming state
	streamBuf     *StreamingBuffer
	streaming     bool
	pendingFinal  bool
	submittedText string
	cancelStream  context.CancelFunc

	// UI
	theme     *styles.Theme
	viewport  viewport.Model
	input     textinput.Model
	statusBar *components.StatusBar
	spinner   components.Spinner
	welcome   *components.WelcomeBanner

	width  int
	height int
	ready  bool
}

// NewModel builds the chat model from configuration. Storage failures are
// not fatal: the conversation simply starts fresh and unpersisted.
func NewModel(cfg *config.Config) *Model {
	theme := styles.NewTheme()

	ti := textinput.New()
	ti.Placeholder = "描述你想找的搭子…"
	ti.CharLimit = 500
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	vp := viewport.New(80, 20)

	m := &Model{
		selection: make(map[int]bool),
		responder: canned.NewResponder(),
		streamBuf: NewStreamingBuffer(),
		theme:     theme,
		viewport:  vp,
		input:     ti,
		statusBar: components.NewStatusBar(theme),
		spinner:   components.NewSpinner("思考中"),
		welcome:   components.NewWelcomeBanner(theme),
	}

	if cfg == nil {
		cfg = config.Default()
	}
	m.applyConfig(cfg)
	m.initStorage(cfg)
	m.restoreState()

	return m
}

// applyConfig rebuilds the remote clients from a reloaded configuration.
// Storage and the conversation are left alone; only the assistant,
// backend and stats endpoints pick up the new settings.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	m.assistant = nil
	if cfg.Assistant.APIKey != "" {
		m.assistant = assistant.NewClient(cfg.Assistant.APIKey).
			WithBaseURL(cfg.Assistant.BaseURL)
		m.assistant.SetModel(cfg.Assistant.Model)
	}

	m.backend = nil
	if cfg.Backend.BaseURL != "" {
		m.backend = backend.NewClient(cfg.Backend.BaseURL)
	}

	m.stats = nil
	if cfg.Stats.Endpoint != "" {
		m.stats = stats.NewClient(cfg.Stats.Endpoint, cfg.Stats.ShareToken)
	}

	m.statusBar.ShowVisitors = cfg.UI.ShowVisitors
}

// initStorage opens the JSON store and the visit database.
func (m *Model) initStorage(cfg *config.Config) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return
	}

	if store, err := storage.NewStoreWithDir(dataDir); err == nil {
		m.store = store
	}
	if db, err := storage.OpenVisitDB(filepath.Join(dataDir, "flowos.db")); err == nil {
		m.visits = db
		db.RecordVisit()
	}
}

// restoreState loads persisted history and profile. The welcome message
// is only seeded when there is no history to restore.
func (m *Model) restoreState() {
	if m.store != nil {
		if conv, err := m.store.LoadHistory(); err == nil && conv != nil && conv.Len() > 0 {
			m.conv = conv
		}
		if p, err := m.store.LoadProfile(); err == nil {
			m.profile = p
		}
	}

	if m.conv == nil {
		m.conv = model.NewConversation()
		m.conv.AddAssistantMessage(canned.WelcomeText)
	}
}

// Close releases resources held by the model.
func (m *Model) Close() {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	if m.visits != nil {
		m.visits.Close()
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts cursor blinking and the first poll round.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.checkHealthCmd(),
		m.fetchVisitorsCmd(),
		pollTickCmd(),
	)
}

// Update handles all incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamTokenMsg:
		m.streamBuf.Write(msg.Token)
		return m, nil

	case StreamTickMsg:
		if !m.streaming {
			return m, nil
		}
		if content, ok := m.streamBuf.Flush(); ok {
			m.conv.AppendToLast(content)
			m.syncViewport()
		}
		return m, streamTickCmd()

	case StreamCompleteMsg:
		return m.handleStreamComplete()

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case HealthMsg:
		m.statusBar.HealthKnown = true
		m.statusBar.BackendOnline = msg.Online
		return m, nil

	case VisitorsMsg:
		m.statusBar.VisitorCount = msg.Count
		return m, nil

	case PollTickMsg:
		return m, tea.Batch(
			m.checkHealthCmd(),
			m.fetchVisitorsCmd(),
			pollTickCmd(),
		)

	case SearchResultMsg:
		return m.handleSearchResult(msg)

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, tea.Batch(m.checkHealthCmd(), m.fetchVisitorsCmd())
	}

	// Delegate everything else to the focused components
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if cmd := m.spinner.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.persist()
		m.Close()
		return m, tea.Quit

	case "ctrl+r":
		m.resetConversation()
		return m, nil

	case "enter":
		return m.submit()

	case "1", "2", "3":
		// Selection keys only bind while the input line is empty and
		// match results are on screen.
		if m.input.Value() == "" && len(m.conv.LatestMatches()) > 0 {
			m.toggleSelection(int(msg.String()[0] - '1'))
			m.syncViewport()
			return m, nil
		}

	case "p":
		if m.input.Value() == "" && len(m.conv.LatestMatches()) > 0 {
			m.pushContacts()
			m.syncViewport()
			return m, nil
		}

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SENDING AND STREAMING
// =============================================================================

// submit processes the typed message: analyze the profile and start the
// assistant stream with a local canned fallback. The stage does not move
// here; a successful remote stream leaves it where it was, and only the
// fallback path advances it from the submitted text.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if text == "" || m.streaming {
		return m, nil
	}
	m.input.Reset()

	m.conv.AddUserMessage(text)
	m.profile = profile.Analyze(m.profile, text)
	m.submittedText = text

	// Exactly one streaming placeholder per exchange.
	m.conv.AddStreamingMessage()
	m.streaming = true
	m.streamBuf.Reset()
	m.syncViewport()

	spinCmd := m.spinner.Start()

	if m.assistant == nil || !m.assistant.IsConfigured() {
		// No remote assistant: fall straight through to the canned path.
		return m, tea.Batch(spinCmd, func() tea.Msg {
			return StreamErrorMsg{Err: assistant.ErrNotConfigured}
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
	m.cancelStream = cancel
	go m.runStream(ctx, m.buildChatMessages())

	return m, tea.Batch(spinCmd, streamTickCmd())
}

// buildChatMessages assembles the request transcript: system prompt plus
// the conversation so far, excluding the streaming placeholder.
func (m *Model) buildChatMessages() []assistant.ChatMessage {
	messages := []assistant.ChatMessage{
		assistant.NewSystemMessage(assistant.SystemPrompt),
	}
	for _, msg := range m.conv.Messages {
		if msg.IsStreaming || msg.Kind == model.KindMatches {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, assistant.NewUserMessage(msg.Content))
		case model.RoleAssistant:
			messages = append(messages, assistant.NewAssistantMessage(msg.Content))
		}
	}
	return messages
}

// runStream drives the SSE stream in a goroutine, delivering results back
// into the update loop via program messages.
func (m *Model) runStream(ctx context.Context, messages []assistant.ChatMessage) {
	var full string
	err := m.assistant.ChatStream(ctx, messages, func(chunk assistant.StreamChunk) {
		token := chunk.GetContent()
		if token == "" {
			return
		}
		full += token
		sendMsg(StreamTokenMsg{Token: token})
	})

	if err != nil {
		var streamErr *assistant.StreamError
		partial := ""
		if errors.As(err, &streamErr) {
			partial = streamErr.Partial
		}
		sendMsg(StreamErrorMsg{Err: err, Partial: partial})
		return
	}
	sendMsg(StreamCompleteMsg{Content: full})
}

// handleStreamComplete finalizes the placeholder and runs any pending
// match computation.
func (m *Model) handleStreamComplete() (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}
	if content, ok := m.streamBuf.ForceFlush(); ok {
		m.conv.AppendToLast(content)
	}
	m.conv.FinalizeLast()
	return m.finishExchange()
}

// handleStreamError is the local fallback path. Only here does the
// conversation stage advance, driven by the submitted text, and only a
// transition into the final stage schedules match computation. The
// placeholder is then replaced with a canned response for the new stage.
func (m *Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}
	m.streamBuf.Reset()

	prev := m.conv.Stage
	next := canned.NextStage(prev, m.submittedText)
	m.conv.AdvanceStage(next)
	m.pendingFinal = next == model.StageFinal && prev != model.StageFinal

	replacement := canned.ErrorText
	if m.responder != nil {
		replacement = m.responder.Response(m.conv.Stage)
	}
	m.conv.FailLast(replacement)
	return m.finishExchange()
}

// finishExchange runs shared post-stream work: spinner, matching on the
// final stage, backend search, persistence.
func (m *Model) finishExchange() (tea.Model, tea.Cmd) {
	m.streaming = false
	m.spinner.Stop()
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}

	var cmds []tea.Cmd
	if m.pendingFinal {
		m.pendingFinal = false
		m.computeMatches()
		if m.backend != nil {
			cmds = append(cmds, m.searchCmd())
		}
	}

	m.persist()
	m.syncViewport()
	return m, tea.Batch(cmds...)
}

// computeMatches scores the roster against the profile and appends the
// match-result message. Selection always rebinds to the newest results.
func (m *Model) computeMatches() {
	results := match.FindMatches(m.profile)
	m.conv.AddMatchMessage("🎯 为你找到这些搭子", results)
	m.selection = make(map[int]bool)

	if m.visits != nil {
		m.visits.RecordMatches(results)
	}
	if m.store != nil {
		m.store.SaveMatches(results)
	}
}

// =============================================================================
// SELECTION AND PUSH
// =============================================================================

// toggleSelection flips one candidate in the selection set. Out-of-range
// indices are ignored.
func (m *Model) toggleSelection(index int) {
	matches := m.conv.LatestMatches()
	if index < 0 || index >= len(matches) {
		return
	}
	if m.selection[index] {
		delete(m.selection, index)
	} else {
		m.selection[index] = true
	}
}

// pushContacts emits the push confirmation for the selected candidates
// and clears the selection set.
func (m *Model) pushContacts() {
	matches := m.conv.LatestMatches()

	var names []string
	for i, result := range matches {
		if m.selection[i] {
			names = append(names, result.Person.Name)
		}
	}

	if len(names) == 0 {
		m.conv.AddSystemMessage("请先选择要推送的联系人")
		return
	}

	text := "已为你推送 " + joinNames(names) + " 的信息！" +
		"对方会收到你的基本信息，如果双方都感兴趣，系统会自动建立联系。"
	m.conv.AddSystemMessage(text)
	m.selection = make(map[int]bool)
	m.persist()
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += "、"
		}
		out += n
	}
	return out
}

// =============================================================================
// RESET
// =============================================================================

// resetConversation returns to the initial stage with a fresh welcome
// message and clears profile, matches, selection and persisted state.
func (m *Model) resetConversation() {
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
	m.streaming = false
	m.pendingFinal = false
	m.submittedText = ""
	m.spinner.Stop()
	m.streamBuf.Reset()

	m.conv = model.NewConversation()
	m.conv.AddAssistantMessage(canned.WelcomeText)
	m.profile = model.UserProfile{}
	m.selection = make(map[int]bool)

	if m.store != nil {
		m.store.Reset()
	}
	m.syncViewport()
}

// =============================================================================
// BACKGROUND COMMANDS
// =============================================================================

func pollTickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return PollTickMsg{Time: t}
	})
}

// checkHealthCmd probes the backend; no backend configured means offline.
func (m *Model) checkHealthCmd() tea.Cmd {
	return func() tea.Msg {
		if m.backend == nil {
			return HealthMsg{Online: false}
		}
		ctx, cancel := context.WithTimeout(context.Background(), backend.HealthTimeout)
		defer cancel()
		return HealthMsg{Online: m.backend.CheckHealth(ctx) == nil}
	}
}

// fetchVisitorsCmd resolves the visitor count: remote analytics first,
// the local visit counter otherwise.
func (m *Model) fetchVisitorsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.stats != nil {
			ctx, cancel := context.WithTimeout(context.Background(), stats.DefaultTimeout)
			defer cancel()
			if count, ok := m.stats.VisitorCount(ctx); ok {
				return VisitorsMsg{Count: count, Remote: true}
			}
		}
		if m.visits != nil {
			if count, err := m.visits.VisitCount(); err == nil {
				return VisitorsMsg{Count: count}
			}
		}
		return VisitorsMsg{Count: 0}
	}
}

// searchCmd queries the candidate backend with the user transcript.
func (m *Model) searchCmd() tea.Cmd {
	texts := m.conv.UserTexts()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), backend.DefaultTimeout)
		defer cancel()
		candidates, err := m.backend.SearchCandidates(ctx, texts)
		return SearchResultMsg{Candidates: candidates, Err: err}
	}
}

// handleSearchResult appends backend candidates as an assistant message.
// Errors are dropped: the local roster matches already rendered.
func (m *Model) handleSearchResult(msg SearchResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil || len(msg.Candidates) == 0 {
		return m, nil
	}
	m.conv.AddAssistantMessage(backend.FormatCandidates(msg.Candidates))
	m.persist()
	m.syncViewport()
	return m, nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persist saves history and profile, best effort.
func (m *Model) persist() {
	if m.store == nil {
		return
	}
	m.store.SaveHistory(m.conv)
	m.store.SaveProfile(m.profile)
}
