// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based chat REPL for flowos.
//
// Handles the "flowos chat" command: the same staged matching
// conversation as the TUI, driven over a readline-style prompt with
// input history.
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /select N [N...]    Toggle candidate selection (1-3)
//   /push               Push selected contacts
//   /search             Query the candidate backend directly
//   /history            Show the conversation so far
//   /status, /s         Show session status
//   /reset              Start a new conversation
//   /quit, /q           Exit chat
//   Ctrl+C / Ctrl+D     Exit chat

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/flowos-tui/internal/assistant"
	"github.com/jeranaias/flowos-tui/internal/backend"
	"github.com/jeranaias/flowos-tui/internal/canned"
	"github.com/jeranaias/flowos-tui/internal/config"
	"github.com/jeranaias/flowos-tui/internal/match"
	"github.com/jeranaias/flowos-tui/internal/model"
	"github.com/jeranaias/flowos-tui/internal/profile"
	"github.com/jeranaias/flowos-tui/internal/stats"
	"github.com/jeranaias/flowos-tui/internal/storage"
	"github.com/jeranaias/flowos-tui/internal/ui/styles"
	"github.com/jeranaias/flowos-tui/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a liner-backed input reader with persisted history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with history navigation support.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for one REPL session.
type ChatSession struct {
	Conv      *model.Conversation
	Profile   model.UserProfile
	Selection map[int]bool

	Config    *config.Config
	Assistant *assistant.Client
	Backend   *backend.Client
	Stats     *stats.Client
	Store     *storage.Store
	Visits    *storage.VisitDB
	Responder *canned.Responder

	StartTime  time.Time
	Exchanges  int
	CancelFunc context.CancelFunc

	InputCLI *ChatCLI
}

// NewChatSession builds a session from global configuration, restoring
// any persisted conversation.
func NewChatSession() *ChatSession {
	cfg := config.Global()

	session := &ChatSession{
		Selection: make(map[int]bool),
		Config:    cfg,
		Responder: canned.NewResponder(),
		StartTime: time.Now(),
		InputCLI:  NewChatCLI(),
	}

	if cfg.Assistant.APIKey != "" {
		session.Assistant = assistant.NewClient(cfg.Assistant.APIKey).
			WithBaseURL(cfg.Assistant.BaseURL)
		session.Assistant.SetModel(cfg.Assistant.Model)
	}
	if cfg.Backend.BaseURL != "" {
		session.Backend = backend.NewClient(cfg.Backend.BaseURL)
	}
	if cfg.Stats.Endpoint != "" {
		session.Stats = stats.NewClient(cfg.Stats.Endpoint, cfg.Stats.ShareToken)
	}

	if dataDir, err := cfg.DataDir(); err == nil {
		if store, err := storage.NewStoreWithDir(dataDir); err == nil {
			session.Store = store
		}
		if db, err := storage.OpenVisitDB(filepath.Join(dataDir, "flowos.db")); err == nil {
			session.Visits = db
			db.RecordVisit()
		}
	}

	if session.Store != nil {
		if conv, err := session.Store.LoadHistory(); err == nil && conv != nil && conv.Len() > 0 {
			session.Conv = conv
		}
		if p, err := session.Store.LoadProfile(); err == nil {
			session.Profile = p
		}
	}
	if session.Conv == nil {
		session.Conv = model.NewConversation()
		session.Conv.AddAssistantMessage(canned.WelcomeText)
	}

	return session
}

// Close releases session resources.
func (s *ChatSession) Close() {
	s.persist()
	s.InputCLI.Close()
	if s.Visits != nil {
		s.Visits.Close()
	}
}

func (s *ChatSession) persist() {
	if s.Store == nil {
		return
	}
	s.Store.SaveHistory(s.Conv)
	s.Store.SaveProfile(s.Profile)
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the interactive REPL until the user exits.
func HandleChatCommand(args *ArgParser) error {
	session := NewChatSession()
	defer session.Close()

	quiet := args.BoolFlag("quiet") || args.BoolFlag("q")
	if !quiet {
		printWelcome(session)
	}

	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("搭子> "))
		if err != nil {
			// Ctrl+C or Ctrl+D, exit gracefully either way.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[错误]"), err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[错误]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage runs one exchange: profile analysis, then the assistant
// reply with a canned fallback. A successful remote reply leaves the
// stage untouched; only the fallback path advances it from the input and
// runs matching on the transition into the final stage.
func processMessage(session *ChatSession, input string) error {
	session.Conv.AddUserMessage(input)
	session.Profile = profile.Analyze(session.Profile, input)

	reachedFinal := false

	fmt.Println()
	content, err := session.streamReply()
	if err != nil {
		prev := session.Conv.Stage
		next := canned.NextStage(prev, input)
		session.Conv.AdvanceStage(next)
		reachedFinal = next == model.StageFinal && prev != model.StageFinal

		content = canned.ErrorText
		if session.Responder != nil {
			content = session.Responder.Response(session.Conv.Stage)
		}
		fmt.Print(RenderMarkdown(content))
	}
	session.Conv.AddAssistantMessage(content)
	session.Exchanges++
	fmt.Println()

	if reachedFinal {
		runMatching(session)
	}

	session.persist()
	return nil
}

// streamReply streams the assistant response to stdout and returns the
// accumulated content. On a TTY the full text is rendered as markdown
// after the stream completes.
func (s *ChatSession) streamReply() (string, error) {
	if s.Assistant == nil || !s.Assistant.IsConfigured() {
		return "", assistant.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	s.CancelFunc = cancel
	defer func() {
		s.CancelFunc = nil
		cancel()
	}()

	messages := []assistant.ChatMessage{
		assistant.NewSystemMessage(assistant.SystemPrompt),
	}
	for _, msg := range s.Conv.Messages {
		if msg.Kind == model.KindMatches {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, assistant.NewUserMessage(msg.Content))
		case model.RoleAssistant:
			messages = append(messages, assistant.NewAssistantMessage(msg.Content))
		}
	}

	useMarkdown := IsStdoutTTY()
	var full strings.Builder

	err := s.Assistant.ChatStream(ctx, messages, func(chunk assistant.StreamChunk) {
		token := chunk.GetContent()
		if token == "" {
			return
		}
		full.WriteString(token)
		if !useMarkdown {
			fmt.Print(token)
		}
	})
	if err != nil {
		return "", err
	}

	content := full.String()
	if useMarkdown {
		fmt.Print(RenderMarkdown(content))
	}
	return content, nil
}

// =============================================================================
// MATCHING
// =============================================================================

// runMatching scores the roster, records the results and shows the
// cards, then fires the backend candidate search when configured.
func runMatching(session *ChatSession) {
	results := match.FindMatches(session.Profile)
	session.Conv.AddMatchMessage("🎯 为你找到这些搭子", results)
	session.Selection = make(map[int]bool)

	if session.Visits != nil {
		session.Visits.RecordMatches(results)
	}
	if session.Store != nil {
		session.Store.SaveMatches(results)
	}

	fmt.Println(renderMatches(results, session.Selection))
	fmt.Println(infoStyle.Render("用 /select 1 选择搭子，/push 推送联系方式"))
	fmt.Println()

	if session.Backend != nil {
		searchBackend(session)
	}
}

// renderMatches renders match results as numbered text cards.
func renderMatches(results []model.MatchResult, selection map[int]bool) string {
	var b strings.Builder
	b.WriteString(welcomeStyle.Render("🎯 为你找到这些搭子") + "\n\n")

	for i, r := range results {
		marker := "  "
		if selection[i] {
			marker = commandStyle.Render("✓ ")
		}
		b.WriteString(fmt.Sprintf("%s%d. %s %s  %s\n",
			marker, i+1, r.Person.Avatar,
			commandStyle.Render(r.Person.Name),
			warningStyle.Render(strconv.Itoa(r.Score)+"分")))
		b.WriteString(fmt.Sprintf("     %s\n", infoStyle.Render(r.Person.School)))
		b.WriteString(fmt.Sprintf("     %s\n",
			infoStyle.Render("兴趣："+strings.Join(r.Person.Interests, "、"))))
	}
	return b.String()
}

// searchBackend queries the candidate service and prints the results.
func searchBackend(session *ChatSession) {
	ctx, cancel := context.WithTimeout(context.Background(), backend.DefaultTimeout)
	defer cancel()

	candidates, err := session.Backend.SearchCandidates(ctx, session.Conv.UserTexts())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", warningStyle.Render("[后端不可用]"), err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	text := backend.FormatCandidates(candidates)
	session.Conv.AddAssistantMessage(text)
	fmt.Println(RenderMarkdown(text))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches a /command. Returns false to exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printChatHelp()
		return true, nil

	case "/select", "/sel":
		return true, handleSelectCommand(session, args)

	case "/push", "/p":
		handlePushCommand(session)
		return true, nil

	case "/search":
		if session.Backend == nil {
			return true, fmt.Errorf("候选后端未配置，设置 FLOWOS_BACKEND_URL 后重试")
		}
		searchBackend(session)
		session.persist()
		return true, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/status", "/s":
		printSessionStatus(session)
		return true, nil

	case "/reset", "/r":
		resetSession(session)
		fmt.Println(commandStyle.Render("[已开始新的对话]"))
		fmt.Println(RenderMarkdown(canned.WelcomeText))
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("未知命令 %s，输入 /help 查看可用命令", command)
	}
}

// handleSelectCommand toggles candidate selection by number.
func handleSelectCommand(session *ChatSession, args []string) error {
	matches := session.Conv.LatestMatches()
	if len(matches) == 0 {
		return fmt.Errorf("还没有匹配结果，先完成对话确认")
	}
	if len(args) == 0 {
		return fmt.Errorf("用法：/select 1 [2 3]")
	}

	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(matches) {
			return fmt.Errorf("无效的编号 %q，可选 1-%d", arg, len(matches))
		}
		idx := n - 1
		if session.Selection[idx] {
			delete(session.Selection, idx)
		} else {
			session.Selection[idx] = true
		}
	}

	fmt.Println(renderMatches(matches, session.Selection))
	return nil
}

// handlePushCommand pushes the selected contacts and clears selection.
func handlePushCommand(session *ChatSession) {
	matches := session.Conv.LatestMatches()

	var names []string
	for i, r := range matches {
		if session.Selection[i] {
			names = append(names, r.Person.Name)
		}
	}

	if len(names) == 0 {
		fmt.Println(warningStyle.Render("请先选择要推送的联系人"))
		return
	}

	text := "已为你推送 " + strings.Join(names, "、") + " 的信息！" +
		"对方会收到你的基本信息，如果双方都感兴趣，系统会自动建立联系。"
	session.Conv.AddSystemMessage(text)
	session.Selection = make(map[int]bool)
	session.persist()

	fmt.Println(commandStyle.Render(text))
}

// resetSession starts a fresh conversation and clears persisted state.
func resetSession(session *ChatSession) {
	session.Conv = model.NewConversation()
	session.Conv.AddAssistantMessage(canned.WelcomeText)
	session.Profile = model.UserProfile{}
	session.Selection = make(map[int]bool)
	if session.Store != nil {
		session.Store.Reset()
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("🤝 FlowOS 搭子匹配"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	if session.Assistant != nil {
		fmt.Printf("%s %s\n",
			infoStyle.Render("助手:"),
			commandStyle.Render(session.Config.Assistant.Model))
	} else {
		fmt.Printf("%s %s\n",
			infoStyle.Render("助手:"),
			warningStyle.Render("本地回复（未配置 API key）"))
	}
	fmt.Printf("%s %s\n",
		infoStyle.Render("阶段:"),
		commandStyle.Render(stageLabel(session.Conv.Stage)))

	fmt.Println(styles.RenderInfo("描述你理想中的搭子，/help 查看命令"))
	fmt.Println()

	if session.Conv.Len() == 1 {
		fmt.Println(RenderMarkdown(canned.WelcomeText))
	}
}

func printChatHelp() {
	help := [][2]string{
		{"/help, /h", "显示本帮助"},
		{"/select N", "选择或取消第 N 位搭子"},
		{"/push", "推送已选搭子的联系方式"},
		{"/search", "查询候选后端"},
		{"/history", "显示对话记录"},
		{"/status, /s", "显示会话状态"},
		{"/reset", "开始新的对话"},
		{"/quit, /q", "退出"},
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("可用命令"))
	for _, h := range help {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-12s", h[0])),
			infoStyle.Render(h[1]))
	}
	fmt.Println()
}

func printHistory(session *ChatSession) {
	fmt.Println()
	for _, msg := range session.Conv.Messages {
		label := "搭子助手"
		style := welcomeStyle
		switch {
		case msg.IsUser():
			label = "你"
			style = promptStyle
		case msg.Role == model.RoleSystem:
			label = "系统"
			style = warningStyle
		}
		fmt.Printf("%s %s\n", style.Render(label+":"),
			util.TruncateRunes(msg.GetDisplayContent(), 120))
	}

	if session.Visits != nil {
		if records, err := session.Visits.MatchHistory(10); err == nil && len(records) > 0 {
			fmt.Println()
			fmt.Println(summaryHeaderStyle.Render("历史匹配"))
			for _, rec := range records {
				fmt.Printf("  %s %s %s %s\n",
					infoStyle.Render(rec.MatchedAt.Format("01-02 15:04")),
					commandStyle.Render(rec.Name),
					rec.School,
					warningStyle.Render(strconv.Itoa(rec.Score)+"分"))
			}
		}
	}
	fmt.Println()
}

func printSessionStatus(session *ChatSession) {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("会话状态"))
	fmt.Printf("  %s %s\n", infoStyle.Render("阶段:"), stageLabel(session.Conv.Stage))
	fmt.Printf("  %s %d\n", infoStyle.Render("消息数:"), session.Conv.Len())
	fmt.Printf("  %s %s\n", infoStyle.Render("画像:"), profileSummary(session.Profile))

	if session.Backend != nil {
		ctx, cancel := context.WithTimeout(context.Background(), backend.HealthTimeout)
		online := session.Backend.CheckHealth(ctx) == nil
		cancel()
		label := "离线"
		if online {
			label = "在线"
		}
		fmt.Printf("  %s %s\n", infoStyle.Render("后端:"), styles.RenderStatus(online, label))
	} else {
		fmt.Printf("  %s %s\n", infoStyle.Render("后端:"), warningStyle.Render("未配置"))
	}
	fmt.Println()
}

func profileSummary(p model.UserProfile) string {
	if p.IsEmpty() {
		return "（暂无）"
	}
	return strings.Join(p.Traits, "、")
}

func stageLabel(stage model.ChatStage) string {
	switch stage {
	case model.StageRefining:
		return "细化中"
	case model.StageFinal:
		return "已确认"
	default:
		return "描述中"
	}
}

func printExitSummary(session *ChatSession) {
	if session.Exchanges == 0 {
		fmt.Println(infoStyle.Render("再见！"))
		return
	}

	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("会话小结"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %d\n", infoStyle.Render("交流轮次:"), session.Exchanges)
	fmt.Printf("  %s %s\n", infoStyle.Render("阶段:"), stageLabel(session.Conv.Stage))
	fmt.Printf("  %s %s\n", infoStyle.Render("用时:"), elapsed)
	fmt.Println(infoStyle.Render("再见！"))
}
