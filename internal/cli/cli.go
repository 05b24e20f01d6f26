// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command dispatch for flowos.

package cli

import (
	"fmt"
	"os"
)

// Version is the flowos release version, overridable at build time with
// -ldflags "-X github.com/jeranaias/flowos-tui/internal/cli.Version=...".
var Version = "0.1.0"

// Run dispatches a flowos subcommand. Returns the process exit code.
// The empty command (plain "flowos") is handled by main, which starts
// the TUI, so Run only sees explicit subcommands.
func Run(argv []string) int {
	args := NewArgParser(argv)

	var err error
	switch args.Subcommand() {
	case "chat":
		err = HandleChatCommand(args)
	case "status":
		err = HandleStatusCommand(args)
	case "version", "--version", "-v":
		fmt.Println("flowos " + Version)
	case "help", "--help", "-h", "":
		PrintUsage()
	default:
		fmt.Fprintf(os.Stderr, "未知命令 %q\n\n", args.Subcommand())
		PrintUsage()
		return 1
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[错误]"), err)
		return 1
	}
	return 0
}

// PrintUsage prints top-level usage.
func PrintUsage() {
	fmt.Println(welcomeStyle.Render("flowos") + infoStyle.Render(" - 终端搭子匹配"))
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("用法"))
	fmt.Println("  flowos              启动终端界面")
	fmt.Println("  flowos chat         命令行对话模式")
	fmt.Println("  flowos status       查看配置与后端状态")
	fmt.Println("  flowos version      显示版本")
	fmt.Println("  flowos help         显示本帮助")
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("环境变量"))
	fmt.Println("  FLOWOS_API_KEY      Kimi API key（未设置时使用本地回复）")
	fmt.Println("  FLOWOS_BACKEND_URL  候选搭子后端地址")
	fmt.Println("  FLOWOS_STATS_URL    访客统计接口地址")
	fmt.Println()
}
