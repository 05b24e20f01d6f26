// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the flowos command-line interface: a line-based
// chat REPL as an alternative to the full-screen TUI, plus the status,
// version and help commands.
//
// Commands:
//
//	flowos            Launch the terminal UI (default)
//	flowos chat       Line-based chat REPL with input history
//	flowos status     Show configuration, backend health and visitors
//	flowos version    Print the version
//	flowos help       Show usage
package cli
