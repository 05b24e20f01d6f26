// flowos - A terminal interface for staged teammate matching.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/flowos-tui/internal/cli"
	"github.com/jeranaias/flowos-tui/internal/config"
	"github.com/jeranaias/flowos-tui/internal/ui/chat"
)

// Version information (set at build time)
var Version = "0.1.0"

func init() {
	cli.Version = Version
}

func main() {
	// Subcommands go through the CLI dispatcher; plain "flowos" starts
	// the full-screen TUI.
	if len(os.Args) > 1 {
		os.Exit(cli.Run(os.Args[1:]))
	}
	runTUI()
}

// runTUI starts the terminal interface.
func runTUI() {
	cfg := config.Global()

	// Reload assistant settings live when the config file changes. The
	// watcher hands the new config to the running model through the
	// program reference registered below.
	if path, err := config.ConfigPathTOML(); err == nil {
		if w, err := config.NewWatcher(path, chat.NotifyConfigReload); err == nil {
			if w.Watch() == nil {
				defer w.Close()
			}
		}
	}

	m := chat.NewModel(cfg)
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Store the program reference so streaming goroutines can deliver
	// messages into the update loop.
	chat.SetProgram(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running flowos: %v\n", err)
		os.Exit(1)
	}
}
