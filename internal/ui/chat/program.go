// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/flowos-tui/internal/config"
)

// The streaming goroutine needs a handle on the running program to send
// token messages back into the update loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// SetProgram registers the running Bubble Tea program.
func SetProgram(p *tea.Program) {
	programMu.Lock()
	programRef = p
	programMu.Unlock()
}

// sendMsg delivers a message to the running program, dropping it when no
// program is registered (tests drive Update directly).
func sendMsg(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// NotifyConfigReload forwards a reloaded configuration into the update
// loop. The config watcher calls this from its own goroutine.
func NotifyConfigReload(cfg *config.Config) {
	sendMsg(ConfigReloadedMsg{Config: cfg})
}
