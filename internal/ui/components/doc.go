// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the flowos TUI.
//
// Components are pure renderers: each one takes state plus a theme and
// produces a string for the Bubble Tea view. Message bubbles handle the
// three chat roles and the match-card layout, the status bar shows backend
// health, visitor count and the current conversation stage, and the
// welcome banner is shown on first start and after a reset.
package components
