// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages flowos configuration.
//
// Configuration is read from ~/.flowos/config.toml (TOML preferred, JSON
// fallback), overlaid with FLOWOS_* environment variables and validated.
// A global instance is loaded lazily with sync.Once. An optional fsnotify
// watcher reloads the assistant settings when the config file changes on
// disk.
package config
