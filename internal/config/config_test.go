// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://api.moonshot.cn/v1", cfg.Assistant.BaseURL)
	assert.Equal(t, "moonshot-v1-8k", cfg.Assistant.Model)
	assert.InDelta(t, 0.7, cfg.Assistant.Temperature, 0.001)
	assert.Equal(t, 2000, cfg.Assistant.MaxTokens)
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.True(t, cfg.UI.ShowVisitors)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromPathTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[assistant]
api_key = "sk-test"
model = "moonshot-v1-32k"

[backend]
base_url = "http://localhost:8080"

[ui]
theme = "dark"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Assistant.APIKey)
	assert.Equal(t, "moonshot-v1-32k", cfg.Assistant.Model)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "dark", cfg.UI.Theme)

	// Unset fields fall back to defaults
	assert.Equal(t, "https://api.moonshot.cn/v1", cfg.Assistant.BaseURL)
	assert.Equal(t, 2000, cfg.Assistant.MaxTokens)
}

func TestLoadFromPathJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"assistant":{"api_key":"sk-json","temperature":0.3}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-json", cfg.Assistant.APIKey)
	assert.InDelta(t, 0.3, cfg.Assistant.Temperature, 0.001)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FLOWOS_API_KEY", "sk-env")
	t.Setenv("FLOWOS_MODEL", "moonshot-v1-128k")
	t.Setenv("FLOWOS_BACKEND_URL", "http://backend:9000")
	t.Setenv("FLOWOS_TEMPERATURE", "1.2")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "sk-env", cfg.Assistant.APIKey)
	assert.Equal(t, "moonshot-v1-128k", cfg.Assistant.Model)
	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.InDelta(t, 1.2, cfg.Assistant.Temperature, 0.001)
}

func TestEnvOverrideIgnoresBadTemperature(t *testing.T) {
	t.Setenv("FLOWOS_TEMPERATURE", "hot")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.InDelta(t, 0.7, cfg.Assistant.Temperature, 0.001)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"temperature too high", func(c *Config) { c.Assistant.Temperature = 3 }, "assistant.temperature"},
		{"negative max tokens", func(c *Config) { c.Assistant.MaxTokens = -1 }, "assistant.max_tokens"},
		{"bad base url", func(c *Config) { c.Assistant.BaseURL = "ftp://x" }, "assistant.base_url"},
		{"bad backend url", func(c *Config) { c.Backend.BaseURL = "not-a-url" }, "backend.base_url"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Assistant.Temperature = -1
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Assistant.APIKey = "sk-roundtrip"
	cfg.UI.CompactMode = true
	require.NoError(t, SaveTOML(cfg, path))

	// Saved with restrictive permissions
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-roundtrip", loaded.Assistant.APIKey)
	assert.True(t, loaded.UI.CompactMode)
}

func TestGlobalSetAndReset(t *testing.T) {
	defer ResetGlobalForTesting()

	custom := Default()
	custom.Assistant.Model = "custom-model"
	SetGlobal(custom)

	assert.Equal(t, "custom-model", Global().Assistant.Model)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	defer ResetGlobalForTesting()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Assistant.Model = "before"
	require.NoError(t, SaveTOML(cfg, path))

	reloaded := make(chan *Config, 1)
	watcher, err := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	require.NoError(t, err)
	watcher.debounce = 50 * time.Millisecond
	require.NoError(t, watcher.Watch())
	defer watcher.Close()

	cfg.Assistant.Model = "after"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, "after", got.Assistant.Model)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload config")
	}
}
