// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config is the root configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Assistant AssistantConfig `toml:"assistant" json:"assistant"`
	Backend   BackendConfig   `toml:"backend" json:"backend"`
	Stats     StatsConfig     `toml:"stats" json:"stats"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	UI        UIConfig        `toml:"ui" json:"ui"`
}

// AssistantConfig configures the streaming chat assistant.
type AssistantConfig struct {
	// APIKey authenticates against the chat completion API.
	APIKey string `toml:"api_key" json:"api_key"`

	// BaseURL is the API root, e.g. https://api.moonshot.cn/v1
	BaseURL string `toml:"base_url" json:"base_url"`

	// Model is the chat model name.
	Model string `toml:"model" json:"model"`

	// Temperature for completions.
	Temperature float64 `toml:"temperature" json:"temperature"`

	// MaxTokens limits completion length.
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
}

// BackendConfig configures the candidate search backend.
type BackendConfig struct {
	// BaseURL is the search service root.
	BaseURL string `toml:"base_url" json:"base_url"`
}

// StatsConfig configures the visitor analytics client.
type StatsConfig struct {
	// Endpoint is the full stats URL.
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// ShareToken authenticates the stats query.
	ShareToken string `toml:"share_token" json:"share_token"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	// DataDir holds history, profile, matches and the visit database.
	// Empty means ~/.flowos.
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// UIConfig holds display preferences.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`

	// ShowVisitors toggles the visitor count in the status bar.
	ShowVisitors bool `toml:"show_visitors" json:"show_visitors"`

	// CompactMode reduces message padding.
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Assistant: AssistantConfig{
			APIKey:      "",
			BaseURL:     "https://api.moonshot.cn/v1",
			Model:       "moonshot-v1-8k",
			Temperature: 0.7,
			MaxTokens:   2000,
		},

		Backend: BackendConfig{
			BaseURL: "",
		},

		Stats: StatsConfig{
			Endpoint:   "",
			ShareToken: "",
		},

		Storage: StorageConfig{
			DataDir: "",
		},

		UI: UIConfig{
			Theme:        "auto",
			ShowVisitors: true,
			CompactMode:  false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the flowos configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".flowos"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions tightens config file permissions.
// Config files hold API keys and should be owner read/write only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0077 != 0 {
		return os.Chmod(path, 0600)
	}
	return nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from disk, preferring TOML over JSON, applies
// environment overrides and validates. Missing files yield defaults.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finalize(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finalize(cfg)
		}
	}

	return finalize(cfg)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finalize(cfg)
}

// finalize applies env overrides, fills defaults and validates.
func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration as TOML to the default path.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides overlays FLOWOS_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("FLOWOS_API_KEY"); key != "" {
		c.Assistant.APIKey = key
	}
	if url := os.Getenv("FLOWOS_API_URL"); url != "" {
		c.Assistant.BaseURL = url
	}
	if model := os.Getenv("FLOWOS_MODEL"); model != "" {
		c.Assistant.Model = model
	}
	if temp := os.Getenv("FLOWOS_TEMPERATURE"); temp != "" {
		if f, err := strconv.ParseFloat(temp, 64); err == nil {
			c.Assistant.Temperature = f
		}
	}
	if backend := os.Getenv("FLOWOS_BACKEND_URL"); backend != "" {
		c.Backend.BaseURL = backend
	}
	if endpoint := os.Getenv("FLOWOS_STATS_URL"); endpoint != "" {
		c.Stats.Endpoint = endpoint
	}
	if token := os.Getenv("FLOWOS_STATS_TOKEN"); token != "" {
		c.Stats.ShareToken = token
	}
	if dir := os.Getenv("FLOWOS_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if theme := os.Getenv("FLOWOS_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills in zero values with defaults.
func (c *Config) SetDefaults() {
	def := Default()

	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Assistant.BaseURL == "" {
		c.Assistant.BaseURL = def.Assistant.BaseURL
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = def.Assistant.Model
	}
	if c.Assistant.Temperature == 0 {
		c.Assistant.Temperature = def.Assistant.Temperature
	}
	if c.Assistant.MaxTokens == 0 {
		c.Assistant.MaxTokens = def.Assistant.MaxTokens
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Assistant.Temperature < 0 || c.Assistant.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "assistant.temperature",
			Message: "must be between 0 and 2",
		})
	}
	if c.Assistant.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "assistant.max_tokens",
			Message: "cannot be negative",
		})
	}
	if !strings.HasPrefix(c.Assistant.BaseURL, "http://") &&
		!strings.HasPrefix(c.Assistant.BaseURL, "https://") {
		errs = append(errs, ValidationError{
			Field:   "assistant.base_url",
			Message: "must be an http(s) URL",
		})
	}
	if c.Backend.BaseURL != "" &&
		!strings.HasPrefix(c.Backend.BaseURL, "http://") &&
		!strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: "must be an http(s) URL",
		})
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: "must be dark, light or auto",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DataDir resolves the storage directory, falling back to the config dir.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	return ConfigDir()
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
