// Package config handles configuration and persona management for supportchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/supportchat/internal/api"
	"github.com/diogo/supportchat/internal/chat"
	"github.com/diogo/supportchat/internal/models"
	"github.com/diogo/supportchat/internal/theme"
)

// configDirName is the directory under $HOME holding config, personas and logs
const configDirName = ".supportchat"

// Config represents the user configuration. Values from config.json are
// overridden by SUPPORTCHAT_* environment variables.
type Config struct {
	Endpoint          string `json:"endpoint" env:"SUPPORTCHAT_ENDPOINT"`
	SystemInstruction string `json:"system_instruction" env:"SUPPORTCHAT_SYSTEM_INSTRUCTION"`
	// Persona, when set, replaces SystemInstruction with the persona's prompt
	Persona        string `json:"persona,omitempty" env:"SUPPORTCHAT_PERSONA"`
	Greeting       string `json:"greeting" env:"SUPPORTCHAT_GREETING"`
	FallbackReply  string `json:"fallback_reply" env:"SUPPORTCHAT_FALLBACK_REPLY"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"SUPPORTCHAT_TIMEOUT_SECONDS"`
	Proxy          string `json:"proxy,omitempty" env:"SUPPORTCHAT_PROXY"`
	// HistoryMode is "live" or "snapshot"
	HistoryMode     string `json:"history_mode" env:"SUPPORTCHAT_HISTORY_MODE"`
	TUITheme        string `json:"tui_theme,omitempty" env:"SUPPORTCHAT_TUI_THEME"`
	CopyToClipboard bool   `json:"copy_to_clipboard" env:"SUPPORTCHAT_COPY_TO_CLIPBOARD"`
	LogFile         string `json:"log_file,omitempty" env:"SUPPORTCHAT_LOG_FILE"`
	LogLevel        string `json:"log_level" env:"SUPPORTCHAT_LOG_LEVEL"`
	// Verbose forces debug logging and prints request details in one-shot mode
	Verbose bool `json:"verbose" env:"SUPPORTCHAT_VERBOSE"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:          models.DefaultEndpoint,
		SystemInstruction: models.DefaultSystemInstruction,
		Greeting:          models.DefaultGreeting,
		FallbackReply:     models.FallbackReply,
		TimeoutSeconds:    int(api.DefaultTimeout.Seconds()),
		HistoryMode:       string(chat.HistoryLive),
		TUITheme:          theme.DefaultName,
		CopyToClipboard:   false,
		LogLevel:          "info",
		Verbose:           false,
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds system prompts and logs with conversation errors
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file from cfg, or the default under the config dir
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "supportchat.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg, err := LoadFileConfig()
	if err != nil {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// LoadFileConfig loads config.json over the defaults without environment
// overrides. Commands that write the file back start from this.
func LoadFileConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that cfg can be used to start a session
func (c Config) Validate() error {
	if err := api.ValidateEndpoint(c.Endpoint); err != nil {
		return err
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds)
	}
	if _, err := chat.ParseHistoryMode(c.HistoryMode); err != nil {
		return err
	}
	if c.TUITheme != "" && !theme.Exists(c.TUITheme) {
		return fmt.Errorf("unknown tui_theme %q (available: %s)", c.TUITheme, strings.Join(theme.Names(), ", "))
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
	}
	return nil
}

// settableKeys maps config keys accepted by Set to their setters
var settableKeys = map[string]func(*Config, string) error{
	"endpoint":           func(c *Config, v string) error { c.Endpoint = v; return nil },
	"system_instruction": func(c *Config, v string) error { c.SystemInstruction = v; return nil },
	"persona":            func(c *Config, v string) error { c.Persona = v; return nil },
	"greeting":           func(c *Config, v string) error { c.Greeting = v; return nil },
	"fallback_reply":     func(c *Config, v string) error { c.FallbackReply = v; return nil },
	"proxy":              func(c *Config, v string) error { c.Proxy = v; return nil },
	"history_mode":       func(c *Config, v string) error { c.HistoryMode = v; return nil },
	"tui_theme":          func(c *Config, v string) error { c.TUITheme = v; return nil },
	"log_file":           func(c *Config, v string) error { c.LogFile = v; return nil },
	"log_level":          func(c *Config, v string) error { c.LogLevel = v; return nil },
	"timeout_seconds": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("timeout_seconds must be an integer: %w", err)
		}
		c.TimeoutSeconds = n
		return nil
	},
	"copy_to_clipboard": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("copy_to_clipboard must be true or false: %w", err)
		}
		c.CopyToClipboard = b
		return nil
	},
	"verbose": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("verbose must be true or false: %w", err)
		}
		c.Verbose = b
		return nil
	},
}

// SettableKeys returns the keys accepted by Set, sorted
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to the field named key and validates the result
func (c *Config) Set(key, value string) error {
	setter, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (available: %s)", key, strings.Join(SettableKeys(), ", "))
	}

	updated := *c
	if err := setter(&updated, value); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*c = updated
	return nil
}
