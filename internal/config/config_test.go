package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/supportchat/internal/models"
)

// setupHome points HOME at a temp dir and clears SUPPORTCHAT_* overrides
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "SUPPORTCHAT_") {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
			os.Unsetenv(strings.SplitN(kv, "=", 2)[0])
		}
	}
	return home
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Endpoint != models.DefaultEndpoint {
		t.Errorf("Endpoint = %s, want %s", cfg.Endpoint, models.DefaultEndpoint)
	}
	if cfg.SystemInstruction != models.DefaultSystemInstruction {
		t.Errorf("SystemInstruction = %q", cfg.SystemInstruction)
	}
	if cfg.HistoryMode != "live" {
		t.Errorf("HistoryMode = %s, want live", cfg.HistoryMode)
	}
	if cfg.Verbose {
		t.Error("Verbose should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	home := setupHome(t)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	if want := filepath.Join(home, ".supportchat", "config.json"); path != want {
		t.Errorf("GetConfigPath() = %s, want %s", path, want)
	}
}

func TestGetLogPath(t *testing.T) {
	home := setupHome(t)

	path, err := GetLogPath(DefaultConfig())
	if err != nil {
		t.Fatalf("GetLogPath() error: %v", err)
	}
	if want := filepath.Join(home, ".supportchat", "supportchat.log"); path != want {
		t.Errorf("GetLogPath() = %s, want %s", path, want)
	}

	cfg := DefaultConfig()
	cfg.LogFile = "/var/log/chat.log"
	if path, _ := GetLogPath(cfg); path != "/var/log/chat.log" {
		t.Errorf("GetLogPath() = %s, want explicit file", path)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	setupHome(t)

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir() error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("config path is not a directory")
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	setupHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	setupHome(t)

	cfg := DefaultConfig()
	cfg.Endpoint = "https://support.example.com/api/chat"
	cfg.HistoryMode = "snapshot"
	cfg.CopyToClipboard = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	path, _ := GetConfigPath()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded != cfg {
		t.Errorf("LoadConfig() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	setupHome(t)

	dir, _ := EnsureConfigDir()
	data, _ := json.Marshal(map[string]any{"endpoint": "http://10.0.0.5:3000/api/chat"})
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Endpoint != "http://10.0.0.5:3000/api/chat" {
		t.Errorf("Endpoint = %s", cfg.Endpoint)
	}
	if cfg.Greeting != models.DefaultGreeting {
		t.Errorf("Greeting should keep its default, got %q", cfg.Greeting)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	setupHome(t)

	dir, _ := EnsureConfigDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Fatal("LoadConfig() should fail on invalid JSON")
	}
	if cfg != DefaultConfig() {
		t.Error("LoadConfig() should return defaults alongside the parse error")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setupHome(t)

	if err := SaveConfig(DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUPPORTCHAT_ENDPOINT", "https://env.example.com/api/chat")
	t.Setenv("SUPPORTCHAT_TIMEOUT_SECONDS", "15")
	t.Setenv("SUPPORTCHAT_VERBOSE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Endpoint != "https://env.example.com/api/chat" {
		t.Errorf("Endpoint = %s, want env override", cfg.Endpoint)
	}
	if cfg.TimeoutSeconds != 15 {
		t.Errorf("TimeoutSeconds = %d, want 15", cfg.TimeoutSeconds)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be set from env")
	}
}

func TestLoadFileConfig_IgnoresEnv(t *testing.T) {
	setupHome(t)
	t.Setenv("SUPPORTCHAT_ENDPOINT", "https://env.example.com/api/chat")

	cfg, err := LoadFileConfig()
	if err != nil {
		t.Fatalf("LoadFileConfig() error: %v", err)
	}
	if cfg.Endpoint != models.DefaultEndpoint {
		t.Errorf("Endpoint = %s, env must not apply", cfg.Endpoint)
	}
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	setupHome(t)
	t.Setenv("SUPPORTCHAT_TIMEOUT_SECONDS", "soon")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject a non-numeric timeout")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative endpoint", func(c *Config) { c.Endpoint = "/api/chat" }},
		{"negative timeout", func(c *Config) { c.TimeoutSeconds = -1 }},
		{"unknown history mode", func(c *Config) { c.HistoryMode = "stale" }},
		{"unknown theme", func(c *Config) { c.TUITheme = "solarized" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestConfigSet(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Set("history_mode", "snapshot"); err != nil {
		t.Fatalf("Set(history_mode) error: %v", err)
	}
	if cfg.HistoryMode != "snapshot" {
		t.Errorf("HistoryMode = %s", cfg.HistoryMode)
	}

	if err := cfg.Set("timeout_seconds", "30"); err != nil || cfg.TimeoutSeconds != 30 {
		t.Errorf("Set(timeout_seconds) = %v, value %d", err, cfg.TimeoutSeconds)
	}
	if err := cfg.Set("copy_to_clipboard", "true"); err != nil || !cfg.CopyToClipboard {
		t.Errorf("Set(copy_to_clipboard) = %v", err)
	}

	before := cfg
	if err := cfg.Set("endpoint", "not a url"); err == nil {
		t.Error("Set should reject an invalid endpoint")
	}
	if err := cfg.Set("timeout_seconds", "ten"); err == nil {
		t.Error("Set should reject a non-numeric timeout")
	}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Error("Set should reject unknown keys")
	}
	if cfg != before {
		t.Error("failed Set must leave the config unchanged")
	}
}

func TestSettableKeysSorted(t *testing.T) {
	keys := SettableKeys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}
