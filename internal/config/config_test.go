package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `
# Comment
KEY1=value1
KEY2="value 2"
KEY3='value 3'
KEY4=value 4 # inline comment
EMPTY=
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create env file: %v", err)
	}

	env, err := LoadEnv(envFile)
	if err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"KEY1", "value1"},
		{"KEY2", "value 2"},
		{"KEY3", "value 3"},
		{"KEY4", "value 4"},
		{"EMPTY", ""},
	}

	for _, tt := range tests {
		if got, ok := env[tt.key]; !ok || got != tt.expected {
			t.Errorf("expected %s=%q, got %q (exists=%v)", tt.key, tt.expected, got, ok)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	env := map[string]string{
		"DEFAULT_PROVIDER":        "gemini",
		"FREE_ROUNDS":             "5",
		"PROVIDER_CLAUDE_ENABLED": "false",
		"PROVIDER_TIMEOUT":        "60",
		"SERVER_PORT":             "9090",
		"DATABASE_PATH":           "/tmp/test.db",
	}

	ApplyEnvOverrides(cfg, env)

	if cfg.Defaults.Provider != "gemini" {
		t.Errorf("expected provider gemini, got %s", cfg.Defaults.Provider)
	}
	if cfg.Policy.FreeRounds != 5 {
		t.Errorf("expected 5 free rounds, got %d", cfg.Policy.FreeRounds)
	}
	if cfg.Providers["claude"].Enabled {
		t.Error("expected claude to be disabled")
	}
	if cfg.Providers["gemini"].Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %s", cfg.Providers["gemini"].Timeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("expected database path override, got %s", cfg.Database.Path)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file should fall back to defaults: %v", err)
	}
	if cfg.Defaults.Provider != "claude" {
		t.Errorf("expected default provider, got %s", cfg.Defaults.Provider)
	}
	if cfg.Policy.FreeRounds != 3 {
		t.Errorf("expected 3 free rounds, got %d", cfg.Policy.FreeRounds)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
defaults:
  provider: gemini
policy:
  free_rounds: 10
server:
  port: 9000
providers:
  custom:
    command: my-llm
    enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Defaults.Provider != "gemini" {
		t.Errorf("expected gemini, got %s", cfg.Defaults.Provider)
	}
	if cfg.Policy.FreeRounds != 10 {
		t.Errorf("expected 10 free rounds, got %d", cfg.Policy.FreeRounds)
	}

	// Custom provider kept, defaults merged in alongside it.
	if _, ok := cfg.Providers["custom"]; !ok {
		t.Error("expected custom provider to survive")
	}
	if _, ok := cfg.Providers["claude"]; !ok {
		t.Error("expected default providers to be merged in")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Defaults.Provider = "codex"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Defaults.Provider != "codex" {
		t.Errorf("expected codex, got %s", loaded.Defaults.Provider)
	}
}

func TestCreateRegistry(t *testing.T) {
	cfg := Default()
	registry := cfg.CreateRegistry()

	for _, name := range []string{"claude", "gemini", "codex", "mock"} {
		if !registry.Has(name) {
			t.Errorf("expected provider %s in registry", name)
		}
	}

	cfg.Providers["claude"] = ProviderConfig{Command: "claude", Enabled: false}
	registry = cfg.CreateRegistry()
	if registry.Has("claude") {
		t.Error("disabled providers must not be registered")
	}
}
