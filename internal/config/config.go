// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alienxp03/sparring/internal/provider"
)

// Config represents the application configuration.
type Config struct {
	Defaults  DefaultsConfig            `yaml:"defaults"`
	Policy    PolicyConfig              `yaml:"policy"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Server    ServerConfig              `yaml:"server,omitempty"`
	Database  DatabaseConfig            `yaml:"database,omitempty"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// DefaultsConfig holds default settings.
type DefaultsConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// PolicyConfig holds access-policy settings.
type PolicyConfig struct {
	FreeRounds int `yaml:"free_rounds"`
	MaxFiles   int `yaml:"max_files"`
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	Command      string        `yaml:"command"`
	Args         []string      `yaml:"args,omitempty"`
	ModelFlag    string        `yaml:"model_flag,omitempty"`
	DefaultModel string        `yaml:"default_model,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	Enabled      bool          `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Provider: "claude",
			Model:    "",
		},
		Policy: PolicyConfig{
			FreeRounds: 3,
			MaxFiles:   3,
		},
		Server: ServerConfig{
			Port: 8184,
		},
		Providers: map[string]ProviderConfig{
			"claude": {
				Command:   "claude",
				Args:      []string{"--print"},
				ModelFlag: "--model",
				Timeout:   5 * time.Minute,
				Enabled:   true,
			},
			"gemini": {
				Command:   "gemini",
				ModelFlag: "--model",
				Timeout:   5 * time.Minute,
				Enabled:   true,
			},
			"codex": {
				Command:   "codex",
				Args:      []string{"exec"},
				ModelFlag: "--model",
				Timeout:   5 * time.Minute,
				Enabled:   true,
			},
			"mock": {
				Timeout: 1 * time.Minute,
				Enabled: true,
			},
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Merge with defaults for any missing providers
	for name, defaultProvider := range Default().Providers {
		if _, exists := cfg.Providers[name]; !exists {
			cfg.Providers[name] = defaultProvider
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetProvider returns the configuration for a provider.
func (c *Config) GetProvider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// ToProviderConfig converts a ProviderConfig to provider.Config.
func (p ProviderConfig) ToProviderConfig(name string) provider.Config {
	return provider.Config{
		Name:         name,
		Command:      p.Command,
		Args:         p.Args,
		ModelFlag:    p.ModelFlag,
		DefaultModel: p.DefaultModel,
		Timeout:      p.Timeout,
	}
}

func createProviderFromName(name string, cfg provider.Config) provider.Provider {
	if name == "mock" {
		return provider.NewMockProvider()
	}
	return provider.NewCLIProvider(cfg)
}

// CreateRegistry creates a provider registry from this configuration.
func (c *Config) CreateRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	for name, provCfg := range c.Providers {
		if !provCfg.Enabled {
			continue
		}
		registry.Register(createProviderFromName(name, provCfg.ToProviderConfig(name)))
	}
	return registry
}

// DatabasePath returns the configured database path or the default.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "sparring.db"
	}
	return filepath.Join(home, ".sparring", "sparring.db")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sparring.yaml"
	}
	return filepath.Join(home, ".sparring", "config.yaml")
}
