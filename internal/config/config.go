// Package config loads and validates the service configuration.
// Configuration lives at ~/.operator996/config.yaml and can be overridden
// by environment variables with the OPERATOR996 prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration for the Cognitive OS service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains configuration for the HTTP/WebSocket server.
type ServerConfig struct {
	// Port is the listen port for the API server
	Port int `mapstructure:"port" yaml:"port"`
	// AllowedOrigin is the CORS origin ("*" allows any, for demo deployments)
	AllowedOrigin string `mapstructure:"allowed_origin" yaml:"allowed_origin"`
	// ShutdownTimeout is the graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig contains configuration for the SQLite persistence layer.
type DatabaseConfig struct {
	// Enabled determines whether events and profiles are persisted.
	// When false the engine runs purely in memory.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Path is the directory holding the SQLite database file
	Path string `mapstructure:"path" yaml:"path"`
}

// EmbeddingConfig contains configuration for the optional semantic
// embedding backend used by similarity search.
type EmbeddingConfig struct {
	// Enabled determines whether the embedder is constructed at all
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// OllamaURL is the URL for the Ollama server
	OllamaURL string `mapstructure:"ollama_url" yaml:"ollama_url"`
	// Model is the embedding model name (e.g., "nomic-embed-text")
	Model string `mapstructure:"model" yaml:"model"`
	// Timeout bounds a single embedding round-trip
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig contains configuration for application logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error")
	Level string `mapstructure:"level" yaml:"level"`
	// File is the path to the log file (empty disables file logging)
	File string `mapstructure:"file" yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".operator996")

	return &Config{
		Server: ServerConfig{
			Port:            8000,
			AllowedOrigin:   "*",
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Enabled: true,
			Path:    dataDir,
		},
		Embedding: EmbeddingConfig{
			Enabled:   true,
			OllamaURL: "http://127.0.0.1:11434",
			Model:     "nomic-embed-text",
			Timeout:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dataDir, "logs", "operator996.log"),
		},
	}
}

// Load reads configuration from the default location (~/.operator996/config.yaml)
// and merges with environment variables. If no config file exists, it creates
// one with default values.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	return LoadFromPath(filepath.Join(homeDir, ".operator996", "config.yaml"))
}

// LoadFromPath reads configuration from a specific file path and merges with
// environment variables. If the file doesn't exist, it creates one with
// default values.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Example override: OPERATOR996_SERVER_PORT=9000
	v.SetEnvPrefix("OPERATOR996")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Logging.File = expandPath(cfg.Logging.File)

	return &cfg, nil
}

// SaveToPath writes the current configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	return writeConfigFile(path, c)
}

// EnsureDirectories creates all directories required for operation.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.Database.Path != "" {
		dirs = append(dirs, c.Database.Path)
	}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty when database is enabled")
	}

	if c.Embedding.Enabled && c.Embedding.OllamaURL == "" {
		return fmt.Errorf("embedding.ollama_url cannot be empty when embedding is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// writeConfigFile writes a Config struct to a YAML file.
// Uses gopkg.in/yaml.v3 directly to ensure proper tag-based serialization.
func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ to the user's home directory in a path string.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
