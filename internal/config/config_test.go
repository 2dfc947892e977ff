package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Server.AllowedOrigin != "*" {
		t.Errorf("expected wildcard origin, got %q", cfg.Server.AllowedOrigin)
	}
	if cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("unexpected default model %q", cfg.Embedding.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	t.Run("creates default config when missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")

		cfg, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("LoadFromPath failed: %v", err)
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Error("expected config file to be created")
		}
		if cfg.Server.Port != 8000 {
			t.Errorf("expected default port, got %d", cfg.Server.Port)
		}
	})

	t.Run("reads values from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
server:
  port: 9100
  allowed_origin: "https://example.com"
  shutdown_timeout: 10s
database:
  enabled: false
  path: /tmp/op996
embedding:
  enabled: false
  ollama_url: http://localhost:11434
  model: nomic-embed-text
  timeout: 15s
logging:
  level: debug
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("LoadFromPath failed: %v", err)
		}

		if cfg.Server.Port != 9100 {
			t.Errorf("expected port 9100, got %d", cfg.Server.Port)
		}
		if cfg.Server.ShutdownTimeout != 10*time.Second {
			t.Errorf("expected 10s shutdown timeout, got %v", cfg.Server.ShutdownTimeout)
		}
		if cfg.Database.Enabled {
			t.Error("expected database disabled")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug level, got %q", cfg.Logging.Level)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty db path with db enabled", func(c *Config) { c.Database.Path = "" }, true},
		{"empty ollama url with embedding enabled", func(c *Config) { c.Embedding.OllamaURL = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"db disabled ignores path", func(c *Config) {
			c.Database.Enabled = false
			c.Database.Path = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got := expandPath("~/data")
	if got != filepath.Join(home, "data") {
		t.Errorf("expected home expansion, got %q", got)
	}

	if got := expandPath("/absolute/path"); got != "/absolute/path" {
		t.Errorf("absolute path should pass through, got %q", got)
	}
}
