package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// Mainly ensures the function doesn't panic.
}

func TestApplyDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	t.Run("Server defaults", func(t *testing.T) {
		if config.Server.Host != "0.0.0.0" {
			t.Errorf("Expected host '0.0.0.0', got %q", config.Server.Host)
		}
		if config.Server.Port != "8791" {
			t.Errorf("Expected port '8791', got %q", config.Server.Port)
		}
	})

	t.Run("Remote defaults", func(t *testing.T) {
		if config.Remote.BaseURL != "http://localhost:8791" {
			t.Errorf("Unexpected base URL %q", config.Remote.BaseURL)
		}
		if config.Remote.TimeoutSeconds != 10 {
			t.Errorf("Expected timeout 10, got %d", config.Remote.TimeoutSeconds)
		}
		if config.Remote.Timeout() != 10*time.Second {
			t.Errorf("Unexpected timeout duration %v", config.Remote.Timeout())
		}
	})

	t.Run("Content defaults", func(t *testing.T) {
		if config.Content.PerPage != 10 {
			t.Errorf("Expected per page 10, got %d", config.Content.PerPage)
		}
		if config.Content.AutosaveInterval() != 5*time.Second {
			t.Errorf("Unexpected autosave interval %v", config.Content.AutosaveInterval())
		}
		if config.Content.SearchDebounce() != 500*time.Millisecond {
			t.Errorf("Unexpected search debounce %v", config.Content.SearchDebounce())
		}
		if config.Content.ExcerptLength != 150 {
			t.Errorf("Expected excerpt length 150, got %d", config.Content.ExcerptLength)
		}
	})

	t.Run("Storage defaults", func(t *testing.T) {
		if config.Storage.Backend != "sqlite" {
			t.Errorf("Expected backend 'sqlite', got %q", config.Storage.Backend)
		}
		if config.Storage.SQLite.Path != "./nulis.db" {
			t.Errorf("Unexpected sqlite path %q", config.Storage.SQLite.Path)
		}
		if config.Storage.S3.Bucket != "nulis-writings" {
			t.Errorf("Unexpected bucket %q", config.Storage.S3.Bucket)
		}
	})

	t.Run("Logging defaults", func(t *testing.T) {
		if config.Logging.Level != "info" {
			t.Errorf("Expected level 'info', got %q", config.Logging.Level)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("Missing file falls back to defaults", func(t *testing.T) {
		if err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if AppConfig.Server.Port != "8791" {
			t.Errorf("Expected default port, got %q", AppConfig.Server.Port)
		}
	})

	t.Run("File overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := []byte("server:\n  port: \"9000\"\ncontent:\n  per_page: 25\n")
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		if err := LoadConfig(path); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if AppConfig.Server.Port != "9000" {
			t.Errorf("Expected port '9000', got %q", AppConfig.Server.Port)
		}
		if AppConfig.Content.PerPage != 25 {
			t.Errorf("Expected per page 25, got %d", AppConfig.Content.PerPage)
		}

		// Untouched keys keep their defaults.
		if AppConfig.Content.ExcerptLength != 150 {
			t.Errorf("Expected default excerpt length, got %d", AppConfig.Content.ExcerptLength)
		}
	})

	t.Run("Malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("server: [not: a map"), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if err := LoadConfig(path); err == nil {
			t.Error("Expected an error for malformed yaml")
		}
	})
}
