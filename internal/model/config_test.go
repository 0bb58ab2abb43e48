package model

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Service.BaseURL != "https://api.pawhaven.example.com" {
		t.Errorf("base_url = %q", cfg.Service.BaseURL)
	}
	if cfg.Service.PollIntervalSec != 60 {
		t.Errorf("poll_interval_sec = %d, want 60", cfg.Service.PollIntervalSec)
	}
	if cfg.AI.MaxTokens != 4096 {
		t.Errorf("ai.max_tokens = %d, want 4096", cfg.AI.MaxTokens)
	}
	if cfg.Display.Theme != "default" {
		t.Errorf("display.theme = %q", cfg.Display.Theme)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &AppConfig{
		Service: ServiceConfig{
			BaseURL:         "https://staging.pawhaven.example.com",
			PollIntervalSec: 30,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 2048,
		},
		Display: DisplayConfig{Theme: "dark"},
	}

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded.Service.BaseURL != cfg.Service.BaseURL {
		t.Errorf("base_url = %q, want %q", loaded.Service.BaseURL, cfg.Service.BaseURL)
	}
	if loaded.Service.PollIntervalSec != 30 {
		t.Errorf("poll_interval_sec = %d, want 30", loaded.Service.PollIntervalSec)
	}
	if loaded.AI.MaxTokens != 2048 {
		t.Errorf("ai.max_tokens = %d, want 2048", loaded.AI.MaxTokens)
	}
	if loaded.Display.Theme != "dark" {
		t.Errorf("theme = %q, want dark", loaded.Display.Theme)
	}
}

func TestLoadConfigNormalizesBadInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &AppConfig{
		Service: ServiceConfig{
			BaseURL:         "https://api.pawhaven.example.com",
			PollIntervalSec: -5,
		},
	}
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Service.PollIntervalSec != 60 {
		t.Errorf("poll_interval_sec = %d, want fallback 60", loaded.Service.PollIntervalSec)
	}
}
