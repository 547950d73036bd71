package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Calendar != "Tasks" {
		t.Errorf("Expected calendar 'Tasks', got '%s'", cfg.Calendar)
	}
	if cfg.CacheExpiry != 5*time.Minute {
		t.Errorf("Expected cache expiry 5m, got %s", cfg.CacheExpiry)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("Expected log level INFO, got %s", cfg.LogLevel)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TASKHR_API_URL", "https://hr.example.com/api")
	t.Setenv("TASKHR_CACHE_EXPIRY", "30s")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.APIURL != "https://hr.example.com/api" {
		t.Errorf("Expected API URL from env, got %s", cfg.APIURL)
	}
	if cfg.CacheExpiry != 30*time.Second {
		t.Errorf("Expected cache expiry 30s, got %s", cfg.CacheExpiry)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if err := cfg.Set("calendar", "HR Deadlines"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cfg.Set("timeout", "45s"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Calendar != "HR Deadlines" {
		t.Errorf("Expected calendar 'HR Deadlines', got '%s'", loaded.Calendar)
	}
	if loaded.Timeout != 45*time.Second {
		t.Errorf("Expected timeout 45s, got %s", loaded.Timeout)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	cfg := &Config{}
	tests := []struct{ key, value string }{
		{"colour", "blue"},
		{"log_level", "LOUD"},
		{"timeout", "soon"},
		{"cache_expiry", "-1m"},
	}
	for _, tt := range tests {
		if err := cfg.Set(tt.key, tt.value); err == nil {
			t.Errorf("Expected error for %s=%s", tt.key, tt.value)
		}
	}
	if err := cfg.Set("log_level", "debug"); err != nil || cfg.LogLevel != "DEBUG" {
		t.Errorf("Expected log level DEBUG, got %s (%v)", cfg.LogLevel, err)
	}
}
