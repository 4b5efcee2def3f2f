package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adalundhe/semhash/core/storage"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	configDir := t.TempDir()
	dirs := &storage.Dirs{Config: configDir, Cache: t.TempDir()}
	return NewManager(dirs).WithProjectRoot(t.TempDir()), configDir
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.DefaultTop != 5 {
		t.Errorf("Search.DefaultTop: got %d, want 5", cfg.Search.DefaultTop)
	}
	if cfg.Search.HybridAlpha != 0.6 {
		t.Errorf("Search.HybridAlpha: got %v, want 0.6", cfg.Search.HybridAlpha)
	}
	if cfg.Tags.Max != 8 {
		t.Errorf("Tags.Max: got %d, want 8", cfg.Tags.Max)
	}
	if cfg.Cache.ResultsTTL != 5*time.Minute {
		t.Errorf("Cache.ResultsTTL: got %v, want 5m", cfg.Cache.ResultsTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestManagerGet(t *testing.T) {
	m, _ := newTestManager(t)

	cfg := m.Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level: got %s, want info", cfg.Log.Level)
	}
}

func TestManagerLoadFromFile(t *testing.T) {
	m, configDir := newTestManager(t)
	writeConfig(t, filepath.Join(configDir, "config.yaml"), `
search:
  default_top: 10
  hybrid_alpha: 0.25
cache:
  results_ttl: 30s
corpus:
  include: ["*.md"]
`)

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Search.DefaultTop != 10 {
		t.Errorf("DefaultTop: got %d, want 10", cfg.Search.DefaultTop)
	}
	if cfg.Search.HybridAlpha != 0.25 {
		t.Errorf("HybridAlpha: got %v, want 0.25", cfg.Search.HybridAlpha)
	}
	if cfg.Cache.ResultsTTL != 30*time.Second {
		t.Errorf("ResultsTTL: got %v, want 30s", cfg.Cache.ResultsTTL)
	}
	if len(cfg.Corpus.Include) != 1 || cfg.Corpus.Include[0] != "*.md" {
		t.Errorf("Corpus.Include: got %v", cfg.Corpus.Include)
	}
	if cfg.Tags.Max != 8 {
		t.Errorf("unset keys should keep defaults, Tags.Max got %d", cfg.Tags.Max)
	}
}

func TestManagerLayering(t *testing.T) {
	configDir := t.TempDir()
	projectRoot := t.TempDir()
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")

	writeConfig(t, filepath.Join(configDir, "config.yaml"), "search:\n  default_top: 7\ntags:\n  max: 3\n")
	writeConfig(t, filepath.Join(projectRoot, ".semhash", "config.yaml"), "search:\n  default_top: 9\n")
	writeConfig(t, explicit, "tags:\n  max: 4\n")

	m := NewManager(&storage.Dirs{Config: configDir}).WithProjectRoot(projectRoot).WithFile(explicit)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Search.DefaultTop != 9 {
		t.Errorf("project should override user: got %d, want 9", cfg.Search.DefaultTop)
	}
	if cfg.Tags.Max != 4 {
		t.Errorf("explicit should override user: got %d, want 4", cfg.Tags.Max)
	}
	if got := len(m.Paths()); got != 3 {
		t.Errorf("Paths: got %d entries, want 3", got)
	}
}

func TestManagerExplicitFileMissing(t *testing.T) {
	m, _ := newTestManager(t)
	m.WithFile(filepath.Join(t.TempDir(), "missing.yaml"))

	if err := m.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestManagerMalformedFile(t *testing.T) {
	m, configDir := newTestManager(t)
	writeConfig(t, filepath.Join(configDir, "config.yaml"), "search: [unterminated")

	if err := m.Load(); err == nil {
		t.Error("expected parse error")
	}
	if m.Get().Search.DefaultTop != 5 {
		t.Error("failed load should keep previous config")
	}
}

func TestManagerEnvironmentOverride(t *testing.T) {
	m, _ := newTestManager(t)

	t.Setenv("SEMHASH_SEARCH_TOP", "12")
	t.Setenv("SEMHASH_HYBRID_ALPHA", "0.9")
	t.Setenv("SEMHASH_TAGS_MAX", "2")
	t.Setenv("SEMHASH_CACHE_RESULTS_TTL", "1m")
	t.Setenv("SEMHASH_LOG_LEVEL", "DEBUG")

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Search.DefaultTop != 12 {
		t.Errorf("DefaultTop: got %d, want 12", cfg.Search.DefaultTop)
	}
	if cfg.Search.HybridAlpha != 0.9 {
		t.Errorf("HybridAlpha: got %v, want 0.9", cfg.Search.HybridAlpha)
	}
	if cfg.Tags.Max != 2 {
		t.Errorf("Tags.Max: got %d, want 2", cfg.Tags.Max)
	}
	if cfg.Cache.ResultsTTL != time.Minute {
		t.Errorf("ResultsTTL: got %v, want 1m", cfg.Cache.ResultsTTL)
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel: got %v (%v), want debug", level, err)
	}
}

func TestManagerEnvironmentInvalid(t *testing.T) {
	m, _ := newTestManager(t)
	t.Setenv("SEMHASH_SEARCH_TOP", "many")

	if err := m.Load(); err == nil {
		t.Error("expected error for non-numeric SEMHASH_SEARCH_TOP")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero top", func(c *Config) { c.Search.DefaultTop = 0 }},
		{"alpha above one", func(c *Config) { c.Search.HybridAlpha = 1.5 }},
		{"negative alpha", func(c *Config) { c.Search.HybridAlpha = -0.1 }},
		{"zero tags", func(c *Config) { c.Tags.Max = 0 }},
		{"negative cost", func(c *Config) { c.Cache.ResultsMaxCost = -1 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestManagerOnChange(t *testing.T) {
	m, _ := newTestManager(t)

	called := false
	m.OnChange(func(cfg *Config) {
		called = true
	})

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !called {
		t.Error("OnChange callback should have been called")
	}
}

func TestManagerReload(t *testing.T) {
	m, configDir := newTestManager(t)
	configPath := filepath.Join(configDir, "config.yaml")

	writeConfig(t, configPath, "tags:\n  max: 3")
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Get().Tags.Max != 3 {
		t.Errorf("Initial Tags.Max: got %d, want 3", m.Get().Tags.Max)
	}

	writeConfig(t, configPath, "tags:\n  max: 7")
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if m.Get().Tags.Max != 7 {
		t.Errorf("Reloaded Tags.Max: got %d, want 7", m.Get().Tags.Max)
	}
}

func TestManagerWatch(t *testing.T) {
	m, configDir := newTestManager(t)
	configPath := filepath.Join(configDir, "config.yaml")
	writeConfig(t, configPath, "tags:\n  max: 3")

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	reloaded := make(chan int, 4)
	m.OnChange(func(cfg *Config) {
		reloaded <- cfg.Tags.Max
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Watch(ctx); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeConfig(t, configPath, "tags:\n  max: 6")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-reloaded:
			if got == 6 {
				return
			}
		case <-deadline:
			t.Fatal("config was not reloaded after file change")
		}
	}
}

func TestManagerClose(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Double close should not fail: %v", err)
	}
}
