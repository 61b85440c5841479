package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/config"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Pipeline.MaxConcurrentJobs < 1 {
		t.Fatal("expected default max_concurrent_jobs to be at least 1")
	}
	if cfg.Pipeline.KeywordTopN != 10 {
		t.Fatalf("expected default keyword_top_n of 10, got %d", cfg.Pipeline.KeywordTopN)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected default log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`upload_dir = "` + filepath.Join(dir, "uploads") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[pipeline]",
		"max_concurrent_jobs = 4",
		"[logging]",
		`format = "JSON"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Pipeline.MaxConcurrentJobs != 4 {
		t.Fatalf("expected max_concurrent_jobs 4, got %d", cfg.Pipeline.MaxConcurrentJobs)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.Pipeline.TopicSimilarityThreshold != 0.40 {
		t.Fatalf("expected default topic threshold, got %v", cfg.Pipeline.TopicSimilarityThreshold)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[pipeline]") {
		t.Fatal("sample config missing pipeline section")
	}
}
