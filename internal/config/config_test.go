package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/services"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.VisionModel != DefaultVisionModel || cfg.ContentModel != DefaultContentModel {
		t.Errorf("models = %q/%q", cfg.VisionModel, cfg.ContentModel)
	}
	if cfg.QuickWinThreshold != 9 || cfg.Timeout != 5*time.Minute || cfg.Concurrency != 4 {
		t.Errorf("limits = %v/%v/%v", cfg.QuickWinThreshold, cfg.Timeout, cfg.Concurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "uxaudit.yml",
			content: `vision_model: claude-opus-4-1
skip_categories: ["trust signals", "Content Strategy"]
timeout: 90s
concurrency: 2
cache:
  backend: memory
  ttl: 1h
`,
		},
		{
			name: "toml",
			file: "uxaudit.toml",
			content: `vision_model = "claude-opus-4-1"
skip_categories = ["Trust Signals", "content strategy"]
timeout = "90s"
concurrency = 2

[cache]
backend = "memory"
ttl = "1h"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithEnv(writeFile(t, tt.file, tt.content), envMap(nil))
			if err != nil {
				t.Fatalf("LoadWithEnv() error = %v", err)
			}
			if cfg.VisionModel != "claude-opus-4-1" {
				t.Errorf("VisionModel = %q", cfg.VisionModel)
			}
			if cfg.ContentModel != DefaultContentModel {
				t.Errorf("unset ContentModel should keep default, got %q", cfg.ContentModel)
			}
			if cfg.Timeout != 90*time.Second || cfg.Concurrency != 2 {
				t.Errorf("Timeout/Concurrency = %v/%d", cfg.Timeout, cfg.Concurrency)
			}
			if cfg.Cache.Backend != CacheMemory || cfg.Cache.TTL != time.Hour {
				t.Errorf("Cache = %+v", cfg.Cache)
			}

			skip, err := cfg.SkipList()
			if err != nil {
				t.Fatalf("SkipList() error = %v", err)
			}
			if len(skip) != 2 || skip[0] != entities.CategoryTrustSignals || skip[1] != entities.CategoryContentStrategy {
				t.Errorf("SkipList() = %v", skip)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := cfg.LoadFile(writeFile(t, "config.json", "{}")); !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("unsupported extension error = %v", err)
	}
	if err := cfg.LoadFile(writeFile(t, "bad.yml", "concurrency: [")); err == nil {
		t.Error("expected YAML parse error")
	}
	if err := cfg.LoadFile(writeFile(t, "bad.toml", "concurrency = ")); err == nil {
		t.Error("expected TOML parse error")
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "uxaudit.yaml", "vision_model: from-file\ncontent_model: from-file\nconcurrency: 2\n")
	cfg, err := LoadWithEnv(path, envMap(map[string]string{
		"UXAUDIT_VISION_MODEL": "from-env",
		"UXAUDIT_SKIP":         "Trust Signals, ,Accessibility",
		"ANTHROPIC_API_KEY":    "sk-test",
		"UXAUDIT_CONCURRENCY":  "",
	}))
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}

	if cfg.VisionModel != "from-env" {
		t.Errorf("env should override file, got %q", cfg.VisionModel)
	}
	if cfg.ContentModel != "from-file" {
		t.Errorf("file should override default, got %q", cfg.ContentModel)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("empty env value should not override, got %d", cfg.Concurrency)
	}
	if cfg.API.Key != "sk-test" {
		t.Errorf("API key = %q", cfg.API.Key)
	}
	if len(cfg.SkipCategories) != 2 {
		t.Errorf("SkipCategories = %v", cfg.SkipCategories)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"UXAUDIT_TIMEOUT":     "soon",
		"UXAUDIT_CONCURRENCY": "many",
	}))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("ApplyEnv() error = %v, want ErrConfiguration", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown skip category", func(c *Config) { c.SkipCategories = []string{"Colors"} }},
		{"unknown formula", func(c *Config) { c.PriorityFormula = "cubic" }},
		{"zero threshold", func(c *Config) { c.QuickWinThreshold = 0 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero text cap", func(c *Config) { c.MaxTextChars = 0 }},
		{"missing model", func(c *Config) { c.VisionModel = "" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without url", func(c *Config) { c.Cache.Backend = CacheRedis }},
		{"cache without ttl", func(c *Config) { c.Cache.Backend = CacheMemory; c.Cache.TTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, services.ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestScoringPolicy(t *testing.T) {
	cfg := Default()
	cfg.PriorityFormula = "linear"
	cfg.QuickWinThreshold = 3

	policy, err := cfg.ScoringPolicy()
	if err != nil {
		t.Fatalf("ScoringPolicy() error = %v", err)
	}
	if policy.Formula != services.FormulaLinear || policy.QuickWinThreshold != 3 {
		t.Errorf("policy = %+v", policy)
	}
}

func TestPassphrase(t *testing.T) {
	cfg := Default()
	if got := cfg.Passphrase(envMap(nil)); got != nil {
		t.Errorf("Passphrase() = %q, want nil", got)
	}
	cfg.Signing.PassphraseEnv = "MY_PASS"
	if got := cfg.Passphrase(envMap(map[string]string{"MY_PASS": "hunter2"})); string(got) != "hunter2" {
		t.Errorf("Passphrase() = %q", got)
	}
}
