// Package config loads audit settings from defaults, an optional YAML or TOML
// file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/services"
)

// Defaults
const (
	DefaultVisionModel   = "claude-sonnet-4-5"
	DefaultContentModel  = "claude-haiku-4-5"
	DefaultTimeout       = 5 * time.Minute
	DefaultConcurrency   = 4
	DefaultCacheTTL      = 24 * time.Hour
	DefaultPassphraseEnv = "UXAUDIT_SIGNING_PASSPHRASE"
)

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// candidateFiles are tried in order when no config path is given
var candidateFiles = []string{"uxaudit.yml", "uxaudit.yaml", "uxaudit.toml"}

// Config holds every tunable of an audit run
type Config struct {
	VisionModel       string        `yaml:"vision_model" toml:"vision_model"`
	ContentModel      string        `yaml:"content_model" toml:"content_model"`
	SkipCategories    []string      `yaml:"skip_categories" toml:"skip_categories"`
	QuickWinThreshold float64       `yaml:"quick_win_threshold" toml:"quick_win_threshold"`
	PriorityFormula   string        `yaml:"priority_formula" toml:"priority_formula"`
	Timeout           time.Duration `yaml:"timeout" toml:"timeout"`
	Concurrency       int           `yaml:"concurrency" toml:"concurrency"`
	Scope             string        `yaml:"scope" toml:"scope"`
	MaxTextChars      int           `yaml:"max_text_chars" toml:"max_text_chars"`
	CriteriaFile      string        `yaml:"criteria_file" toml:"criteria_file"`
	GroundTruthFile   string        `yaml:"ground_truth_file" toml:"ground_truth_file"`
	Debug             bool          `yaml:"debug" toml:"debug"`
	API               APIConfig     `yaml:"api" toml:"api"`
	Cache             CacheConfig   `yaml:"cache" toml:"cache"`
	Signing           SigningConfig `yaml:"signing" toml:"signing"`
}

// APIConfig configures the model HTTP API
type APIConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Key     string        `yaml:"key" toml:"key"`
	Version string        `yaml:"version" toml:"version"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// CacheConfig configures the model response cache
type CacheConfig struct {
	Backend  string        `yaml:"backend" toml:"backend"`
	RedisURL string        `yaml:"redis_url" toml:"redis_url"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl"`
	Prefix   string        `yaml:"prefix" toml:"prefix"`
}

// SigningConfig configures detached signatures of report artifacts. The
// passphrase is only ever read from the environment variable PassphraseEnv.
type SigningConfig struct {
	KeyFile       string `yaml:"key_file" toml:"key_file"`
	PassphraseEnv string `yaml:"passphrase_env" toml:"passphrase_env"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		VisionModel:       DefaultVisionModel,
		ContentModel:      DefaultContentModel,
		SkipCategories:    []string{},
		QuickWinThreshold: services.DefaultQuickWinThreshold,
		PriorityFormula:   string(services.FormulaImpactSquared),
		Timeout:           DefaultTimeout,
		Concurrency:       DefaultConcurrency,
		Scope:             entities.ScopeTemplateWide,
		MaxTextChars:      services.DefaultMaxTextChars,
		Cache: CacheConfig{
			Backend: CacheNone,
			TTL:     DefaultCacheTTL,
		},
		Signing: SigningConfig{
			PassphraseEnv: DefaultPassphraseEnv,
		},
	}
}

// Load applies defaults, then the file at path (or the first candidate file
// in the working directory when path is empty), then the environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, c := range candidateFiles {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays a YAML or TOML file, chosen by extension
func (c *Config) LoadFile(path string) error {
	//nolint:gosec // G304: Config path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: unsupported config file extension %q", services.ErrConfiguration, filepath.Ext(path))
	}
	return nil
}

// ApplyEnv overlays ANTHROPIC_* and UXAUDIT_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ANTHROPIC_API_KEY", &c.API.Key)
	str("ANTHROPIC_BASE_URL", &c.API.BaseURL)
	str("UXAUDIT_VISION_MODEL", &c.VisionModel)
	str("UXAUDIT_CONTENT_MODEL", &c.ContentModel)
	str("UXAUDIT_PRIORITY_FORMULA", &c.PriorityFormula)
	str("UXAUDIT_SCOPE", &c.Scope)
	str("UXAUDIT_CRITERIA_FILE", &c.CriteriaFile)
	str("UXAUDIT_GROUND_TRUTH_FILE", &c.GroundTruthFile)
	str("UXAUDIT_CACHE", &c.Cache.Backend)
	str("UXAUDIT_REDIS_URL", &c.Cache.RedisURL)
	str("UXAUDIT_SIGNING_KEY", &c.Signing.KeyFile)

	if v, ok := lookup("UXAUDIT_SKIP"); ok && v != "" {
		c.SkipCategories = SplitList(v)
	}

	var errs []string
	parse := func(key string, set func(string) error) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q: %v", key, v, err))
		}
	}
	parse("UXAUDIT_QUICK_WIN_THRESHOLD", func(v string) (err error) {
		c.QuickWinThreshold, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("UXAUDIT_TIMEOUT", func(v string) (err error) {
		c.Timeout, err = time.ParseDuration(v)
		return err
	})
	parse("UXAUDIT_CONCURRENCY", func(v string) (err error) {
		c.Concurrency, err = strconv.Atoi(v)
		return err
	})
	parse("UXAUDIT_MAX_TEXT_CHARS", func(v string) (err error) {
		c.MaxTextChars, err = strconv.Atoi(v)
		return err
	})
	parse("UXAUDIT_CACHE_TTL", func(v string) (err error) {
		c.Cache.TTL, err = time.ParseDuration(v)
		return err
	})
	parse("UXAUDIT_DEBUG", func(v string) (err error) {
		c.Debug, err = strconv.ParseBool(v)
		return err
	})

	if len(errs) > 0 {
		return fmt.Errorf("%w: invalid environment: %s", services.ErrConfiguration, strings.Join(errs, "; "))
	}
	return nil
}

// Validate rejects unknown categories, formulas and backends and non-positive
// limits
func (c *Config) Validate() error {
	var problems []string

	if _, err := c.SkipList(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := services.ParsePriorityFormula(c.PriorityFormula); err != nil {
		problems = append(problems, err.Error())
	}
	if c.QuickWinThreshold <= 0 {
		problems = append(problems, "quick_win_threshold must be positive")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.Concurrency <= 0 {
		problems = append(problems, "concurrency must be positive")
	}
	if c.MaxTextChars <= 0 {
		problems = append(problems, "max_text_chars must be positive")
	}
	if c.VisionModel == "" || c.ContentModel == "" {
		problems = append(problems, "vision_model and content_model are required")
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			problems = append(problems, "cache.redis_url is required for the redis backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Cache.Backend != CacheNone && c.Cache.TTL <= 0 {
		problems = append(problems, "cache.ttl must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", services.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// SkipList parses SkipCategories into categories
func (c *Config) SkipList() ([]entities.Category, error) {
	out := make([]entities.Category, 0, len(c.SkipCategories))
	for _, s := range c.SkipCategories {
		category, err := entities.ParseCategory(s)
		if err != nil {
			return nil, fmt.Errorf("skip_categories: %w", err)
		}
		out = append(out, category)
	}
	return out, nil
}

// ScoringPolicy builds the scoring policy described by the config
func (c *Config) ScoringPolicy() (services.ScoringPolicy, error) {
	formula, err := services.ParsePriorityFormula(c.PriorityFormula)
	if err != nil {
		return services.ScoringPolicy{}, err
	}
	return services.ScoringPolicy{Formula: formula, QuickWinThreshold: c.QuickWinThreshold}, nil
}

// Passphrase reads the signing passphrase from the configured variable
func (c *Config) Passphrase(lookup func(string) (string, bool)) []byte {
	name := c.Signing.PassphraseEnv
	if name == "" {
		name = DefaultPassphraseEnv
	}
	if v, ok := lookup(name); ok {
		return []byte(v)
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
