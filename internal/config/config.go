// Package config loads and validates the sondhan configuration file.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
)

// Config represents the complete sondhan configuration.
type Config struct {
	Version     int               `yaml:"version"`
	Languages   []string          `yaml:"languages"`
	BM25        BM25Config        `yaml:"bm25"`
	Fuzzy       FuzzyConfig       `yaml:"fuzzy"`
	Semantic    SemanticConfig    `yaml:"semantic"`
	Fusion      FusionConfig      `yaml:"fusion"`
	Performance PerformanceConfig `yaml:"performance"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BM25Config holds the BM25 tuning parameters.
type BM25Config struct {
	// K1 controls term-frequency saturation. Default: 1.5.
	K1 float64 `yaml:"k1"`
	// B controls document-length normalization. Default: 0.75.
	B float64 `yaml:"b"`
}

// FuzzyConfig tunes the edit-distance matcher.
type FuzzyConfig struct {
	// MaxLenDiff prunes vocabulary terms whose rune length differs from
	// the query term by more than this bound. Default: 2.
	MaxLenDiff int `yaml:"max_len_diff"`
	// MinSimilarity is the minimum normalized similarity for a vocabulary
	// term to count as a fuzzy match. Default: 0.6.
	MinSimilarity float64 `yaml:"min_similarity"`
}

// SemanticConfig configures the embedding-based matcher.
type SemanticConfig struct {
	// Backend selects the embedding store: "exact" (brute force, default)
	// or "hnsw" (approximate nearest neighbor).
	Backend string `yaml:"backend"`
	// Timeout bounds a single semantic scoring call. On timeout the query
	// degrades to the models that completed. Default: 2s.
	Timeout time.Duration `yaml:"timeout"`
}

// FusionConfig configures rank fusion.
type FusionConfig struct {
	// Strategy selects the fusion algorithm: "weighted" (default) or "rrf".
	Strategy string `yaml:"strategy"`
	// Weights maps model name (bm25, tfidf, fuzzy, semantic) to a
	// non-negative weight. Weights must sum to a positive value.
	Weights map[string]float64 `yaml:"weights"`
	// Threshold flags fused results whose combined score falls below it.
	// Flagged results are kept, never filtered.
	Threshold float64 `yaml:"threshold"`
	// RRFConstant is the smoothing constant for the rrf strategy. Default: 60.
	RRFConstant int `yaml:"rrf_constant"`
}

// PerformanceConfig configures build and query performance.
type PerformanceConfig struct {
	// BuildWorkers is the worker count for the sharded index build.
	// Default: runtime.NumCPU().
	BuildWorkers int `yaml:"build_workers"`
	// CacheSize is the number of fused query responses kept in the LRU
	// cache. 0 disables caching. Default: 256.
	CacheSize int `yaml:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version:   1,
		Languages: []string{"bn", "en"},
		BM25:      BM25Config{K1: 1.5, B: 0.75},
		Fuzzy:     FuzzyConfig{MaxLenDiff: 2, MinSimilarity: 0.6},
		Semantic:  SemanticConfig{Backend: "exact", Timeout: 2 * time.Second},
		Fusion: FusionConfig{
			Strategy: "weighted",
			Weights: map[string]float64{
				"bm25":     0.3,
				"tfidf":    0.2,
				"fuzzy":    0.2,
				"semantic": 0.3,
			},
			Threshold:   0.1,
			RRFConstant: 60,
		},
		Performance: PerformanceConfig{
			BuildWorkers: runtime.NumCPU(),
			CacheSize:    256,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from path, applying defaults for missing
// fields and environment overrides on top. A missing file is not an
// error: defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, serrors.Wrap(serrors.ErrCodeConfigNotFound, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, serrors.ConfigError(fmt.Sprintf("parse %s", path), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies SONDHAN_* environment variables.
// Env vars take priority over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SONDHAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SONDHAN_BM25_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BM25.K1 = f
		}
	}
	if v := os.Getenv("SONDHAN_BM25_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BM25.B = f
		}
	}
	if v := os.Getenv("SONDHAN_FUSION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Fusion.Threshold = f
		}
	}
	if v := os.Getenv("SONDHAN_BUILD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Performance.BuildWorkers = n
		}
	}
}

// Validate checks the configuration for invalid values.
// Weight misconfiguration is fatal here, before any query runs.
func (c *Config) Validate() error {
	if len(c.Languages) == 0 {
		return serrors.ConfigError("at least one language partition is required", nil)
	}
	if c.BM25.K1 <= 0 {
		return serrors.ConfigError(fmt.Sprintf("bm25.k1 must be positive, got %v", c.BM25.K1), nil)
	}
	if c.BM25.B < 0 || c.BM25.B > 1 {
		return serrors.ConfigError(fmt.Sprintf("bm25.b must be in [0,1], got %v", c.BM25.B), nil)
	}
	if c.Fuzzy.MaxLenDiff < 0 {
		return serrors.ConfigError("fuzzy.max_len_diff must be non-negative", nil)
	}
	if c.Fuzzy.MinSimilarity < 0 || c.Fuzzy.MinSimilarity > 1 {
		return serrors.ConfigError("fuzzy.min_similarity must be in [0,1]", nil)
	}
	switch c.Semantic.Backend {
	case "", "exact", "hnsw":
	default:
		return serrors.ConfigError(fmt.Sprintf("semantic.backend must be exact or hnsw, got %q", c.Semantic.Backend), nil)
	}
	switch c.Fusion.Strategy {
	case "", "weighted", "rrf":
	default:
		return serrors.ConfigError(fmt.Sprintf("fusion.strategy must be weighted or rrf, got %q", c.Fusion.Strategy), nil)
	}
	if c.Fusion.Threshold < 0 || c.Fusion.Threshold > 1 {
		return serrors.ConfigError("fusion.threshold must be in [0,1]", nil)
	}

	sum := 0.0
	for model, w := range c.Fusion.Weights {
		if w < 0 {
			return serrors.InvalidWeights(fmt.Sprintf("weight for %s is negative", model))
		}
		sum += w
	}
	if len(c.Fusion.Weights) > 0 && sum <= 0 {
		return serrors.InvalidWeights("fusion weights must sum to a positive value")
	}

	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return serrors.ConfigError("marshal config", err)
	}
	return os.WriteFile(path, data, 0o644)
}
