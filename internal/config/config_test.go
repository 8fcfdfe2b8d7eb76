package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.5, cfg.BM25.K1)
	assert.Equal(t, 0.75, cfg.BM25.B)
	assert.Equal(t, 2, cfg.Fuzzy.MaxLenDiff)
	assert.Equal(t, "weighted", cfg.Fusion.Strategy)
	assert.Equal(t, 2*time.Second, cfg.Semantic.Timeout)

	sum := 0.0
	for _, w := range cfg.Fusion.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().BM25, cfg.BM25)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sondhan.yaml")
	content := `
bm25:
  k1: 1.2
  b: 0.5
fusion:
  strategy: rrf
  weights:
    bm25: 0.5
    semantic: 0.5
  threshold: 0.2
  rrf_constant: 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.2, cfg.BM25.K1)
	assert.Equal(t, 0.5, cfg.BM25.B)
	assert.Equal(t, "rrf", cfg.Fusion.Strategy)
	assert.Equal(t, 0.5, cfg.Fusion.Weights["semantic"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SONDHAN_BM25_K1", "2.0")
	t.Setenv("SONDHAN_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.BM25.K1)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"zero k1", func(c *Config) { c.BM25.K1 = 0 }, serrors.ErrCodeConfigInvalid},
		{"b above one", func(c *Config) { c.BM25.B = 1.5 }, serrors.ErrCodeConfigInvalid},
		{"no languages", func(c *Config) { c.Languages = nil }, serrors.ErrCodeConfigInvalid},
		{"negative weight", func(c *Config) { c.Fusion.Weights["bm25"] = -1 }, serrors.ErrCodeInvalidWeights},
		{"zero weight sum", func(c *Config) {
			c.Fusion.Weights = map[string]float64{"bm25": 0, "semantic": 0}
		}, serrors.ErrCodeInvalidWeights},
		{"bad strategy", func(c *Config) { c.Fusion.Strategy = "borda" }, serrors.ErrCodeConfigInvalid},
		{"bad backend", func(c *Config) { c.Semantic.Backend = "faiss" }, serrors.ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, serrors.HasCode(err, tt.code), "want %s, got %v", tt.code, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")

	cfg := Default()
	cfg.Fusion.Threshold = 0.25
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, loaded.Fusion.Threshold)
	assert.Equal(t, cfg.Fusion.Weights, loaded.Fusion.Weights)
}
