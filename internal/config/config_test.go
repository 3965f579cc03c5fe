package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/fuzzy"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.90, cfg.Validation.Threshold, 0.001)
	assert.Equal(t, 300, cfg.Validation.WindowSize)
	assert.InDelta(t, 0.95, cfg.Validation.PartialThreshold, 0.001)
	assert.Equal(t, 50, cfg.Validation.PartialMargin)
	assert.Equal(t, 3, cfg.Validation.AnchorTokens)
	assert.Equal(t, 4, cfg.Validation.WindowWorkers)
	assert.InDelta(t, 0.75, cfg.Validation.ReviewThreshold, 0.001)
	assert.InDelta(t, 0.60, cfg.Validation.SuggestionThreshold, 0.001)
	assert.Equal(t, "levenshtein", cfg.Fuzzy.Backend)
	assert.Equal(t, 4, cfg.Pipeline.WorkerCount)
	assert.Equal(t, 100, cfg.Pipeline.MaxQueueSize)
	assert.Equal(t, 8, cfg.Pipeline.MaxConcurrentValidate)
	assert.Equal(t, time.Hour, cfg.Pipeline.JobTTL)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Empty(t, cfg.Server.APIKey)
	assert.Equal(t, int64(52428800), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.True(t, cfg.PDF.FallbackPdftotext)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateServer())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
validation:
  threshold: 0.8
  window_size: 120
fuzzy:
  backend: exact
pipeline:
  job_ttl: 15m
server:
  port: 9000
  api_key: secret
  cors_origins:
    - https://example.com
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.8, cfg.Validation.Threshold, 0.001)
	assert.Equal(t, 120, cfg.Validation.WindowSize)
	assert.Equal(t, 3, cfg.Validation.AnchorTokens)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.JobTTL)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "console", cfg.Log.Format)
	require.NoError(t, cfg.ValidateServer())

	scorer, err := cfg.Scorer()
	require.NoError(t, err)
	assert.Equal(t, fuzzy.BackendExact, scorer.Backend())
	assert.True(t, scorer.Degraded())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("QUOTECHECK_VALIDATION_THRESHOLD", "0.85")
	t.Setenv("QUOTECHECK_SERVER_API_KEY", "from-env")
	t.Setenv("QUOTECHECK_PIPELINE_WORKER_COUNT", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.85, cfg.Validation.Threshold, 0.001)
	assert.Equal(t, "from-env", cfg.Server.APIKey)
	assert.Equal(t, 2, cfg.Pipeline.WorkerCount)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("QUOTECHECK_SERVER_API_KEY=dotenv-key\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("QUOTECHECK_SERVER_API_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Server.APIKey)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("validation: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"threshold above one", func(c *Config) { c.Validation.Threshold = 1.2 }},
		{"zero window", func(c *Config) { c.Validation.WindowSize = 0 }},
		{"negative review", func(c *Config) { c.Validation.ReviewThreshold = -0.1 }},
		{"unknown backend", func(c *Config) { c.Fuzzy.Backend = "rapidfuzz" }},
		{"no workers", func(c *Config) { c.Pipeline.WorkerCount = 0 }},
		{"no validate concurrency", func(c *Config) { c.Pipeline.MaxConcurrentValidate = 0 }},
		{"zero ttl", func(c *Config) { c.Pipeline.JobTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateServer(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Server.APIKey = "k"
	require.NoError(t, cfg.ValidateServer())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.ValidateServer())
}

func TestOptionsMapping(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)

	q := cfg.QuoteOptions()
	assert.Equal(t, cfg.Validation.WindowSize, q.WindowSize)
	assert.Equal(t, cfg.Validation.AnchorTokens, q.AnchorTokens)

	r := cfg.ReportOptions()
	assert.Equal(t, cfg.Pipeline.MaxConcurrentValidate, r.Concurrency)
	assert.InDelta(t, cfg.Validation.ReviewThreshold, r.ReviewThreshold, 0.001)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
