// Package config loads quotecheck settings from config.yaml, a .env file and
// QUOTECHECK_* environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgallion1/quotecheck/internal/fuzzy"
	"github.com/dgallion1/quotecheck/internal/quote"
	"github.com/dgallion1/quotecheck/internal/report"
)

type Config struct {
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Fuzzy      FuzzyConfig      `yaml:"fuzzy" mapstructure:"fuzzy"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	PDF        PDFConfig        `yaml:"pdf" mapstructure:"pdf"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

type ValidationConfig struct {
	Threshold           float64 `yaml:"threshold" mapstructure:"threshold"`
	WindowSize          int     `yaml:"window_size" mapstructure:"window_size"`
	PartialThreshold    float64 `yaml:"partial_threshold" mapstructure:"partial_threshold"`
	PartialMargin       int     `yaml:"partial_margin" mapstructure:"partial_margin"`
	AnchorTokens        int     `yaml:"anchor_tokens" mapstructure:"anchor_tokens"`
	WindowWorkers       int     `yaml:"window_workers" mapstructure:"window_workers"`
	ReviewThreshold     float64 `yaml:"review_threshold" mapstructure:"review_threshold"`
	SuggestionThreshold float64 `yaml:"suggestion_threshold" mapstructure:"suggestion_threshold"`
}

type FuzzyConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
}

type PipelineConfig struct {
	WorkerCount           int           `yaml:"worker_count" mapstructure:"worker_count"`
	MaxQueueSize          int           `yaml:"max_queue_size" mapstructure:"max_queue_size"`
	MaxConcurrentValidate int           `yaml:"max_concurrent_validate" mapstructure:"max_concurrent_validate"`
	JobTTL                time.Duration `yaml:"job_ttl" mapstructure:"job_ttl"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	APIKey         string   `yaml:"api_key" mapstructure:"api_key"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

type PDFConfig struct {
	FallbackPdftotext bool `yaml:"fallback_pdftotext" mapstructure:"fallback_pdftotext"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration. A .env file in the working directory, if any, is
// applied to the environment first without overriding variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("QUOTECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	q := quote.DefaultOptions()
	r := report.DefaultOptions()
	v.SetDefault("validation.threshold", q.Threshold)
	v.SetDefault("validation.window_size", q.WindowSize)
	v.SetDefault("validation.partial_threshold", q.PartialThreshold)
	v.SetDefault("validation.partial_margin", q.PartialMargin)
	v.SetDefault("validation.anchor_tokens", q.AnchorTokens)
	v.SetDefault("validation.window_workers", q.WindowWorkers)
	v.SetDefault("validation.review_threshold", r.ReviewThreshold)
	v.SetDefault("validation.suggestion_threshold", r.SuggestionThreshold)
	v.SetDefault("fuzzy.backend", string(fuzzy.BackendLevenshtein))
	v.SetDefault("pipeline.worker_count", 4)
	v.SetDefault("pipeline.max_queue_size", 100)
	v.SetDefault("pipeline.max_concurrent_validate", r.Concurrency)
	v.SetDefault("pipeline.job_ttl", time.Hour)
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.max_upload_bytes", 52428800) // 50MB
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("pdf.fallback_pdftotext", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	if err := c.QuoteOptions().Validate(); err != nil {
		return eris.Wrap(err, "config: validation")
	}
	if err := c.ReportOptions().Validate(); err != nil {
		return eris.Wrap(err, "config: validation")
	}
	if _, err := fuzzy.ParseBackend(c.Fuzzy.Backend); err != nil {
		return eris.Wrap(err, "config: fuzzy.backend")
	}
	switch {
	case c.Validation.WindowWorkers <= 0:
		return eris.New("config: validation.window_workers must be positive")
	case c.Pipeline.WorkerCount <= 0:
		return eris.New("config: pipeline.worker_count must be positive")
	case c.Pipeline.MaxQueueSize <= 0:
		return eris.New("config: pipeline.max_queue_size must be positive")
	case c.Pipeline.JobTTL <= 0:
		return eris.New("config: pipeline.job_ttl must be positive")
	}
	return nil
}

// ValidateServer additionally checks what serve needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch {
	case c.Server.APIKey == "":
		return eris.New("config: server.api_key is required (QUOTECHECK_SERVER_API_KEY)")
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return eris.Errorf("config: server.port %d out of range", c.Server.Port)
	case c.Server.MaxUploadBytes <= 0:
		return eris.New("config: server.max_upload_bytes must be positive")
	case c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0:
		return eris.New("config: server.rate_limit and server.rate_burst must be positive")
	}
	return nil
}

// QuoteOptions maps the validation section onto validator options.
func (c *Config) QuoteOptions() quote.Options {
	return quote.Options{
		Threshold:        c.Validation.Threshold,
		WindowSize:       c.Validation.WindowSize,
		PartialThreshold: c.Validation.PartialThreshold,
		PartialMargin:    c.Validation.PartialMargin,
		AnchorTokens:     c.Validation.AnchorTokens,
		WindowWorkers:    c.Validation.WindowWorkers,
	}
}

// ReportOptions maps the validation and pipeline sections onto report options.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		ReviewThreshold:     c.Validation.ReviewThreshold,
		SuggestionThreshold: c.Validation.SuggestionThreshold,
		Concurrency:         c.Pipeline.MaxConcurrentValidate,
	}
}

// Scorer builds the similarity scorer named by fuzzy.backend.
func (c *Config) Scorer() (*fuzzy.Scorer, error) {
	b, err := fuzzy.ParseBackend(c.Fuzzy.Backend)
	if err != nil {
		return nil, err
	}
	return fuzzy.NewScorer(b)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
