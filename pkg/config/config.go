// Package config provides the single configuration structure for adreader.
// A Config is built once at startup from defaults, an optional YAML file,
// ADREADER_* environment variables and CLI flags, then passed by pointer to
// the reader, the writer and the runner.
//
// The configuration is organized into logical sections:
//   - Logging: level and encoding of the zap logger
//   - Staging: local directory used for downloaded export archives
//   - Polling: capped exponential backoff of asynchronous export jobs
//   - Reliability: HTTP retries and request rate limiting
//   - Output: writer selection, compression and the extra CSV column
//   - Observability: tracing and Pushgateway metrics
//   - DV360, GSheets, Facebook: reader options
package config

import (
	"fmt"
	"os"
	"time"
)

// Environments accepted in Config.Env.
const (
	EnvDev        = "dev"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// Config is the configuration of one adreader run.
type Config struct {
	// Env names the deployment environment (dev, staging, production)
	Env string `yaml:"env" json:"env" mapstructure:"env"`

	Logging       LoggingConfig       `yaml:"logging" json:"logging" mapstructure:"logging"`
	Staging       StagingConfig       `yaml:"staging" json:"staging" mapstructure:"staging"`
	Polling       PollingConfig       `yaml:"polling" json:"polling" mapstructure:"polling"`
	Reliability   ReliabilityConfig   `yaml:"reliability" json:"reliability" mapstructure:"reliability"`
	Output        OutputConfig        `yaml:"output" json:"output" mapstructure:"output"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`

	DV360    DV360Config    `yaml:"dv360" json:"dv360" mapstructure:"dv360"`
	GSheets  GSheetsConfig  `yaml:"gsheets" json:"gsheets" mapstructure:"gsheets"`
	Facebook FacebookConfig `yaml:"facebook" json:"facebook" mapstructure:"facebook"`
}

// LoggingConfig controls the global zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
}

// StagingConfig locates temporary files.
type StagingConfig struct {
	// Dir receives downloaded archives and their unpacked files
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
}

// PollingConfig is the backoff of asynchronous export jobs.
type PollingConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay" mapstructure:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier" mapstructure:"multiplier"`
	// MaxElapsed bounds the total time spent waiting between polls
	MaxElapsed time.Duration `yaml:"max_elapsed" json:"max_elapsed" mapstructure:"max_elapsed"`
}

// ReliabilityConfig contains retry and rate limit settings for HTTP APIs.
type ReliabilityConfig struct {
	RetryAttempts   int           `yaml:"retry_attempts" json:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry_delay" mapstructure:"retry_delay"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay" json:"retry_max_delay" mapstructure:"retry_max_delay"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" json:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout" mapstructure:"request_timeout"`
}

// ObservabilityConfig contains tracing and metrics settings.
type ObservabilityConfig struct {
	EnableTracing bool   `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	ServiceName   string `yaml:"service_name" json:"service_name" mapstructure:"service_name"`
	// PushGateway is the Prometheus Pushgateway URL; empty disables pushing
	PushGateway string `yaml:"push_gateway" json:"push_gateway" mapstructure:"push_gateway"`
	JobName     string `yaml:"job_name" json:"job_name" mapstructure:"job_name"`
}

// NewDefault returns a configuration with default values.
func NewDefault() *Config {
	return &Config{
		Env: EnvDev,
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Staging: StagingConfig{
			Dir: os.TempDir(),
		},
		Polling: PollingConfig{
			InitialDelay: 60 * time.Second,
			MaxDelay:     3600 * time.Second,
			Multiplier:   2.0,
			MaxElapsed:   10 * time.Hour,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:   5,
			RetryDelay:      2 * time.Second,
			RetryMaxDelay:   time.Minute,
			RateLimitPerSec: 5,
			RateLimitBurst:  5,
			RequestTimeout:  2 * time.Minute,
		},
		Output: OutputConfig{
			Writer:      "console",
			Compression: "none",
			Local: LocalOutputConfig{
				Dir: ".",
			},
			S3: S3OutputConfig{
				Region: "us-east-1",
			},
			BigQuery: BigQueryOutputConfig{
				Location: "US",
			},
		},
		Observability: ObservabilityConfig{
			ServiceName: "adreader",
			JobName:     "adreader",
		},
		DV360: DV360Config{
			FilterType: "FILTER_TYPE_ADVERTISER_ID",
			SDFVersion: "SDF_VERSION_7",
			DateFormat: "2006-01-02",
			Format:     "json",
		},
		Facebook: FacebookConfig{
			ObjectType: "account",
			Level:      "account",
			AdInsights: true,
			APIVersion: "v19.0",
			PageSize:   500,
			PollInterval: PollingConfig{
				InitialDelay: 5 * time.Second,
				MaxDelay:     time.Minute,
				Multiplier:   2.0,
				MaxElapsed:   time.Hour,
			},
		},
	}
}

// Validate checks the sections shared by every run. Reader and writer
// sections are validated by their connectors.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("env must be one of dev, staging, production, got %q", c.Env)
	}
	if c.Staging.Dir == "" {
		return fmt.Errorf("staging dir must not be empty")
	}
	if err := c.Polling.Validate(); err != nil {
		return fmt.Errorf("polling: %w", err)
	}
	if err := c.Facebook.PollInterval.Validate(); err != nil {
		return fmt.Errorf("facebook poll interval: %w", err)
	}
	if c.Reliability.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	switch c.Output.Compression {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("unsupported compression %q", c.Output.Compression)
	}
	return nil
}

// Validate checks a polling section.
func (p PollingConfig) Validate() error {
	if p.InitialDelay <= 0 {
		return fmt.Errorf("initial delay must be positive")
	}
	if p.MaxDelay < p.InitialDelay {
		return fmt.Errorf("max delay %s is below initial delay %s", p.MaxDelay, p.InitialDelay)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}
	if p.MaxElapsed <= 0 {
		return fmt.Errorf("max elapsed must be positive")
	}
	return nil
}
