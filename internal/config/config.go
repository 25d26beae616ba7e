// Package config defines all configuration structures for the
// AgValue-Intelligence service.  No I/O or parsing logic lives here, only
// plain data types and validation; loading is in loader.go.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SearchConfig holds connection parameters for the external passage search
// (an OpenSearch cluster indexing auction-listing text).
type SearchConfig struct {
	Addresses      []string      `mapstructure:"addresses"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Index          string        `mapstructure:"index"`
	TopK           int           `mapstructure:"top_k"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RedisConfig holds Redis connection parameters for the valuation cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	Enabled      bool          `mapstructure:"enabled"`
}

// KafkaConfig holds event-bus producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int           `mapstructure:"producer_retries"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	Enabled         bool          `mapstructure:"enabled"`
}

// AppraiserConfig holds parameters for the hosted language model that restates
// valuation results as prose.  The numeric result never depends on it.
type AppraiserConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Enabled     bool          `mapstructure:"enabled"`
}

// ValuationConfig holds pipeline tunables.  The defaults reproduce the
// documented selection policy; changing them changes which records feed the
// engine, not the arithmetic itself.
type ValuationConfig struct {
	MinSampleSize     int           `mapstructure:"min_sample_size"`     // recency fallback threshold
	OutlierMinSamples int           `mapstructure:"outlier_min_samples"` // IQR disabled below this
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for every entry point.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Search    SearchConfig    `mapstructure:"search"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Appraiser AppraiserConfig `mapstructure:"appraiser"`
	Valuation ValuationConfig `mapstructure:"valuation"`
}

// Validate checks cross-field consistency.  It is called by the loader after
// defaults are applied, so zero values that have defaults never reach here.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug|release|test, got %q", c.Server.Mode)
	}
	if len(c.Search.Addresses) == 0 {
		return fmt.Errorf("search.addresses must not be empty")
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Valuation.MinSampleSize < 1 {
		return fmt.Errorf("valuation.min_sample_size must be >= 1, got %d", c.Valuation.MinSampleSize)
	}
	if c.Valuation.OutlierMinSamples < c.Valuation.MinSampleSize {
		return fmt.Errorf("valuation.outlier_min_samples (%d) must be >= valuation.min_sample_size (%d)",
			c.Valuation.OutlierMinSamples, c.Valuation.MinSampleSize)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must not be empty when redis is enabled")
	}
	if c.Appraiser.Enabled {
		if c.Appraiser.BaseURL == "" {
			return fmt.Errorf("appraiser.base_url must not be empty when the appraiser is enabled")
		}
		if c.Appraiser.Model == "" {
			return fmt.Errorf("appraiser.model must not be empty when the appraiser is enabled")
		}
	}
	return nil
}
