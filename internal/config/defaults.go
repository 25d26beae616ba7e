package config

import "time"

// Version is the service version, overridable at build time via ldflags.
var Version = "dev"

// ApplyDefaults fills every unset field of cfg with its platform default.
// It never overwrites a value the operator has set.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if len(cfg.Search.Addresses) == 0 {
		cfg.Search.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Search.Index == "" {
		cfg.Search.Index = "auction-listings"
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 10
	}
	if cfg.Search.RequestTimeout == 0 {
		cfg.Search.RequestTimeout = 10 * time.Second
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 15 * time.Minute
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "agvalue:"
	}

	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "agvalue-workers"
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	if cfg.Appraiser.Model == "" {
		cfg.Appraiser.Model = "gpt-4o"
	}
	if cfg.Appraiser.Temperature == 0 {
		cfg.Appraiser.Temperature = 0.2
	}
	if cfg.Appraiser.MaxTokens == 0 {
		cfg.Appraiser.MaxTokens = 1024
	}
	if cfg.Appraiser.Timeout == 0 {
		cfg.Appraiser.Timeout = 60 * time.Second
	}

	if cfg.Valuation.MinSampleSize == 0 {
		cfg.Valuation.MinSampleSize = 3
	}
	if cfg.Valuation.OutlierMinSamples == 0 {
		cfg.Valuation.OutlierMinSamples = 5
	}
	if cfg.Valuation.CacheTTL == 0 {
		cfg.Valuation.CacheTTL = 10 * time.Minute
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
// Used by entry points when no config file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
