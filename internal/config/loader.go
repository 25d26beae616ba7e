package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "AGVALUE"

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, AGVALUE_ env prefix, automatic env binding, and a
// key replacer that maps "." to "_" so that nested keys like "search.index"
// resolve to "AGVALUE_SEARCH_INDEX".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerKeys(v)
	return v
}

// registerKeys declares every configuration key to viper so that environment
// variables are picked up even when no config file supplies the key.  Values
// here are zero placeholders; real defaults are applied by ApplyDefaults.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.mode",
		"log.level", "log.format",
		"search.user", "search.password", "search.index",
		"redis.addr", "redis.password", "redis.key_prefix",
		"kafka.group_id", "kafka.auto_offset_reset",
		"appraiser.base_url", "appraiser.api_key", "appraiser.model",
	} {
		v.SetDefault(key, "")
	}
	for _, key := range []string{
		"server.port",
		"search.top_k",
		"redis.db", "redis.pool_size", "redis.min_idle_conns",
		"kafka.producer_retries",
		"appraiser.max_tokens",
		"valuation.min_sample_size", "valuation.outlier_min_samples",
	} {
		v.SetDefault(key, 0)
	}
	for _, key := range []string{
		"server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
		"search.request_timeout",
		"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout", "redis.default_ttl",
		"kafka.write_timeout",
		"appraiser.timeout",
		"valuation.cache_ttl",
	} {
		v.SetDefault(key, time.Duration(0))
	}
	for _, key := range []string{
		"redis.enabled", "kafka.enabled", "appraiser.enabled",
	} {
		v.SetDefault(key, false)
	}
	v.SetDefault("appraiser.temperature", 0.0)
	for _, key := range []string{
		"log.output_paths", "log.error_output_paths",
		"search.addresses",
		"kafka.brokers",
	} {
		v.SetDefault(key, []string{})
	}
}

// Load reads the YAML file at configPath, merges any AGVALUE_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from AGVALUE_* environment variables
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	// Weak typing lets environment-sourced strings decode into numeric and
	// boolean fields.
	weaklyTyped := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weaklyTyped); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; viper manages the background goroutine.  If the
// changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read errors are ignored here; callers should Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// An invalid edit must not push the process into a broken state.
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// Intended for main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
