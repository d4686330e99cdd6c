package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/toolbridge/bridge"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	Session   SessionConfig   `mapstructure:"session"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// BridgeConfig stores bridge server connection and retry settings.
type BridgeConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`     // Bridge server base URL; empty defers to BRIDGE_ENDPOINT or the default
	MaxRetries  int           `mapstructure:"max_retries"`  // Total attempts per call, not retries after the first
	RetryDelay  time.Duration `mapstructure:"retry_delay"`  // Base backoff delay, doubled per attempt
	CallTimeout time.Duration `mapstructure:"call_timeout"` // Per-attempt HTTP timeout

	// Performance
	ToolConcurrency int `mapstructure:"tool_concurrency"` // Max concurrent calls in parallel batches

	// Schema cache
	SchemaCacheEnabled  bool          `mapstructure:"schema_cache_enabled"`  // Memoize /tools/schema responses
	SchemaCacheCapacity int           `mapstructure:"schema_cache_capacity"` // LRU cache capacity
	SchemaCacheTTL      time.Duration `mapstructure:"schema_cache_ttl"`      // Cache entry TTL

	// Rate limiting
	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`     // Enable per-tool rate limiting
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`    // Token bucket capacity
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"` // Refill rate
}

// SessionConfig stores HTTP connection pool settings.
type SessionConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`          // Pool-wide idle connection cap
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"` // Idle connections kept per host
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`       // Idle connection lifetime
}

// RegistryConfig stores stub injection policy settings.
type RegistryConfig struct {
	AllowedTools []string `mapstructure:"allowed_tools"` // Whitelist of injectable tool names; empty allows all
	DeniedTools  []string `mapstructure:"denied_tools"`  // Gitignore-style patterns rejected at injection
	ValidateArgs bool     `mapstructure:"validate_args"` // Validate stub arguments against tool schemas
}

// TelemetryConfig stores observability settings.
type TelemetryConfig struct {
	EnableTracing bool `mapstructure:"enable_tracing"` // Enable span logging around calls
	EnableMetrics bool `mapstructure:"enable_metrics"` // Enable in-process call metrics
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Bridge defaults
	viper.SetDefault("bridge.endpoint", "")
	viper.SetDefault("bridge.max_retries", 3)
	viper.SetDefault("bridge.retry_delay", "500ms")
	viper.SetDefault("bridge.call_timeout", "60s")
	viper.SetDefault("bridge.tool_concurrency", 5)
	viper.SetDefault("bridge.schema_cache_enabled", true)
	viper.SetDefault("bridge.schema_cache_capacity", 128)
	viper.SetDefault("bridge.schema_cache_ttl", "5m")
	viper.SetDefault("bridge.rate_limit_enabled", false)
	viper.SetDefault("bridge.rate_limit_capacity", 10)
	viper.SetDefault("bridge.rate_limit_refill_rate", "1s")

	// Session defaults
	viper.SetDefault("session.max_idle_conns", 100)
	viper.SetDefault("session.max_idle_conns_per_host", 16)
	viper.SetDefault("session.idle_conn_timeout", "90s")

	// Registry defaults
	viper.SetDefault("registry.allowed_tools", []string{}) // Empty means allow all by default
	viper.SetDefault("registry.denied_tools", []string{})
	viper.SetDefault("registry.validate_args", false)

	// Telemetry defaults
	viper.SetDefault("telemetry.enable_tracing", true)
	viper.SetDefault("telemetry.enable_metrics", true)

	viper.AutomaticEnv()
	// Replace dots with underscores in env var names e.g. bridge.max_retries becomes BRIDGE_MAX_RETRIES
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults and environment apply.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

// Watch re-reads the loaded config file on change and hands the refreshed
// snapshot to onChange. A rewrite that fails to decode keeps the previous
// snapshot and is not reported.
func Watch(onChange func(e fsnotify.Event, cfg *Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if err := viper.Unmarshal(&AppConfig); err != nil {
			return
		}
		if onChange != nil {
			onChange(e, &AppConfig)
		}
	})
	viper.WatchConfig()
}
