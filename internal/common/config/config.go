// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Langfuse LangfuseConfig          `mapstructure:"langfuse"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Plaintext      bool   `mapstructure:"plaintext"`
}

// LangfuseConfig points at the prompt management API.
type LangfuseConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	PublicKey string `mapstructure:"public_key"`
	SecretKey string `mapstructure:"secret_key"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	UserAgent string `mapstructure:"user_agent"`
}

// CacheConfig controls the in-process prompt cache. TTLSeconds is a pointer
// so that an explicit 0 (caching off) differs from "not configured".
type CacheConfig struct {
	TTLSeconds      *int             `mapstructure:"ttl_seconds"`
	CleanupInterval int              `mapstructure:"cleanup_interval"` // milliseconds
	Prefetch        []PrefetchConfig `mapstructure:"prefetch"`
}

// TTL returns nil when no TTL is configured.
func (c CacheConfig) TTL() *time.Duration {
	if c.TTLSeconds == nil {
		return nil
	}
	ttl := time.Duration(*c.TTLSeconds) * time.Second
	return &ttl
}

type PrefetchConfig struct {
	Name    string `mapstructure:"name"`
	Type    string `mapstructure:"type"`
	Version *int   `mapstructure:"version"`
	Label   string `mapstructure:"label"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
