package core

import "time"

// RateLimitConfig configures the registry's token buckets: every tool gets
// its own bucket with this capacity and refill rate. There is no per-tool
// override.
type RateLimitConfig struct {
	Enabled         bool
	Capacity        float64
	RefillPerSecond float64
}

// Config is the single record an embedder builds and passes into the
// System constructor. Unlike the teacher's config, this carries no env-var
// tags: the core never reads the environment or CLI flags itself — any
// loading from YAML/env happens in the outer demo command, never here.
type Config struct {
	MaxConcurrentTasks     int
	DefaultMessageTimeout  time.Duration
	DefaultMaxRetries      int
	HealthCheckInterval    time.Duration
	LogLevel               string
	RateLimit              RateLimitConfig
	HistoryCapacity        int
}

// DefaultConfig returns the baseline configuration used when an embedder
// does not override a field.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentTasks:    10,
		DefaultMessageTimeout: 30 * time.Second,
		DefaultMaxRetries:     3,
		HealthCheckInterval:   30 * time.Second,
		LogLevel:              "info",
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Capacity:        20,
			RefillPerSecond: 5,
		},
		HistoryCapacity: 500,
	}
}
