// Package config holds lockctl's process configuration: the stress-test
// worker pool size and the structured-logging setup, loaded the way cocoon
// loads its own config (viper + eru core's ServerLogConfig).
package config

import (
	"runtime"

	coretypes "github.com/projecteru2/core/types"
)

// Config holds lockctl's process-wide configuration.
type Config struct {
	// PoolSize bounds the goroutine pool used by the "stress" scenario.
	// Defaults to runtime.NumCPU() if zero.
	PoolSize int `mapstructure:"pool_size"`
	// StressActions is the number of concurrent lock calls the "stress"
	// scenario issues (100 concurrent callers).
	StressActions int `mapstructure:"stress_actions"`
	// Log configures eru core's structured logger.
	Log coretypes.ServerLogConfig `mapstructure:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:      runtime.NumCPU(),
		StressActions: 100, //nolint:mnd
		Log: coretypes.ServerLogConfig{
			Level: "info",
		},
	}
}
