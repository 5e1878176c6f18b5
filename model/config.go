package model

import "time"

// RunConfig represents configuration for one description completion run
type RunConfig struct {
	// Retry parameters for transient generation failures
	MaxRetries     uint64        `json:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff,omitempty"`

	// Workers is the number of concurrent generation calls.
	// 1 runs the entities strictly in catalog order.
	Workers int `json:"workers"`
}

// DefaultRunConfig returns a sensible default configuration
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		Workers:        1,
	}
}
