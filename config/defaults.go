package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultMaxWorkers      = 8
	DefaultAgentTimeout    = 30 * time.Second
	DefaultEventBufferSize = 128

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Snapshot defaults
	DefaultSnapshotBackend = "memory"
)

// DefaultConfig returns a configuration with all defaults applied, usable
// without any file on disk.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.MaxWorkers == 0 {
		cfg.Engine.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.Engine.AgentTimeout == 0 {
		cfg.Engine.AgentTimeout = DefaultAgentTimeout
	}
	if cfg.Engine.EventBufferSize == 0 {
		cfg.Engine.EventBufferSize = DefaultEventBufferSize
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Snapshots.Backend == "" {
		cfg.Snapshots.Backend = DefaultSnapshotBackend
	}
}
