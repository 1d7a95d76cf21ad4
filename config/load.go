package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path. It
// applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadWithEnvOverrides for that functionality.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention FACTMESH_SECTION_FIELD and always take precedence over
// file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies FACTMESH_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Engine overrides
	if val := os.Getenv("FACTMESH_ENGINE_MAX_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxWorkers = i
		}
	}
	if val := os.Getenv("FACTMESH_ENGINE_AGENT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.AgentTimeout = d
		}
	}
	if val := os.Getenv("FACTMESH_ENGINE_EVENT_BUFFER_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.EventBufferSize = i
		}
	}

	// Budget overrides
	if val := os.Getenv("FACTMESH_BUDGET_MAX_CYCLES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Budget.MaxCycles = i
		}
	}
	if val := os.Getenv("FACTMESH_BUDGET_MAX_FACTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Budget.MaxFacts = i
		}
	}
	if val := os.Getenv("FACTMESH_BUDGET_MAX_TIME"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Budget.MaxTime = d
		}
	}

	// Logging overrides
	if val := os.Getenv("FACTMESH_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("FACTMESH_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Snapshot overrides
	if val := os.Getenv("FACTMESH_SNAPSHOTS_BACKEND"); val != "" {
		cfg.Snapshots.Backend = val
	}
	if val := os.Getenv("FACTMESH_SNAPSHOTS_PATH"); val != "" {
		cfg.Snapshots.Path = val
	}

	// Journal overrides
	if val := os.Getenv("FACTMESH_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("FACTMESH_JOURNAL_PATH"); val != "" {
		cfg.Journal.Path = val
	}
}
