package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// configValidate is the shared validator instance for configuration structs.
var configValidate = validator.New()

// Validate checks field ranges via struct tags, then the cross-field rules
// the tags cannot express, and finally compiles the invariant rules so a bad
// rule surfaces at startup rather than mid-run.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if err := configValidate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	switch cfg.Snapshots.Backend {
	case "file", "badger":
		if cfg.Snapshots.Path == "" {
			return fmt.Errorf("snapshots.path is required for the %s backend", cfg.Snapshots.Backend)
		}
	}

	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}

	if _, err := cfg.CompileInvariants(); err != nil {
		return fmt.Errorf("invariants: %w", err)
	}
	return nil
}
