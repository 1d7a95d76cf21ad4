// Package config provides configuration management for factmesh deployments.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It covers the operational
// surface of an engine: worker tuning, default budgets, externally authored
// invariant rules, logging, and the persistence backends for snapshots and
// the run journal.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.Load("factmesh.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadWithEnvOverrides("factmesh.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention FACTMESH_SECTION_FIELD.
// For example:
//
//   - FACTMESH_ENGINE_MAX_WORKERS overrides engine.max_workers
//   - FACTMESH_BUDGET_MAX_CYCLES overrides budget.max_cycles
//   - FACTMESH_LOGGING_LEVEL overrides logging.level
//
// Environment variables always take precedence over file-based configuration.
package config
