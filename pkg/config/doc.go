// Package config provides configuration management for the charter
// engine.
//
// This package handles loading, validating, and managing configuration
// from YAML files with environment variable overrides. It provides a
// type-safe configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig(".charter/config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides(".charter/config.yaml")
//
// The second form also tolerates a missing file, falling back to the
// built-in defaults, so a repository needs no config file to run.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CHARTER_SECTION_FIELD.
// For example:
//
//   - CHARTER_REPOSITORY_ROOT overrides repository.root
//   - CHARTER_PROFILES_ACTIVE overrides profiles.active (comma-separated)
//   - CHARTER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading.
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - registry.drift_severity: must be one of error, warning, info (got "fatal")
//	  - history.retention.prune_schedule: invalid cron expression: ...
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	repository:
//	  root: "."
//
//	charter:
//	  documents:
//	    - "docs/policies.md"
//
//	profiles:
//	  active: ["strict"]
//
//	policies:
//	  enabled:
//	    tab-indentation: true
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "text"
package config
