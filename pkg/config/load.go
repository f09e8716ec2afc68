package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CHARTER_SECTION_FIELD (e.g., CHARTER_REGISTRY_PATH).
// Environment variables always take precedence over file-based configuration.
//
// A missing configuration file is not an error: the defaults then serve
// as the file layer, so a repository without a config file still runs.
//
// The loading sequence is:
//  1. Load YAML from file (or start from defaults if the file is absent)
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CHARTER_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Repository overrides
	if val := os.Getenv("CHARTER_REPOSITORY_ROOT"); val != "" {
		cfg.Repository.Root = val
	}
	if val := os.Getenv("CHARTER_REPOSITORY_MAX_FILE_SIZE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Repository.MaxFileSize = i
		}
	}

	// Charter overrides
	if val := os.Getenv("CHARTER_CHECKS_DIR"); val != "" {
		cfg.Charter.ChecksDir = val
	}
	if val := os.Getenv("CHARTER_DOCUMENTS"); val != "" {
		cfg.Charter.Documents = splitList(val)
	}

	// Profiles overrides
	if val := os.Getenv("CHARTER_PROFILES_ACTIVE"); val != "" {
		cfg.Profiles.Active = splitList(val)
	}
	if val := os.Getenv("CHARTER_PROFILES_DIR"); val != "" {
		cfg.Profiles.Dir = val
	}

	// Registry overrides
	if val := os.Getenv("CHARTER_REGISTRY_PATH"); val != "" {
		cfg.Registry.Path = val
	}
	if val := os.Getenv("CHARTER_REGISTRY_DRIFT_SEVERITY"); val != "" {
		cfg.Registry.DriftSeverity = val
	}

	// History overrides
	if val := os.Getenv("CHARTER_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = &b
		}
	}
	if val := os.Getenv("CHARTER_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}
	if val := os.Getenv("CHARTER_HISTORY_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.History.Retention.Days = i
		}
	}

	// Watch overrides
	if val := os.Getenv("CHARTER_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("CHARTER_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CHARTER_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CHARTER_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CHARTER_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}

// splitList splits a comma-separated environment value into a list,
// trimming whitespace and dropping empty items.
func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
