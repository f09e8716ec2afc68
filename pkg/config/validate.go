package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"charter-hq/charter/pkg/descriptor"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "registry.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRepository(&cfg.Repository)...)
	errs = append(errs, validateCharter(&cfg.Charter)...)
	errs = append(errs, validateProfiles(&cfg.Profiles)...)
	errs = append(errs, validateRegistry(&cfg.Registry)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateRepository(cfg *RepositoryConfig) []FieldError {
	var errs []FieldError

	if cfg.Root == "" {
		errs = append(errs, FieldError{
			Field:   "repository.root",
			Message: "repository root is required",
		})
	}
	if cfg.MaxFileSize < 0 {
		errs = append(errs, FieldError{
			Field:   "repository.max_file_size",
			Message: "max file size must be non-negative",
		})
	}
	for i, dir := range cfg.IgnoreDirs {
		if dir == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("repository.ignore_dirs[%d]", i),
				Message: "ignored directory name must not be empty",
			})
		}
	}

	return errs
}

func validateCharter(cfg *CharterConfig) []FieldError {
	var errs []FieldError

	for i, doc := range cfg.Documents {
		if doc == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("charter.documents[%d]", i),
				Message: "document path must not be empty",
			})
		}
	}

	return errs
}

func validateProfiles(cfg *ProfilesConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool)
	for i, name := range cfg.Active {
		if name == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("profiles.active[%d]", i),
				Message: "profile name must not be empty",
			})
			continue
		}
		if seen[name] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("profiles.active[%d]", i),
				Message: fmt.Sprintf("profile %q is activated twice", name),
			})
		}
		seen[name] = true
	}

	return errs
}

func validateRegistry(cfg *RegistryConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "registry.path",
			Message: "registry path is required",
		})
	}
	if _, err := descriptor.ParseSeverity(cfg.DriftSeverity); err != nil {
		errs = append(errs, FieldError{
			Field:   "registry.drift_severity",
			Message: fmt.Sprintf("must be one of error, warning, info (got %q)", cfg.DriftSeverity),
		})
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if !cfg.RecordingEnabled() {
		return errs
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "history.path",
			Message: "history path is required when history is enabled",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "history.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.Retention.ArchiveBeforeDelete && cfg.Retention.ArchivePath == "" {
		errs = append(errs, FieldError{
			Field:   "history.retention.archive_path",
			Message: "archive path is required when archive_before_delete is enabled",
		})
	}

	return errs
}

func validateWatch(cfg *WatchConfig) []FieldError {
	var errs []FieldError

	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error (got %q)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text (got %q)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: "listen address is required when metrics are enabled",
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
	}

	return errs
}
