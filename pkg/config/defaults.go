package config

import "time"

// Default values for configuration fields.
const (
	// Repository defaults
	DefaultRepositoryRoot = "."
	DefaultMaxFileSize    = int64(1048576) // 1MB

	// Charter defaults
	DefaultChecksDir = ".charter/checks"

	// Profiles defaults
	DefaultProfilesDir = ".charter/profiles"

	// Registry defaults
	DefaultRegistryPath  = ".charter/registry.yaml"
	DefaultDriftSeverity = "warning"

	// History defaults
	DefaultHistoryPath      = ".charter/history.db"
	DefaultRetentionDays    = 90
	DefaultPruneSchedule    = "0 3 * * *"
	DefaultArchivePath      = ".charter/archives"
	DefaultRetentionMaxRuns = int64(0)

	// Watch defaults
	DefaultWatchDebounce = 500 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "text"
	DefaultMetricsListenAddr = "127.0.0.1:9464"
	DefaultPrometheusPath    = "/metrics"
	DefaultMetricsNamespace  = "charter"
)

// DefaultIgnoreDirs are the directory names excluded from the scan
// when the configuration does not list its own.
func DefaultIgnoreDirs() []string {
	return []string{".git", ".charter", "node_modules", "vendor"}
}

// Default returns a configuration with every default applied, the
// state an empty configuration file loads as.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Repository defaults
	if cfg.Repository.Root == "" {
		cfg.Repository.Root = DefaultRepositoryRoot
	}
	if cfg.Repository.IgnoreDirs == nil {
		cfg.Repository.IgnoreDirs = DefaultIgnoreDirs()
	}
	if cfg.Repository.MaxFileSize == 0 {
		cfg.Repository.MaxFileSize = DefaultMaxFileSize
	}

	// Charter defaults
	if cfg.Charter.ChecksDir == "" {
		cfg.Charter.ChecksDir = DefaultChecksDir
	}

	// Profiles defaults
	if cfg.Profiles.Dir == "" {
		cfg.Profiles.Dir = DefaultProfilesDir
	}

	// Policies defaults
	if cfg.Policies.Enabled == nil {
		cfg.Policies.Enabled = make(map[string]bool)
	}

	// Registry defaults
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = DefaultRegistryPath
	}
	if cfg.Registry.DriftSeverity == "" {
		cfg.Registry.DriftSeverity = DefaultDriftSeverity
	}

	// History defaults
	applyHistoryDefaults(cfg)

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddr
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// applyHistoryDefaults applies default values to the history section.
// Enabled is a pointer so an explicit false survives defaulting; only
// an unset field takes the default.
func applyHistoryDefaults(cfg *Config) {
	h := &cfg.History

	if h.Enabled == nil {
		enabled := true
		h.Enabled = &enabled
	}

	if h.Path == "" {
		h.Path = DefaultHistoryPath
	}
	if h.Retention.Days == 0 {
		h.Retention.Days = DefaultRetentionDays
	}
	if h.Retention.PruneSchedule == "" {
		h.Retention.PruneSchedule = DefaultPruneSchedule
	}
	if h.Retention.ArchivePath == "" {
		h.Retention.ArchivePath = DefaultArchivePath
	}
	if h.Retention.MaxRecords == 0 {
		h.Retention.MaxRecords = DefaultRetentionMaxRuns
	}
}
