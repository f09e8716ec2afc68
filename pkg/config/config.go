package config

import "time"

// Config is the root configuration structure for the charter engine.
// It covers the repository scan, charter document sources, profile
// activation, policy overrides, registry persistence, run history,
// watch mode, and telemetry.
type Config struct {
	// Repository contains repository scan configuration: the root
	// directory, ignored directories, and the file size ceiling.
	Repository RepositoryConfig `yaml:"repository"`

	// Charter contains the charter document sources and the custom
	// checks directory.
	Charter CharterConfig `yaml:"charter"`

	// Profiles contains profile overlay activation and location.
	Profiles ProfilesConfig `yaml:"profiles"`

	// Policies contains the toggle map and the generated and user
	// metadata override tiers.
	Policies PoliciesConfig `yaml:"policies"`

	// Registry contains drift registry persistence configuration.
	Registry RegistryConfig `yaml:"registry"`

	// History contains run history storage and retention settings.
	History HistoryConfig `yaml:"history"`

	// Watch contains watch-mode configuration.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RepositoryConfig configures the repository file inventory scan.
type RepositoryConfig struct {
	// Root is the repository root directory every scan and every fix
	// is anchored at.
	// Default: "." (current directory)
	Root string `yaml:"root"`

	// IgnoreDirs lists directory names excluded from the scan wherever
	// they appear in the tree. ".git" is always excluded.
	// Default: [".git", ".charter", "node_modules", "vendor"]
	IgnoreDirs []string `yaml:"ignore_dirs"`

	// MaxFileSize is the per-file size ceiling in bytes; larger files
	// are skipped by the scan. 0 means no ceiling.
	// Default: 1048576 (1MB)
	MaxFileSize int64 `yaml:"max_file_size"`
}

// CharterConfig configures charter document and check sources.
type CharterConfig struct {
	// Documents lists repository charter documents, relative to the
	// repository root. Descriptors in these documents override core
	// descriptors sharing the same id.
	// Default: [] (core charter only)
	Documents []string `yaml:"documents"`

	// ChecksDir is the directory holding custom check scripts, one
	// executable per policy id. A script replaces the builtin check
	// of the same id wholesale.
	// Default: ".charter/checks"
	ChecksDir string `yaml:"checks_dir"`
}

// ProfilesConfig configures profile overlay activation.
type ProfilesConfig struct {
	// Active lists active profile names in activation order; later
	// profiles override earlier ones. A listed profile without an
	// overlay file is a fatal error.
	// Default: [] (no profiles)
	Active []string `yaml:"active"`

	// Dir is the directory holding profile overlay files, one
	// "<name>.yaml" per profile.
	// Default: ".charter/profiles"
	Dir string `yaml:"dir"`
}

// PoliciesConfig contains the policy toggle map and override tiers.
type PoliciesConfig struct {
	// Enabled is the per-policy activation toggle map. An entry here
	// wins over profile overlays and descriptor defaults.
	Enabled map[string]bool `yaml:"enabled"`

	// Generated is the tool-generated metadata tier, merged after
	// profile overlays and before user overrides.
	Generated map[string]map[string]any `yaml:"generated"`

	// Overrides is the user metadata tier. It has the final word on
	// every key it sets.
	Overrides map[string]map[string]any `yaml:"overrides"`
}

// RegistryConfig configures drift registry persistence.
type RegistryConfig struct {
	// Path is the registry file location, relative to the repository
	// root.
	// Default: ".charter/registry.yaml"
	Path string `yaml:"path"`

	// DriftSeverity is the severity drift violations are reported at.
	// Options: "error", "warning", "info"
	// Default: "warning"
	DriftSeverity string `yaml:"drift_severity"`
}

// HistoryConfig configures run history storage.
type HistoryConfig struct {
	// Enabled controls whether runs are recorded. A pointer so an
	// explicit "enabled: false" is distinguishable from an unset field,
	// which defaults to true.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the history database file location.
	// Default: ".charter/history.db"
	Path string `yaml:"path"`

	// Retention contains history retention settings.
	Retention RetentionConfig `yaml:"retention"`
}

// RecordingEnabled reports whether run history recording is on. An
// unset Enabled counts as off until ApplyDefaults resolves it.
func (c HistoryConfig) RecordingEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// RetentionConfig configures history retention and pruning.
type RetentionConfig struct {
	// Days is the number of days to retain run records. Older records
	// are eligible for pruning. 0 means keep forever.
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduled pruning in
	// watch mode. Outside watch mode pruning runs once per invocation.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete compresses pruned records into an archive
	// file before deletion.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory pruned-record archives are written
	// to.
	// Default: ".charter/archives"
	ArchivePath string `yaml:"archive_path"`

	// MaxRecords caps the number of retained runs. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait after the last filesystem event
	// before re-running the evaluation.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`

	// Paths lists extra paths to watch beyond the repository root.
	// Default: []
	Paths []string `yaml:"paths"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is served.
	// Only meaningful in watch mode; one-shot runs never serve it.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics endpoint listens on.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "charter"
	Namespace string `yaml:"namespace"`
}
