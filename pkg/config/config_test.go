package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Repository.Root != "." {
		t.Errorf("repository root = %q, want .", cfg.Repository.Root)
	}
	if cfg.Repository.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("max file size = %d, want %d", cfg.Repository.MaxFileSize, DefaultMaxFileSize)
	}
	if cfg.Charter.ChecksDir != DefaultChecksDir {
		t.Errorf("checks dir = %q, want %q", cfg.Charter.ChecksDir, DefaultChecksDir)
	}
	if cfg.Registry.Path != DefaultRegistryPath {
		t.Errorf("registry path = %q, want %q", cfg.Registry.Path, DefaultRegistryPath)
	}
	if cfg.Registry.DriftSeverity != "warning" {
		t.Errorf("drift severity = %q, want warning", cfg.Registry.DriftSeverity)
	}
	if !cfg.History.RecordingEnabled() {
		t.Error("history must default to enabled")
	}
	if cfg.History.Retention.Days != DefaultRetentionDays {
		t.Errorf("retention days = %d, want %d", cfg.History.Retention.Days, DefaultRetentionDays)
	}
	if cfg.Watch.Debounce != DefaultWatchDebounce {
		t.Errorf("debounce = %v, want %v", cfg.Watch.Debounce, DefaultWatchDebounce)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging defaults = %q/%q, want info/text",
			cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
}

func TestApplyDefaultsIdempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)
	if cfg.Repository.Root != first.Repository.Root ||
		cfg.History.RecordingEnabled() != first.History.RecordingEnabled() ||
		cfg.Watch.Debounce != first.Watch.Debounce {
		t.Error("ApplyDefaults must be idempotent")
	}
}

func TestHistoryExplicitlyDisabledStaysDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("history:\n  enabled: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.History.RecordingEnabled() {
		t.Error("an explicit enabled: false must survive defaulting")
	}
	// The rest of the section still gets its defaults.
	if cfg.History.Path != DefaultHistoryPath {
		t.Errorf("path = %q, want default", cfg.History.Path)
	}
}

func TestHistoryPartialSectionStaysEnabled(t *testing.T) {
	cfg := &Config{}
	cfg.History.Path = "elsewhere.db"
	ApplyDefaults(cfg)

	if !cfg.History.RecordingEnabled() {
		t.Error("setting only the path must not disable recording")
	}
	if cfg.History.Path != "elsewhere.db" {
		t.Errorf("explicit path must survive, got %q", cfg.History.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:      "bad drift severity",
			mutate:    func(cfg *Config) { cfg.Registry.DriftSeverity = "fatal" },
			wantField: "registry.drift_severity",
		},
		{
			name:      "empty registry path",
			mutate:    func(cfg *Config) { cfg.Registry.Path = "" },
			wantField: "registry.path",
		},
		{
			name:      "negative file size",
			mutate:    func(cfg *Config) { cfg.Repository.MaxFileSize = -1 },
			wantField: "repository.max_file_size",
		},
		{
			name:      "duplicate profile",
			mutate:    func(cfg *Config) { cfg.Profiles.Active = []string{"a", "a"} },
			wantField: "profiles.active[1]",
		},
		{
			name:      "bad cron schedule",
			mutate:    func(cfg *Config) { cfg.History.Retention.PruneSchedule = "not cron" },
			wantField: "history.retention.prune_schedule",
		},
		{
			name:      "bad logging level",
			mutate:    func(cfg *Config) { cfg.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name: "metrics path without slash",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Metrics.Enabled = true
				cfg.Telemetry.Metrics.Path = "metrics"
			},
			wantField: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected validation error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected a validation error")
			}
			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("error is %T, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
repository:
  root: "/repo"
  ignore_dirs: ["dist"]
charter:
  documents:
    - "docs/policies.md"
profiles:
  active: ["strict"]
policies:
  enabled:
    tab-indentation: true
registry:
  drift_severity: "error"
watch:
  debounce: "2s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Repository.Root != "/repo" {
		t.Errorf("root = %q", cfg.Repository.Root)
	}
	if len(cfg.Repository.IgnoreDirs) != 1 || cfg.Repository.IgnoreDirs[0] != "dist" {
		t.Errorf("ignore dirs = %v, explicit list must not be extended", cfg.Repository.IgnoreDirs)
	}
	if cfg.Registry.DriftSeverity != "error" {
		t.Errorf("drift severity = %q", cfg.Registry.DriftSeverity)
	}
	if !cfg.Policies.Enabled["tab-indentation"] {
		t.Error("toggle map lost")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	// Untouched sections still get defaults.
	if cfg.Charter.ChecksDir != DefaultChecksDir {
		t.Errorf("checks dir = %q, want default", cfg.Charter.ChecksDir)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("registry:\n  drift_severity: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "drift_severity") {
		t.Errorf("error does not name the field: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("repository:\n  root: \"/from-file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHARTER_REPOSITORY_ROOT", "/from-env")
	t.Setenv("CHARTER_PROFILES_ACTIVE", "strict, ci")
	t.Setenv("CHARTER_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Repository.Root != "/from-env" {
		t.Errorf("env must win over file, got %q", cfg.Repository.Root)
	}
	if len(cfg.Profiles.Active) != 2 || cfg.Profiles.Active[0] != "strict" || cfg.Profiles.Active[1] != "ci" {
		t.Errorf("profiles = %v", cfg.Profiles.Active)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverridesMissingFile(t *testing.T) {
	cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("a missing config file must load as defaults: %v", err)
	}
	if cfg.Registry.Path != DefaultRegistryPath {
		t.Errorf("registry path = %q, want default", cfg.Registry.Path)
	}
}
