package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"charter-hq/charter/pkg/charter"
	"charter-hq/charter/pkg/cli"
	"charter-hq/charter/pkg/config"
	"charter-hq/charter/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "charter",
	Short: "Charter - documentation-driven policy compliance engine",
	Long: `Charter is a policy compliance engine driven by documentation.

Policies are declared as fenced blocks inside charter documents, right
next to the prose that motivates them. Charter resolves the documents
through profile overlays and config overrides, evaluates every active
policy against the repository, and reports drift when a documented rule
and its implementation diverge.

For more information, visit: https://github.com/charter-hq/charter`,
	Version: Version,
}

// Execute runs the root command and maps errors onto exit codes:
// blocking violations exit 1, operational failures exit 2.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintln(os.Stderr, exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", ".charter/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the config file with environment overrides applied,
// honoring the global verbose flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newRunner builds the logger and the runner from config. Callers must
// Close the returned runner.
func newRunner() (*charter.Runner, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	runner, err := charter.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return runner, logger, nil
}
