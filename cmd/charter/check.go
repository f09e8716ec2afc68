package main

import (
	"os"

	"github.com/spf13/cobra"

	"charter-hq/charter/pkg/charter"
	"charter-hq/charter/pkg/cli"
)

var checkFlags struct {
	fix    bool
	format string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate every active policy against the repository",
	Long: `Evaluate every active policy against the repository file inventory.

The check command loads the charter documents, resolves the policy set
through profiles and config overrides, scans the repository, and runs
every active policy's check. Drift against the registry is reported as
ordinary violations at the configured severity.

The exit code is 1 when any error-severity violation exists, 0
otherwise.

Examples:
  # Evaluate the repository
  charter check

  # Evaluate and auto-fix fixable violations
  charter check --fix

  # JSON output for CI/CD
  charter check --format json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkFlags.fix, "fix", false, "apply auto-fixes for fix-capable policies")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(checkFlags.format)
	if err != nil {
		return err
	}

	runner, _, err := newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	out, err := runner.Run(ctx, charter.RunOptions{Command: "check", Fix: checkFlags.fix})
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	if verbose {
		if err := cli.WriteNotices(os.Stderr, out.Notices); err != nil {
			return err
		}
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, out.Report); err != nil {
		return err
	}

	if out.Report.Blocking() {
		return cli.NewExitError(out.Report.ExitCode(), nil)
	}
	return nil
}
