package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"charter-hq/charter/pkg/charter"
	"charter-hq/charter/pkg/cli"
	"charter-hq/charter/pkg/history"
)

var historyFlags struct {
	limit  int
	format string
	output string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past evaluation runs",
	Long: `Inspect past evaluation runs recorded in the history database.

Subcommands:
  list   - List recent runs
  show   - Show one run with its violation snapshot
  export - Export runs as JSON lines

Examples:
  # List the last 10 runs
  charter history list

  # Show one run in full
  charter history show 9f4b2c1a-...

  # Export everything as JSONL
  charter history export --output runs.jsonl`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Long: `List recent runs, newest first.

Examples:
  # List the last 10 runs
  charter history list

  # List the last 50 runs as JSON
  charter history list --limit 50 --format json`,
	RunE: listHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its violations",
	Args:  cobra.ExactArgs(1),
	RunE:  showHistory,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs as JSON lines",
	Long: `Export recorded runs as JSON lines, one run per line with its
violation snapshot inline.

Examples:
  # Export everything to stdout
  charter history export

  # Export to a file
  charter history export --output runs.jsonl

  # Export only the last 100 runs
  charter history export --limit 100`,
	RunE: exportHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)

	historyCmd.PersistentFlags().StringVar(&historyFlags.format, "format", "text", "output format: text, json")
	historyListCmd.Flags().IntVar(&historyFlags.limit, "limit", 10, "number of runs to show")
	historyExportCmd.Flags().IntVar(&historyFlags.limit, "limit", 0, "number of runs to export (0 = all)")
	historyExportCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "", "output file (default stdout)")
}

// openHistory builds a runner and requires history to be enabled.
func openHistory() (*charter.Runner, *history.Store, error) {
	runner, _, err := newRunner()
	if err != nil {
		return nil, nil, err
	}
	store := runner.History()
	if store == nil {
		runner.Close()
		return nil, nil, fmt.Errorf("run history is disabled (set history.enabled: true)")
	}
	return runner, store, nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	runner, store, err := openHistory()
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	runs, err := store.List(ctx, historyFlags.limit)
	if err != nil {
		return cli.NewCommandError("history list", err)
	}

	if historyFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %-10s %-7s  %de/%dw/%di",
			run.StartedAt.Format(time.RFC3339),
			run.ID[:8],
			run.Command,
			run.Outcome,
			run.Errors, run.Warnings, run.Infos,
		)
		if run.Fixed > 0 {
			fmt.Printf("  fixed=%d", run.Fixed)
		}
		fmt.Println()
	}
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	runner, store, err := openHistory()
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	run, err := store.Get(ctx, args[0])
	if err != nil {
		return cli.NewCommandError("history show", err)
	}

	if historyFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Printf("Run: %s\n", run.ID)
	fmt.Printf("  Command:   %s\n", run.Command)
	fmt.Printf("  Started:   %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Printf("  Duration:  %s\n", run.Duration().Round(time.Millisecond))
	fmt.Printf("  Outcome:   %s\n", run.Outcome)
	fmt.Printf("  Evaluated: %d (skipped %d)\n", run.Evaluated, run.Skipped)
	if len(run.Profiles) > 0 {
		fmt.Printf("  Profiles:  %v\n", run.Profiles)
	}
	if run.Fixed > 0 {
		fmt.Printf("  Fixed:     %d\n", run.Fixed)
	}
	if len(run.Violations) > 0 {
		fmt.Println("  Violations:")
		for _, v := range run.Violations {
			fmt.Printf("    %s\n", v.String())
		}
	}
	return nil
}

func exportHistory(cmd *cobra.Command, args []string) error {
	runner, store, err := openHistory()
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	listed, err := store.List(ctx, historyFlags.limit)
	if err != nil {
		return cli.NewCommandError("history export", err)
	}

	// List omits violation snapshots; exports carry them.
	runs := make([]*history.Run, 0, len(listed))
	for _, run := range listed {
		full, err := store.Get(ctx, run.ID)
		if err != nil {
			return cli.NewCommandError("history export", err)
		}
		runs = append(runs, full)
	}

	out := os.Stdout
	if historyFlags.output != "" {
		f, err := os.Create(historyFlags.output)
		if err != nil {
			return cli.NewCommandError("history export", err)
		}
		defer f.Close()
		out = f
	}

	if err := history.ExportJSONL(out, runs); err != nil {
		return cli.NewCommandError("history export", err)
	}
	if historyFlags.output != "" {
		fmt.Printf("✓ Exported %d run(s) to %s\n", len(runs), historyFlags.output)
	}
	return nil
}
