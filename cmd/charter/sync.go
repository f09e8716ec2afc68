package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"charter-hq/charter/pkg/cli"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Acknowledge drift by recomputing the registry",
	Long: `Recompute every registry entry from the current documents, check
implementations and selectors, and prune entries for policies that no
longer exist.

Syncing acknowledges all outstanding drift: after a sync, check reports
no drift until documents or implementations change again. Running sync
twice in a row changes nothing.

Examples:
  # Acknowledge drift after editing charter documents
  charter sync`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	runner, _, err := newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	result, err := runner.Sync(ctx)
	if err != nil {
		return cli.NewCommandError("sync", err)
	}

	if len(result.Changed) == 0 {
		fmt.Println("Registry already in sync")
		return nil
	}

	fmt.Printf("Synced %d polic%s:\n", len(result.Changed), pluralY(len(result.Changed)))
	for _, id := range result.Changed {
		fmt.Printf("  %s\n", id)
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
