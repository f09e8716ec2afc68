package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"charter-hq/charter/pkg/charter"
	"charter-hq/charter/pkg/cli"
	"charter-hq/charter/pkg/history"
	"charter-hq/charter/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate continuously on file changes",
	Long: `Watch the repository and re-evaluate every active policy whenever
files change.

Watch mode runs one evaluation up front, then re-runs after each
debounced burst of filesystem events. When metrics are enabled the
Prometheus endpoint is served for the lifetime of the watch; history
retention pruning runs on its configured cron schedule.

Violations never stop the watch; press Ctrl+C to exit.

Examples:
  # Watch with the configured debounce
  charter watch`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	runner, logger, err := newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()
	cfg := runner.Config()

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	if cfg.Telemetry.Metrics.Enabled {
		go func() {
			if err := runner.Metrics().Serve(ctx, logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n",
			cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}

	if pruner := runner.Pruner(); pruner != nil && cfg.History.Retention.PruneSchedule != "" {
		scheduler := history.NewScheduler(pruner, cfg.History.Retention.PruneSchedule, logger)
		if err := scheduler.Start(ctx); err != nil {
			logger.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer scheduler.Stop()
		}
	}

	evaluate := func() {
		out, err := runner.Run(ctx, charter.RunOptions{Command: "watch"})
		if err != nil {
			logger.Error("evaluation failed", "error", err)
			return
		}
		if err := cli.WriteReport(os.Stdout, out.Report); err != nil {
			logger.Error("failed to write report", "error", err)
		}
		fmt.Println()
	}

	evaluate()

	watcher, err := watch.New(&watch.Config{
		Root:       cfg.Repository.Root,
		ExtraPaths: cfg.Watch.Paths,
		Debounce:   cfg.Watch.Debounce,
		IgnoreDirs: cfg.Repository.IgnoreDirs,
	}, logger)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	if err := watcher.Run(ctx, evaluate); err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}
