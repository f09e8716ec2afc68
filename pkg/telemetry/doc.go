// Package telemetry groups charter's observability: structured logging
// and Prometheus metrics.
//
// # Components
//
//   - logging: slog-based structured logging with run id propagation
//   - metrics: Prometheus metrics for runs, violations, fixes and drift
//
// # Usage
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//		return err
//	}
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "evaluation complete", "evaluated", 12)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRun("clean", elapsed)
//
// One-shot CLI runs record metrics in memory only; watch mode serves
// the Prometheus endpoint for the lifetime of the watch.
package telemetry
