// Package logging builds the engine's structured logger on log/slog.
//
// The logger writes to stderr so command output on stdout stays
// machine-readable, supports text and JSON handlers, and decorates
// every record with the run identifier carried in the context:
//
//	logger, err := logging.New(cfg.Telemetry.Logging, nil)
//	ctx := logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "evaluation complete", "violations", n)
package logging
