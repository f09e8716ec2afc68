package charter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"charter-hq/charter/pkg/config"
	"charter-hq/charter/pkg/history"
	"charter-hq/charter/pkg/inventory"
	"charter-hq/charter/pkg/policy/engine"
	"charter-hq/charter/pkg/registry"
	"charter-hq/charter/pkg/telemetry/logging"
	"charter-hq/charter/pkg/telemetry/metrics"
)

// RunOptions controls one evaluation run.
type RunOptions struct {
	// Command names the invoking command for the history record.
	Command string

	// Fix runs fixers for fix-capable policies.
	Fix bool
}

// Outcome is the result of one full run: the evaluation report with
// drift violations appended, plus everything the CLI surfaces around
// it.
type Outcome struct {
	// RunID is the unique id assigned to this run.
	RunID string

	// Report is the evaluation report, drift violations included.
	Report *engine.Report

	// Notices are the session notices: toggle normalization,
	// replacement migration, unknown-id references.
	Notices []string

	// Drifts are the unacknowledged divergences found against the
	// registry.
	Drifts []registry.Drift

	// Seeded lists policy ids whose registry entries were created by
	// this run.
	Seeded []string

	// Started and Finished bound the run.
	Started  time.Time
	Finished time.Time
}

// Runner drives the evaluation pipeline from configuration. One runner
// serves many runs; watch mode reuses it across re-evaluations.
type Runner struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	history *history.Store
	pruner  *history.Pruner
}

// New creates a runner. The history store is opened here when history
// is enabled; callers must Close the runner when done.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	if cfg.History.RecordingEnabled() {
		store, err := history.Open(resolvePath(cfg.Repository.Root, cfg.History.Path), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		r.history = store

		retention := cfg.History.Retention
		retention.ArchivePath = resolvePath(cfg.Repository.Root, retention.ArchivePath)
		r.pruner = history.NewPruner(store, retention, logger)
	}

	return r, nil
}

// Close releases the runner's resources.
func (r *Runner) Close() error {
	if r.history != nil {
		return r.history.Close()
	}
	return nil
}

// Config returns the runner's configuration.
func (r *Runner) Config() *config.Config {
	return r.config
}

// Metrics returns the runner's metrics collector.
func (r *Runner) Metrics() *metrics.Collector {
	return r.metrics
}

// History returns the run history store, nil when history is disabled.
func (r *Runner) History() *history.Store {
	return r.history
}

// Pruner returns the history retention pruner, nil when history is
// disabled.
func (r *Runner) Pruner() *history.Pruner {
	return r.pruner
}

// Session loads a fresh pipeline state without evaluating anything.
// The policy inspection commands use it directly.
func (r *Runner) Session() (*Session, error) {
	return openSession(r.config, r.logger)
}

// Run executes one full evaluation: load the session, scan the
// inventory, evaluate every active policy, check drift against the
// registry, record history and metrics.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Outcome, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	started := time.Now()

	if opts.Command == "" {
		opts.Command = "check"
	}

	sess, err := openSession(r.config, r.logger)
	if err != nil {
		return nil, err
	}

	root := r.config.Repository.Root
	snap, err := inventory.Scan(os.DirFS(root), inventory.Options{
		IgnoreDirs:  r.config.Repository.IgnoreDirs,
		MaxFileSize: r.config.Repository.MaxFileSize,
	}, r.logger)
	if err != nil {
		return nil, err
	}

	report, err := engine.New(sess.Catalog, r.logger).Evaluate(ctx, sess.Resolution.Policies, snap, engine.Options{
		Fix:  opts.Fix,
		Root: root,
	})
	if err != nil {
		return nil, err
	}

	drifts, seeded, err := r.checkDrift(sess, report)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		RunID:    runID,
		Report:   report,
		Notices:  sess.Notices,
		Drifts:   drifts,
		Seeded:   seeded,
		Started:  started,
		Finished: time.Now(),
	}

	r.record(ctx, opts.Command, outcome)
	r.observe(outcome, sess, snap.Len())

	return outcome, nil
}

// record persists the run to history and applies retention.
func (r *Runner) record(ctx context.Context, command string, out *Outcome) {
	if r.history == nil {
		return
	}
	run := history.NewRun(command, r.config.Profiles.Active, out.Report, out.Started, out.Finished)
	run.ID = out.RunID
	if err := r.history.Record(ctx, run); err != nil {
		r.logger.Warn("failed to record run history", "error", err)
		return
	}
	if _, err := r.pruner.Prune(ctx); err != nil {
		r.logger.Warn("history pruning failed", "error", err)
	}
}

// observe feeds the run into the metrics collector.
func (r *Runner) observe(out *Outcome, sess *Session, files int) {
	outcome := "clean"
	if len(out.Report.Violations) > 0 {
		outcome = "violations"
	}
	r.metrics.RecordRun(outcome, out.Finished.Sub(out.Started))
	for _, v := range out.Report.Violations {
		r.metrics.RecordViolation(v.PolicyID, string(v.Severity))
	}
	for id, n := range out.Report.FixCounts {
		r.metrics.RecordFixes(id, n)
	}
	for _, d := range out.Drifts {
		r.metrics.RecordDrift(string(d.Kind))
	}
	r.metrics.SetActivePolicies(sess.ActiveCount())
	r.metrics.SetFilesScanned(files)
}
