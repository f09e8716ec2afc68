package charter

import (
	"context"
	"time"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/engine"
	"charter-hq/charter/pkg/registry"
)

// checkDrift compares the session's current artifacts against the
// stored registry state, appending one violation per drift at the
// configured severity. Ids without a registry entry are seeded, never
// reported; the state is saved only when seeding changed it.
func (r *Runner) checkDrift(sess *Session, report *engine.Report) ([]registry.Drift, []string, error) {
	store := r.registryStore()
	state, err := store.Load()
	if err != nil {
		return nil, nil, err
	}

	arts := sess.Artifacts()
	seeded := state.Seed(arts, time.Now())
	drifts := registry.Compare(state, arts)

	severity, _ := descriptor.ParseSeverity(r.config.Registry.DriftSeverity)
	for _, d := range drifts {
		report.Violations = append(report.Violations, engine.Violation{
			PolicyID: d.PolicyID,
			Message:  d.Message(),
			Severity: severity,
		})
	}

	if len(seeded) > 0 {
		if err := store.Save(state); err != nil {
			return nil, nil, err
		}
	}
	return drifts, seeded, nil
}

// SyncResult reports what a registry sync changed.
type SyncResult struct {
	// Changed lists the policy ids whose registry records were updated
	// or pruned, in sorted order.
	Changed []string

	// Session is the pipeline state the sync was computed from.
	Session *Session
}

// Sync recomputes every registry entry from the current documents,
// implementations and selectors, prunes entries for ids that no longer
// exist, and persists the result. Syncing acknowledges all outstanding
// drift; it is idempotent.
func (r *Runner) Sync(ctx context.Context) (*SyncResult, error) {
	sess, err := openSession(r.config, r.logger)
	if err != nil {
		return nil, err
	}

	store := r.registryStore()
	state, err := store.Load()
	if err != nil {
		return nil, err
	}

	changed := state.Sync(sess.Artifacts(), time.Now())
	if err := store.Save(state); err != nil {
		return nil, err
	}

	r.logger.Info("registry synced", "changed", len(changed))
	return &SyncResult{Changed: changed, Session: sess}, nil
}

func (r *Runner) registryStore() *registry.Store {
	return registry.NewStore(resolvePath(r.config.Repository.Root, r.config.Registry.Path), r.logger)
}
