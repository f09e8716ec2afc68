package engine

import (
	"context"
	"fmt"
	"log/slog"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/inventory"
	"charter-hq/charter/pkg/policy/resolve"
)

// Options controls one evaluation run.
type Options struct {
	// Fix runs fixers for fix-capable policies and re-checks them.
	Fix bool

	// Root is the repository root on disk, required for fixing.
	Root string
}

// Engine dispatches policy checks over the shared inventory snapshot.
// The engine is single-threaded and synchronous: one ordered pass over
// the resolved policy set per invocation.
type Engine struct {
	catalog Catalog
	logger  *slog.Logger
}

// New creates an engine over the given implementation catalog.
func New(catalog Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog: catalog,
		logger:  logger.With("component", "policy.engine"),
	}
}

// Evaluate runs every active policy and returns the ordered report.
// Policies are evaluated in the order given; the resolver hands them
// over sorted by id, which keeps reports deterministic.
func (e *Engine) Evaluate(ctx context.Context, policies []*resolve.Policy, repo *inventory.Snapshot, opts Options) (*Report, error) {
	report := &Report{}

	for _, p := range policies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation cancelled: %w", err)
		}
		if !p.Active {
			continue
		}
		e.evaluateOne(ctx, p, repo, opts, report)
	}

	errs, warns, infos := report.Counts()
	e.logger.Info("evaluation complete",
		"evaluated", report.Evaluated,
		"skipped", report.Skipped,
		"errors", errs,
		"warnings", warns,
		"infos", infos,
		"fixed", report.Fixed,
	)

	return report, nil
}

// evaluateOne runs a single policy, appending its findings to the
// report. Failures are scoped to the policy.
func (e *Engine) evaluateOne(ctx context.Context, p *resolve.Policy, repo *inventory.Snapshot, opts Options, report *Report) {
	if p.SelectorErr != nil {
		report.Skipped++
		report.Violations = append(report.Violations, Violation{
			PolicyID: p.ID,
			Message:  fmt.Sprintf("selector compilation failed: %v", p.SelectorErr),
			Severity: descriptor.SeverityError,
		})
		return
	}

	impl, ok := e.catalog.Lookup(p.ID)
	if !ok {
		report.Skipped++
		report.Violations = append(report.Violations, Violation{
			PolicyID: p.ID,
			Message:  "missing implementation: no check is registered for this policy",
			Severity: descriptor.SeverityError,
		})
		return
	}

	req := &CheckRequest{
		Targets:  p.Selector.Filter(repo.Paths()),
		Metadata: p.Metadata,
		Repo:     repo,
		Root:     opts.Root,
	}

	violations, err := e.runCheck(ctx, impl, req)
	if err != nil {
		report.Skipped++
		report.Violations = append(report.Violations, Violation{
			PolicyID: p.ID,
			Message:  fmt.Sprintf("check failed: %v", err),
			Severity: descriptor.SeverityError,
		})
		return
	}
	report.Evaluated++

	if opts.Fix && p.FixCapable && impl.CanFix() && len(violations) > 0 {
		violations = e.runFix(ctx, p, impl, req, violations, report)
	}

	for _, v := range violations {
		v.PolicyID = p.ID
		v.Severity = p.Severity
		report.Violations = append(report.Violations, v)
	}

	e.logger.Debug("policy evaluated",
		"policy_id", p.ID,
		"origin", impl.Origin(),
		"targets", len(req.Targets),
		"violations", len(violations),
	)
}

// runCheck invokes the implementation's check.
func (e *Engine) runCheck(ctx context.Context, impl Implementation, req *CheckRequest) ([]Violation, error) {
	return impl.Check(ctx, req)
}

// runFix invokes the fixer and re-checks the policy once to confirm
// remediation. A fixer failure leaves the original violations in place
// with the failure detail attached; evaluation of other policies
// continues regardless.
func (e *Engine) runFix(ctx context.Context, p *resolve.Policy, impl Implementation, req *CheckRequest, violations []Violation, report *Report) []Violation {
	result, err := impl.Fix(ctx, req)
	if err != nil {
		e.logger.Warn("fixer failed",
			"policy_id", p.ID,
			"error", err,
		)
		for i := range violations {
			violations[i].Detail = fmt.Sprintf("fix failed: %v", err)
		}
		return violations
	}

	report.Fixed += len(result.Changed)
	if len(result.Changed) > 0 {
		if report.FixCounts == nil {
			report.FixCounts = make(map[string]int)
		}
		report.FixCounts[p.ID] += len(result.Changed)
	}
	e.logger.Info("fixer applied",
		"policy_id", p.ID,
		"changed", len(result.Changed),
	)

	// Re-check this policy alone to confirm remediation before the
	// run continues.
	rechecked, err := e.runCheck(ctx, impl, req)
	if err != nil {
		for i := range violations {
			violations[i].Detail = fmt.Sprintf("re-check after fix failed: %v", err)
		}
		return violations
	}
	return rechecked
}
