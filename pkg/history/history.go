// Package history records evaluation runs in a local SQLite database:
// one row per run with its violation snapshot, queryable and exportable
// as JSON lines. Retention pruning deletes old runs, optionally
// archiving them as compressed JSONL first.
package history

import (
	"time"

	"github.com/google/uuid"

	"charter-hq/charter/pkg/policy/engine"
)

// Run is one recorded evaluation.
type Run struct {
	// ID is the run's unique identifier.
	ID string `json:"id"`

	// StartedAt and FinishedAt bound the evaluation.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Command is the subcommand that produced the run ("check",
	// "watch", ...).
	Command string `json:"command"`

	// Profiles lists the active profiles, in activation order.
	Profiles []string `json:"profiles,omitempty"`

	// Evaluated, Skipped and Fixed mirror the report counters.
	Evaluated int `json:"evaluated"`
	Skipped   int `json:"skipped"`
	Fixed     int `json:"fixed"`

	// Errors, Warnings and Infos are the violation totals by severity.
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`

	// Outcome is "clean", "violations", or "error".
	Outcome string `json:"outcome"`

	// Violations is the run's violation snapshot. Populated on reads
	// that ask for it.
	Violations []engine.Violation `json:"violations,omitempty"`
}

// NewRun builds a Run from a finished report.
func NewRun(command string, profiles []string, report *engine.Report, startedAt, finishedAt time.Time) *Run {
	errors, warnings, infos := report.Counts()

	outcome := "clean"
	if len(report.Violations) > 0 {
		outcome = "violations"
	}

	return &Run{
		ID:         uuid.NewString(),
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
		Command:    command,
		Profiles:   profiles,
		Evaluated:  report.Evaluated,
		Skipped:    report.Skipped,
		Fixed:      report.Fixed,
		Errors:     errors,
		Warnings:   warnings,
		Infos:      infos,
		Outcome:    outcome,
		Violations: report.Violations,
	}
}

// Duration returns the run's wall-clock duration.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
