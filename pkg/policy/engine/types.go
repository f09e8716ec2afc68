package engine

import (
	"context"
	"fmt"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/inventory"
)

// Violation is one finding from a policy check or from the engine
// itself. Every violation carries the originating policy id, and the
// file path where one applies, so remediation is always traceable to a
// documented rule.
type Violation struct {
	// PolicyID is the id of the policy that produced the violation.
	PolicyID string `json:"policy_id"`

	// Path is the repository file the violation applies to, when any.
	Path string `json:"path,omitempty"`

	// Message describes the violation.
	Message string `json:"message"`

	// Severity is the policy's effective severity.
	Severity descriptor.Severity `json:"severity"`

	// Detail carries extra failure context, such as a fixer error.
	Detail string `json:"detail,omitempty"`
}

// String formats a violation for text output.
func (v Violation) String() string {
	s := fmt.Sprintf("[%s] %s", v.Severity, v.PolicyID)
	if v.Path != "" {
		s += " " + v.Path
	}
	s += ": " + v.Message
	if v.Detail != "" {
		s += " (" + v.Detail + ")"
	}
	return s
}

// Report is the outcome of one evaluation run.
type Report struct {
	// Violations is the ordered violation list.
	Violations []Violation `json:"violations"`

	// Evaluated counts the policies whose checks ran.
	Evaluated int `json:"evaluated"`

	// Skipped counts active policies that could not run (selector
	// failure, missing implementation).
	Skipped int `json:"skipped"`

	// Fixed counts files changed by fixers during this run.
	Fixed int `json:"fixed"`

	// FixCounts breaks Fixed down per policy id.
	FixCounts map[string]int `json:"fix_counts,omitempty"`
}

// Blocking reports whether any violation carries error severity.
func (r *Report) Blocking() bool {
	for _, v := range r.Violations {
		if v.Severity == descriptor.SeverityError {
			return true
		}
	}
	return false
}

// ExitCode maps the report onto the process exit status: zero when no
// blocking violation exists, one otherwise.
func (r *Report) ExitCode() int {
	if r.Blocking() {
		return 1
	}
	return 0
}

// Counts returns the violation totals per severity.
func (r *Report) Counts() (errors, warnings, infos int) {
	for _, v := range r.Violations {
		switch v.Severity {
		case descriptor.SeverityError:
			errors++
		case descriptor.SeverityWarning:
			warnings++
		case descriptor.SeverityInfo:
			infos++
		}
	}
	return
}

// CheckRequest is the input handed to a policy implementation. The
// target list is already filtered through the policy's selector.
type CheckRequest struct {
	// Targets are the selected repository paths, in inventory order.
	Targets []string

	// Metadata is the policy's resolved metadata.
	Metadata descriptor.Metadata

	// Repo is the shared inventory snapshot for reading file content.
	Repo *inventory.Snapshot

	// Root is the repository root on disk. Fixers write through it;
	// it is empty for in-memory inventories, in which case fixing is
	// unavailable.
	Root string
}

// FixResult reports what a fixer changed. Fixers must be idempotent:
// running the same fix twice on unchanged input produces no further
// change.
type FixResult struct {
	// Changed lists the paths the fixer modified.
	Changed []string
}

// Implementation is one policy's check and optional fixer. Exactly two
// concrete kinds exist: builtin implementations compiled into the
// engine, and script implementations loaded from the repository. A
// custom implementation fully replaces the core one for its id; the
// two never coexist in a catalog.
type Implementation interface {
	// ID returns the policy id this implementation serves.
	ID() string

	// Origin reports which layer the implementation came from.
	Origin() descriptor.Origin

	// Source returns the canonical implementation source text used by
	// the drift registry.
	Source() string

	// Check evaluates the policy and returns its violations. The
	// engine fills in policy id and severity.
	Check(ctx context.Context, req *CheckRequest) ([]Violation, error)

	// CanFix reports whether a fixer is available.
	CanFix() bool

	// Fix applies the auto-remediation in place.
	Fix(ctx context.Context, req *CheckRequest) (*FixResult, error)
}

// Catalog resolves policy ids to implementations. Resolution happens
// once at load time; Lookup must be stable for the whole run.
type Catalog interface {
	Lookup(id string) (Implementation, bool)
}
