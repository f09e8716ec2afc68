package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/inventory"
	"charter-hq/charter/pkg/policy/resolve"
	"charter-hq/charter/pkg/selector"
)

// fakeImpl is a scriptable implementation for engine tests.
type fakeImpl struct {
	id        string
	origin    descriptor.Origin
	checkFn   func(req *CheckRequest) ([]Violation, error)
	fixFn     func(req *CheckRequest) (*FixResult, error)
	checkRuns int
	fixRuns   int
}

func (f *fakeImpl) ID() string                { return f.id }
func (f *fakeImpl) Origin() descriptor.Origin { return f.origin }
func (f *fakeImpl) Source() string            { return "fake:" + f.id }
func (f *fakeImpl) CanFix() bool              { return f.fixFn != nil }

func (f *fakeImpl) Check(_ context.Context, req *CheckRequest) ([]Violation, error) {
	f.checkRuns++
	return f.checkFn(req)
}

func (f *fakeImpl) Fix(_ context.Context, req *CheckRequest) (*FixResult, error) {
	f.fixRuns++
	return f.fixFn(req)
}

type fakeCatalog map[string]Implementation

func (c fakeCatalog) Lookup(id string) (Implementation, bool) {
	impl, ok := c[id]
	return impl, ok
}

func testSnapshot(t *testing.T, files ...string) *inventory.Snapshot {
	t.Helper()
	fsys := fstest.MapFS{}
	for _, f := range files {
		fsys[f] = &fstest.MapFile{Data: []byte("content\n")}
	}
	snap, err := inventory.Scan(fsys, inventory.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func activePolicy(id string, sev descriptor.Severity) *resolve.Policy {
	return &resolve.Policy{
		ID:       id,
		Active:   true,
		Severity: sev,
		Metadata: descriptor.Metadata{},
		Selector: selector.MustCompile(selector.Spec{}),
	}
}

func TestInactivePolicyProducesNothing(t *testing.T) {
	impl := &fakeImpl{id: "p", checkFn: func(*CheckRequest) ([]Violation, error) {
		return []Violation{{Message: "should never run"}}, nil
	}}
	p := activePolicy("p", descriptor.SeverityError)
	p.Active = false

	e := New(fakeCatalog{"p": impl}, nil)
	report, err := e.Evaluate(context.Background(), []*resolve.Policy{p}, testSnapshot(t, "a.go"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Violations) != 0 {
		t.Errorf("inactive policies must produce zero violations, got %v", report.Violations)
	}
	if impl.checkRuns != 0 {
		t.Errorf("inactive policy check must not run, ran %d times", impl.checkRuns)
	}
}

func TestViolationsTaggedWithPolicySeverity(t *testing.T) {
	impl := &fakeImpl{id: "p", checkFn: func(req *CheckRequest) ([]Violation, error) {
		return []Violation{{Path: req.Targets[0], Message: "too long"}}, nil
	}}

	e := New(fakeCatalog{"p": impl}, nil)
	report, err := e.Evaluate(context.Background(),
		[]*resolve.Policy{activePolicy("p", descriptor.SeverityInfo)},
		testSnapshot(t, "a.go"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(report.Violations))
	}
	v := report.Violations[0]
	if v.PolicyID != "p" || v.Severity != descriptor.SeverityInfo || v.Path != "a.go" {
		t.Errorf("violation not tagged correctly: %+v", v)
	}
	if report.Blocking() {
		t.Error("info violations must not block")
	}
	if report.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", report.ExitCode())
	}
}

func TestErrorSeverityBlocks(t *testing.T) {
	impl := &fakeImpl{id: "p", checkFn: func(*CheckRequest) ([]Violation, error) {
		return []Violation{{Message: "bad"}}, nil
	}}

	e := New(fakeCatalog{"p": impl}, nil)
	report, _ := e.Evaluate(context.Background(),
		[]*resolve.Policy{activePolicy("p", descriptor.SeverityError)},
		testSnapshot(t, "a.go"), Options{})

	if !report.Blocking() || report.ExitCode() != 1 {
		t.Errorf("error severity must block: blocking=%v exit=%d", report.Blocking(), report.ExitCode())
	}
}

func TestMissingImplementation(t *testing.T) {
	e := New(fakeCatalog{}, nil)
	report, _ := e.Evaluate(context.Background(),
		[]*resolve.Policy{activePolicy("ghost", descriptor.SeverityWarning)},
		testSnapshot(t, "a.go"), Options{})

	if len(report.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(report.Violations))
	}
	v := report.Violations[0]
	if !strings.Contains(v.Message, "missing implementation") || v.Severity != descriptor.SeverityError {
		t.Errorf("unexpected violation: %+v", v)
	}
	if report.Skipped != 1 {
		t.Errorf("expected 1 skipped policy, got %d", report.Skipped)
	}
}

func TestSelectorErrorScoped(t *testing.T) {
	good := &fakeImpl{id: "good", checkFn: func(*CheckRequest) ([]Violation, error) {
		return nil, nil
	}}
	broken := activePolicy("broken", descriptor.SeverityWarning)
	broken.Selector = nil
	broken.SelectorErr = errors.New("malformed glob")

	e := New(fakeCatalog{"good": good}, nil)
	report, err := e.Evaluate(context.Background(),
		[]*resolve.Policy{broken, activePolicy("good", descriptor.SeverityWarning)},
		testSnapshot(t, "a.go"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if report.Evaluated != 1 {
		t.Errorf("the healthy policy must still evaluate, evaluated=%d", report.Evaluated)
	}
	if len(report.Violations) != 1 || report.Violations[0].Severity != descriptor.SeverityError {
		t.Errorf("selector failure must surface as an error violation: %v", report.Violations)
	}
}

func TestCheckErrorIsolated(t *testing.T) {
	failing := &fakeImpl{id: "failing", checkFn: func(*CheckRequest) ([]Violation, error) {
		return nil, errors.New("boom")
	}}
	healthy := &fakeImpl{id: "healthy", checkFn: func(*CheckRequest) ([]Violation, error) {
		return nil, nil
	}}

	e := New(fakeCatalog{"failing": failing, "healthy": healthy}, nil)
	report, err := e.Evaluate(context.Background(),
		[]*resolve.Policy{
			activePolicy("failing", descriptor.SeverityWarning),
			activePolicy("healthy", descriptor.SeverityWarning),
		},
		testSnapshot(t, "a.go"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if healthy.checkRuns != 1 {
		t.Error("a check error must not halt evaluation of other policies")
	}
	if len(report.Violations) != 1 || !strings.Contains(report.Violations[0].Message, "check failed") {
		t.Errorf("unexpected violations: %v", report.Violations)
	}
}

func TestFixAndRecheck(t *testing.T) {
	fixed := false
	impl := &fakeImpl{
		id: "p",
		checkFn: func(*CheckRequest) ([]Violation, error) {
			if fixed {
				return nil, nil
			}
			return []Violation{{Path: "a.go", Message: "trailing whitespace"}}, nil
		},
	}
	impl.fixFn = func(*CheckRequest) (*FixResult, error) {
		fixed = true
		return &FixResult{Changed: []string{"a.go"}}, nil
	}

	p := activePolicy("p", descriptor.SeverityWarning)
	p.FixCapable = true

	e := New(fakeCatalog{"p": impl}, nil)
	report, err := e.Evaluate(context.Background(), []*resolve.Policy{p}, testSnapshot(t, "a.go"), Options{Fix: true})
	if err != nil {
		t.Fatal(err)
	}

	if impl.fixRuns != 1 {
		t.Errorf("expected exactly one fix run, got %d", impl.fixRuns)
	}
	if impl.checkRuns != 2 {
		t.Errorf("expected check + re-check, got %d runs", impl.checkRuns)
	}
	if len(report.Violations) != 0 {
		t.Errorf("remediated violations must clear after re-check: %v", report.Violations)
	}
	if report.Fixed != 1 {
		t.Errorf("expected 1 fixed file, got %d", report.Fixed)
	}
}

func TestFixerFailureIsolated(t *testing.T) {
	first := &fakeImpl{
		id: "first",
		checkFn: func(*CheckRequest) ([]Violation, error) {
			return []Violation{{Path: "a.go", Message: "bad"}}, nil
		},
		fixFn: func(*CheckRequest) (*FixResult, error) {
			return nil, errors.New("disk full")
		},
	}
	second := &fakeImpl{id: "second", checkFn: func(*CheckRequest) ([]Violation, error) {
		return nil, nil
	}}

	p1 := activePolicy("first", descriptor.SeverityWarning)
	p1.FixCapable = true
	p2 := activePolicy("second", descriptor.SeverityWarning)

	e := New(fakeCatalog{"first": first, "second": second}, nil)
	report, err := e.Evaluate(context.Background(), []*resolve.Policy{p1, p2}, testSnapshot(t, "a.go"), Options{Fix: true})
	if err != nil {
		t.Fatal(err)
	}

	if second.checkRuns != 1 {
		t.Error("a fixer failure must not halt evaluation of other policies")
	}
	if len(report.Violations) != 1 {
		t.Fatalf("the unfixed violation must remain, got %v", report.Violations)
	}
	if !strings.Contains(report.Violations[0].Detail, "disk full") {
		t.Errorf("fixer failure detail must be attached: %+v", report.Violations[0])
	}
}

func TestNoFixWithoutFixMode(t *testing.T) {
	impl := &fakeImpl{
		id: "p",
		checkFn: func(*CheckRequest) ([]Violation, error) {
			return []Violation{{Message: "bad"}}, nil
		},
		fixFn: func(*CheckRequest) (*FixResult, error) {
			return &FixResult{}, nil
		},
	}
	p := activePolicy("p", descriptor.SeverityWarning)
	p.FixCapable = true

	e := New(fakeCatalog{"p": impl}, nil)
	if _, err := e.Evaluate(context.Background(), []*resolve.Policy{p}, testSnapshot(t, "a.go"), Options{}); err != nil {
		t.Fatal(err)
	}

	if impl.fixRuns != 0 {
		t.Errorf("fixer must not run outside fix mode, ran %d times", impl.fixRuns)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(fakeCatalog{}, nil)
	_, err := e.Evaluate(ctx, []*resolve.Policy{activePolicy("p", descriptor.SeverityWarning)}, testSnapshot(t), Options{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
