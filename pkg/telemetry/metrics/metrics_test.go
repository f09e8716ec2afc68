package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"charter-hq/charter/pkg/config"
)

func newTestCollector(t *testing.T, enabled bool) *Collector {
	t.Helper()
	cfg := &config.MetricsConfig{
		Enabled: enabled,
		Path:    "/metrics",
	}
	return NewCollector(cfg, prometheus.NewRegistry())
}

// gather returns the metric family by name, or nil.
func gather(t *testing.T, c *Collector, name string) *dto.MetricFamily {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestRecordRun(t *testing.T) {
	c := newTestCollector(t, true)
	c.RecordRun("violations", 120*time.Millisecond)
	c.RecordRun("clean", 50*time.Millisecond)

	mf := gather(t, c, "charter_runs_total")
	if mf == nil {
		t.Fatal("charter_runs_total not registered")
	}
	if len(mf.GetMetric()) != 2 {
		t.Errorf("expected 2 outcome series, got %d", len(mf.GetMetric()))
	}

	if gather(t, c, "charter_run_duration_seconds") == nil {
		t.Error("run duration histogram not registered")
	}
}

func TestRecordViolationLabels(t *testing.T) {
	c := newTestCollector(t, true)
	c.RecordViolation("line-length-limit", "warning")
	c.RecordViolation("line-length-limit", "warning")
	c.RecordViolation("forbidden-pattern", "error")

	mf := gather(t, c, "charter_violations_total")
	if mf == nil {
		t.Fatal("charter_violations_total not registered")
	}
	for _, m := range mf.GetMetric() {
		labels := map[string]string{}
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		if labels["policy_id"] == "line-length-limit" && m.GetCounter().GetValue() != 2 {
			t.Errorf("line-length-limit count = %v, want 2", m.GetCounter().GetValue())
		}
	}
}

func TestRecordFixesIgnoresZero(t *testing.T) {
	c := newTestCollector(t, true)
	c.RecordFixes("final-newline", 0)
	c.RecordFixes("final-newline", 3)

	mf := gather(t, c, "charter_fixes_total")
	if mf == nil {
		t.Fatal("charter_fixes_total not registered")
	}
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 3 {
		t.Errorf("fixes = %v, want 3", v)
	}
}

func TestDisabledCollectorRecordsNothing(t *testing.T) {
	c := newTestCollector(t, false)
	c.RecordRun("clean", time.Second)
	c.RecordViolation("x", "warning")
	c.RecordDrift("descriptor")
	c.SetActivePolicies(5)

	mf := gather(t, c, "charter_runs_total")
	if mf != nil && len(mf.GetMetric()) != 0 {
		t.Error("disabled collector must not record runs")
	}
}

func TestGauges(t *testing.T) {
	c := newTestCollector(t, true)
	c.SetActivePolicies(7)
	c.SetFilesScanned(140)

	if mf := gather(t, c, "charter_policies_active"); mf == nil ||
		mf.GetMetric()[0].GetGauge().GetValue() != 7 {
		t.Error("policies_active gauge wrong")
	}
	if mf := gather(t, c, "charter_files_scanned"); mf == nil ||
		mf.GetMetric()[0].GetGauge().GetValue() != 140 {
		t.Error("files_scanned gauge wrong")
	}
}
