package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"charter-hq/charter/pkg/config"
)

// Collector owns every Prometheus metric the engine exposes.
//
// Metrics:
//   - charter_runs_total: evaluation runs by outcome
//   - charter_run_duration_seconds: evaluation run duration
//   - charter_violations_total: violations by policy id and severity
//   - charter_fixes_total: files fixed by policy id
//   - charter_drift_total: drift findings by artifact kind
//   - charter_policies_active: active policies in the last run
//   - charter_files_scanned: inventory size of the last run
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	violationsTotal *prometheus.CounterVec
	fixesTotal      *prometheus.CounterVec
	driftTotal      *prometheus.CounterVec
	policiesActive  prometheus.Gauge
	filesScanned    prometheus.Gauge
}

// NewCollector creates a metrics collector registered on registry. If
// registry is nil a fresh one is created, so tests never collide on
// the global default registry.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "charter"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "runs_total",
				Help:      "Total number of evaluation runs",
			},
			[]string{"outcome"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of one evaluation run in seconds",
				// Repository scans range from milliseconds to minutes.
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~82s
			},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "violations_total",
				Help:      "Total number of violations reported",
			},
			[]string{"policy_id", "severity"},
		),

		fixesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "fixes_total",
				Help:      "Total number of files changed by fixers",
			},
			[]string{"policy_id"},
		),

		driftTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "drift_total",
				Help:      "Total number of drift findings",
			},
			[]string{"kind"},
		),

		policiesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "policies_active",
				Help:      "Active policies in the most recent run",
			},
		),

		filesScanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "files_scanned",
				Help:      "Files in the most recent inventory scan",
			},
		),
	}

	registry.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.violationsTotal,
		c.fixesTotal,
		c.driftTotal,
		c.policiesActive,
		c.filesScanned,
	)

	return c
}

// RecordRun records one completed evaluation run.
//
// Outcome is "clean", "violations", or "error".
func (c *Collector) RecordRun(outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.runsTotal.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(duration.Seconds())
}

// RecordViolation records one reported violation.
func (c *Collector) RecordViolation(policyID, severity string) {
	if !c.config.Enabled {
		return
	}
	c.violationsTotal.WithLabelValues(policyID, severity).Inc()
}

// RecordFixes records files changed by a policy's fixer.
func (c *Collector) RecordFixes(policyID string, files int) {
	if !c.config.Enabled || files <= 0 {
		return
	}
	c.fixesTotal.WithLabelValues(policyID).Add(float64(files))
}

// RecordDrift records one drift finding by artifact kind
// ("descriptor", "source", "selector").
func (c *Collector) RecordDrift(kind string) {
	if !c.config.Enabled {
		return
	}
	c.driftTotal.WithLabelValues(kind).Inc()
}

// SetActivePolicies updates the active policy gauge.
func (c *Collector) SetActivePolicies(n int) {
	if !c.config.Enabled {
		return
	}
	c.policiesActive.Set(float64(n))
}

// SetFilesScanned updates the inventory size gauge.
func (c *Collector) SetFilesScanned(n int) {
	if !c.config.Enabled {
		return
	}
	c.filesScanned.Set(float64(n))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
