// Package metrics exposes Prometheus metrics for the charter engine:
// run counts and durations, violations by policy and severity, fixer
// activity, and drift findings. The collector registers everything on
// its own registry; watch mode serves the endpoint, one-shot runs only
// record.
package metrics
