// Package charter assembles the full evaluation pipeline from
// configuration: charter documents, profile overlays, the check
// catalog, replacement migration, policy resolution, the inventory
// scan, the evaluation engine, the drift registry, and run history.
//
// The CLI is a thin shell over this package; embedding programs can
// drive the same pipeline through Runner, or compose the lower-level
// packages directly when they need a custom inventory or catalog.
package charter
