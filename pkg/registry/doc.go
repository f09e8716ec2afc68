// Package registry persists tamper-detection state for every policy:
// stable digests over descriptor prose, implementation source and
// selector signature. Each run compares current digests against the
// stored entry; an unacknowledged mismatch is drift, reported as an
// ordinary violation at configured severity. An explicit sync
// recomputes and persists all digests and prunes stale ids in one
// atomic pass.
//
// The registry file is written only by this package, via a temp-file
// write followed by an atomic rename, so a crash mid-write never
// leaves a half-written registry behind.
package registry
