// Package engine evaluates resolved policies against the repository
// inventory.
//
// For each active policy the engine computes the target file subset via
// the compiled selector, runs the implementation's check, and collects
// violations tagged with the policy's effective severity. In fix mode,
// fix-capable policies get their fixer invoked and the check re-runs
// once to confirm remediation. Per-policy failures are isolated: a
// selector compile error, missing implementation, check error or fixer
// error never stops evaluation of the remaining policies.
package engine
