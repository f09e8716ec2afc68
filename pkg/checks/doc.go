// Package checks provides the implementation catalog: the mapping from
// policy ids to runnable check and fixer code.
//
// Two implementation kinds exist. Builtin implementations are compiled
// into the engine and carry stable source fingerprints for the drift
// registry. Script implementations are executable files in the
// repository's checks directory, named after their policy id, spoken to
// over a line-oriented protocol. A script implementation fully replaces
// the builtin for the same id; resolution happens once at catalog load
// and never mixes the two.
package checks
