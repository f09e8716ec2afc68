// Package descriptor loads policy descriptors from charter documents.
//
// A charter document is a Markdown file containing fenced ```policy
// blocks. Each block holds key/value metadata (parsed as YAML) and is
// immediately followed by free-text prose describing the rule. The
// descriptor store assembles descriptors from the embedded core charter
// and any repository-local charter documents; a custom descriptor with
// the same id as a core descriptor fully replaces it.
//
// Descriptors are an immutable snapshot for the duration of a run:
// the store is built once at process start and never mutated.
package descriptor
