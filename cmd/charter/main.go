// Charter is a documentation-driven policy compliance engine.
//
// Policies live as fenced blocks inside charter documents; the engine
// resolves them through profiles and config overrides, evaluates them
// against the repository file inventory, and tracks drift between the
// documented rules and their implementations.
//
// Usage:
//
//	# Evaluate every active policy
//	charter check
//
//	# Evaluate and auto-fix what the policies can fix
//	charter check --fix
//
//	# Acknowledge drift after editing documents or checks
//	charter sync
//
//	# Validate charter documents and profile overlays
//	charter lint
//
//	# Inspect the resolved policy set
//	charter policy list
//
//	# Re-evaluate continuously on file changes
//	charter watch
//
//	# Inspect past runs
//	charter history list
//
// For complete documentation, see: https://github.com/charter-hq/charter
package main

func main() {
	Execute()
}
