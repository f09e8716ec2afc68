package resolve

import (
	"fmt"

	"charter-hq/charter/pkg/descriptor"
)

// NormalizeToggles brings the config enabled-state map in line with the
// descriptor snapshot: unseen ids are seeded from descriptor defaults,
// stale ids with no descriptor are dropped, and booleans already set by
// the user are preserved verbatim. The input map is not modified.
//
// The returned notices describe every change so callers can surface
// them before writing the normalized map back to config.
func NormalizeToggles(store *descriptor.Store, toggles map[string]bool) (map[string]bool, []string) {
	normalized := make(map[string]bool, store.Len())
	var notices []string

	for _, d := range store.All() {
		if current, ok := toggles[d.ID]; ok {
			normalized[d.ID] = current
			continue
		}
		normalized[d.ID] = d.EnabledDefault
		notices = append(notices, fmt.Sprintf("seeded %q from descriptor default (%t)", d.ID, d.EnabledDefault))
	}

	for _, id := range sortedKeys(toggles) {
		if !store.Has(id) {
			notices = append(notices, fmt.Sprintf("dropped stale toggle for unknown policy %q", id))
		}
	}

	return normalized, notices
}
