// Package replace migrates superseded policy ids to their successors.
// A descriptor carrying a replaced_by pointer hands its toggle to the
// successor, and its implementation either survives in the custom
// layer marked deprecated (successor enabled) or is dropped entirely
// (successor disabled). A custom override that already owns the
// successor id opts that id out of the migration.
package replace

import (
	"fmt"
	"sort"

	"charter-hq/charter/pkg/descriptor"
)

// Implementations is the mutable implementation index the migration
// acts on. *checks.Catalog satisfies it.
type Implementations interface {
	// HasCustom reports whether a custom implementation owns id.
	HasCustom(id string) bool
	// Relocate moves id's implementation to the custom layer marked
	// deprecated, reporting whether there was one.
	Relocate(id string) bool
	// Remove drops id's implementation, reporting whether there was
	// one.
	Remove(id string) bool
}

// Result describes what one migration pass did.
type Result struct {
	// Toggles is the migrated toggle map. The input map is never
	// modified.
	Toggles map[string]bool

	// Relocated lists replaced ids whose implementations moved to the
	// custom layer, in sorted order.
	Relocated []string

	// Dropped lists replaced ids removed entirely, in sorted order.
	Dropped []string

	// Notices records every migration action in human-readable form.
	Notices []string
}

// Migrate walks every descriptor carrying a replaced_by pointer and
// applies the replacement contract:
//
//   - the replaced id's toggle carries to the successor, unless the
//     successor already has one; the replaced id's own toggle entry is
//     removed either way
//   - if the successor ends up enabled, the replaced id's
//     implementation relocates to the custom layer marked deprecated
//   - if the successor ends up disabled, the replaced id is dropped
//     entirely, orphaned custom implementation included
//   - a custom override already owning the successor id skips the
//     migration for that id
//
// Ids are processed in sorted order so notices are deterministic.
func Migrate(store *descriptor.Store, toggles map[string]bool, impls Implementations) *Result {
	res := &Result{Toggles: make(map[string]bool, len(toggles))}
	for id, enabled := range toggles {
		res.Toggles[id] = enabled
	}

	for _, id := range store.IDs() {
		d, _ := store.Get(id)
		succ := d.ReplacedBy
		if succ == "" {
			continue
		}
		if succ == id {
			res.notice("policy %q: replaced_by points at itself, ignored", id)
			continue
		}
		if impls.HasCustom(succ) {
			res.notice("policy %q: custom implementation owns successor %q, migration skipped", id, succ)
			continue
		}

		if t, ok := res.Toggles[id]; ok {
			if _, exists := res.Toggles[succ]; !exists {
				res.Toggles[succ] = t
				res.notice("policy %q: toggle %s carried to successor %q", id, onOff(t), succ)
			}
			delete(res.Toggles, id)
		}

		if succEnabled(store, res.Toggles, succ, res, id) {
			if impls.Relocate(id) {
				res.Relocated = append(res.Relocated, id)
				res.notice("policy %q: implementation relocated to custom layer, deprecated in favor of %q", id, succ)
			}
		} else {
			impls.Remove(id)
			res.Dropped = append(res.Dropped, id)
			res.notice("policy %q: successor %q disabled, replaced id dropped", id, succ)
		}
	}

	sort.Strings(res.Relocated)
	sort.Strings(res.Dropped)
	return res
}

// succEnabled resolves the successor's effective activation: toggle
// entry first, then its descriptor default. An unknown successor id
// counts as disabled.
func succEnabled(store *descriptor.Store, toggles map[string]bool, succ string, res *Result, replacedID string) bool {
	if t, ok := toggles[succ]; ok {
		return t
	}
	if d, ok := store.Get(succ); ok {
		return d.EnabledDefault
	}
	res.notice("policy %q: successor %q has no descriptor", replacedID, succ)
	return false
}

func (r *Result) notice(format string, args ...any) {
	r.Notices = append(r.Notices, fmt.Sprintf(format, args...))
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
