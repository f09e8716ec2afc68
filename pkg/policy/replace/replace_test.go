package replace

import (
	"strings"
	"testing"

	"charter-hq/charter/pkg/descriptor"
)

const migrationDoc = `# Charter

` + "```policy" + `
id: old-rule
replaced_by: new-rule
` + "```" + `
Superseded; use new-rule.

` + "```policy" + `
id: new-rule
` + "```" + `
The successor.

` + "```policy" + `
id: dead-rule
replaced_by: gone-rule
` + "```" + `
Superseded by a disabled successor.

` + "```policy" + `
id: gone-rule
enabled: "false"
` + "```" + `
Disabled by default.

` + "```policy" + `
id: looped
replaced_by: looped
` + "```" + `
Points at itself.
`

func loadStore(t *testing.T, doc string) *descriptor.Store {
	t.Helper()
	store, err := descriptor.Load([]descriptor.Source{
		{Name: "charter.md", Origin: descriptor.OriginCustom, Content: []byte(doc)},
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return store
}

// fakeImpls records migration actions without a real catalog.
type fakeImpls struct {
	custom    map[string]bool
	present   map[string]bool
	relocated []string
	removed   []string
}

func newFakeImpls(ids ...string) *fakeImpls {
	f := &fakeImpls{custom: map[string]bool{}, present: map[string]bool{}}
	for _, id := range ids {
		f.present[id] = true
	}
	return f
}

func (f *fakeImpls) HasCustom(id string) bool { return f.custom[id] }

func (f *fakeImpls) Relocate(id string) bool {
	if !f.present[id] {
		return false
	}
	f.relocated = append(f.relocated, id)
	return true
}

func (f *fakeImpls) Remove(id string) bool {
	if !f.present[id] {
		return false
	}
	delete(f.present, id)
	f.removed = append(f.removed, id)
	return true
}

func TestMigrateRelocatesWhenSuccessorEnabled(t *testing.T) {
	store := loadStore(t, migrationDoc)
	impls := newFakeImpls("old-rule", "new-rule", "dead-rule", "gone-rule", "looped")

	res := Migrate(store, nil, impls)

	if len(res.Relocated) != 1 || res.Relocated[0] != "old-rule" {
		t.Errorf("relocated = %v, want [old-rule]", res.Relocated)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "dead-rule" {
		t.Errorf("dropped = %v, want [dead-rule]", res.Dropped)
	}
	if impls.present["dead-rule"] {
		t.Error("dropped id must lose its implementation")
	}
	if !impls.present["old-rule"] {
		t.Error("relocated id must keep its implementation")
	}
}

func TestMigrateCarriesToggle(t *testing.T) {
	store := loadStore(t, migrationDoc)
	impls := newFakeImpls("old-rule", "new-rule")

	toggles := map[string]bool{"old-rule": false}
	res := Migrate(store, toggles, impls)

	if enabled, ok := res.Toggles["new-rule"]; !ok || enabled {
		t.Errorf("toggle must carry to new-rule as off, got %v (present=%v)", enabled, ok)
	}
	if _, ok := res.Toggles["old-rule"]; ok {
		t.Error("replaced id must lose its toggle entry")
	}
	if toggles["old-rule"] != false || len(toggles) != 1 {
		t.Error("input toggle map must not be modified")
	}
	// The carried off toggle disables the successor, so the replaced
	// id is dropped rather than relocated.
	if len(res.Dropped) == 0 || res.Dropped[0] != "dead-rule" && res.Dropped[0] != "old-rule" {
		t.Errorf("dropped = %v, want old-rule among them", res.Dropped)
	}
	found := false
	for _, id := range res.Dropped {
		if id == "old-rule" {
			found = true
		}
	}
	if !found {
		t.Errorf("old-rule must be dropped when its carried toggle disables the successor, dropped = %v", res.Dropped)
	}
}

func TestMigrateKeepsExistingSuccessorToggle(t *testing.T) {
	store := loadStore(t, migrationDoc)
	impls := newFakeImpls("old-rule", "new-rule")

	res := Migrate(store, map[string]bool{"old-rule": false, "new-rule": true}, impls)

	if !res.Toggles["new-rule"] {
		t.Error("an existing successor toggle must win over the carried one")
	}
	if len(res.Relocated) != 1 || res.Relocated[0] != "old-rule" {
		t.Errorf("relocated = %v, want [old-rule]", res.Relocated)
	}
}

func TestMigrateSkipsCustomOwnedSuccessor(t *testing.T) {
	store := loadStore(t, migrationDoc)
	impls := newFakeImpls("old-rule", "new-rule")
	impls.custom["new-rule"] = true

	toggles := map[string]bool{"old-rule": true}
	res := Migrate(store, toggles, impls)

	if len(res.Relocated) != 0 {
		t.Errorf("skipped migration must not relocate, got %v", res.Relocated)
	}
	if _, ok := res.Toggles["old-rule"]; !ok {
		t.Error("skipped migration must leave the replaced id's toggle in place")
	}
	if !hasNotice(res, "migration skipped") {
		t.Errorf("expected a skip notice, got %v", res.Notices)
	}
}

func TestMigrateSelfReference(t *testing.T) {
	store := loadStore(t, migrationDoc)
	impls := newFakeImpls("looped")

	res := Migrate(store, nil, impls)

	if !impls.present["looped"] {
		t.Error("a self-referential replaced_by must leave the id alone")
	}
	if !hasNotice(res, "points at itself") {
		t.Errorf("expected a self-reference notice, got %v", res.Notices)
	}
}

func TestMigrateUnknownSuccessor(t *testing.T) {
	doc := "```policy\nid: orphan\nreplaced_by: nowhere\n```\nprose\n"
	store := loadStore(t, doc)
	impls := newFakeImpls("orphan")

	res := Migrate(store, nil, impls)

	if len(res.Dropped) != 1 || res.Dropped[0] != "orphan" {
		t.Errorf("an unknown successor counts as disabled, dropped = %v", res.Dropped)
	}
	if !hasNotice(res, "has no descriptor") {
		t.Errorf("expected an unknown-successor notice, got %v", res.Notices)
	}
}

func hasNotice(res *Result, substr string) bool {
	for _, n := range res.Notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
