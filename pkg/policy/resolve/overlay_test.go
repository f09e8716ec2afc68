package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const strictOverlay = `name: strict
selector:
  exclude_dirs:
    - vendor
policies:
  line-length-limit:
    max_length: 100
    severity: error
`

func TestParseOverlay(t *testing.T) {
	overlay, err := ParseOverlay([]byte(strictOverlay), "strict.yaml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if overlay.Name != "strict" {
		t.Errorf("expected name strict, got %q", overlay.Name)
	}
	if _, ok := overlay.SelectorDefaults["exclude_dirs"]; !ok {
		t.Error("selector defaults missing exclude_dirs")
	}
	if _, ok := overlay.Policies["line-length-limit"]; !ok {
		t.Error("per-policy overlay missing")
	}
}

func TestParseOverlaySchemaValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "policies:\n  x:\n    k: v\n"},
		{"unknown top-level key", "name: p\nextras:\n  k: v\n"},
		{"nested overlay value", "name: p\npolicies:\n  x:\n    k:\n      nested: true\n"},
		{"non-object policies", "name: p\npolicies: [a, b]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOverlay([]byte(tt.doc), tt.name)
			if err == nil {
				t.Fatal("expected schema validation error")
			}
			if !strings.Contains(err.Error(), "schema validation") {
				t.Errorf("expected a schema validation error, got: %v", err)
			}
		})
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "strict.yaml"), []byte(strictOverlay), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "docs.yaml"), []byte("name: docs\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	overlays, err := LoadProfiles(dir, []string{"docs", "strict"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(overlays) != 2 {
		t.Fatalf("expected 2 overlays, got %d", len(overlays))
	}
	// Activation order follows the active list, not directory order.
	if overlays[0].Name != "docs" || overlays[1].Name != "strict" {
		t.Errorf("unexpected activation order: %s, %s", overlays[0].Name, overlays[1].Name)
	}
}

func TestLoadProfilesMissingIsFatal(t *testing.T) {
	_, err := LoadProfiles(t.TempDir(), []string{"nope"})
	if err == nil {
		t.Fatal("a missing active profile must be fatal")
	}
}

func TestLoadProfilesNameMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "strict.yaml"), []byte("name: other\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadProfiles(dir, []string{"strict"})
	if err == nil || !strings.Contains(err.Error(), "declares name") {
		t.Errorf("expected a name mismatch error, got: %v", err)
	}
}
