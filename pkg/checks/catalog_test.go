package checks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"charter-hq/charter/pkg/descriptor"
)

func emptyStore(t *testing.T) *descriptor.Store {
	t.Helper()
	store, err := descriptor.Load([]descriptor.Source{descriptor.CoreSource()})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestCatalogBuiltinsOnly(t *testing.T) {
	c, err := Load(emptyStore(t), "", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	impl, ok := c.Lookup("line-length-limit")
	if !ok {
		t.Fatal("builtin line-length-limit missing")
	}
	if impl.Origin() != descriptor.OriginCore {
		t.Errorf("expected core origin, got %q", impl.Origin())
	}
	if c.HasCustom("line-length-limit") {
		t.Error("no custom implementation should be present")
	}
}

func TestCatalogMissingChecksDir(t *testing.T) {
	c, err := Load(emptyStore(t), filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil {
		t.Fatalf("an absent checks directory must not fail: %v", err)
	}
	if len(c.IDs()) != 5 {
		t.Errorf("expected the 5 builtins, got %v", c.IDs())
	}
}

func TestCustomScriptReplacesBuiltin(t *testing.T) {
	dir := t.TempDir()
	scriptBody := "#!/bin/sh\nexit 0\n"
	if err := os.WriteFile(filepath.Join(dir, "line-length-limit"), []byte(scriptBody), 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := Load(emptyStore(t), dir, nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	impl, ok := c.Lookup("line-length-limit")
	if !ok {
		t.Fatal("implementation missing")
	}
	if impl.Origin() != descriptor.OriginCustom {
		t.Error("custom script must replace the builtin wholesale")
	}
	if impl.Source() != scriptBody {
		t.Errorf("script source must be the file content, got %q", impl.Source())
	}
	if !c.HasCustom("line-length-limit") {
		t.Error("HasCustom must report the override")
	}
}

func TestScriptIDFromFileName(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"my-rule", "my-rule"},
		{"my-rule.sh", "my-rule"},
		{"my-rule.py", "my-rule"},
	}
	for _, tt := range tests {
		if got := scriptID(tt.file); got != tt.want {
			t.Errorf("scriptID(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestScriptCheckProtocol(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\n" +
		"while read -r target; do\n" +
		"  printf '%s\\tflagged by script\\n' \"$target\"\n" +
		"done\n"
	path := filepath.Join(dir, "custom-rule")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	impl, err := newScript("custom-rule", path, false)
	if err != nil {
		t.Fatal(err)
	}

	req := request(t, map[string]string{"a.go": "x\n", "b.go": "y\n"}, nil)
	violations, err := impl.Check(context.Background(), req)
	if err != nil {
		t.Fatalf("script check failed: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(violations), violations)
	}
	if violations[0].Path != "a.go" || violations[0].Message != "flagged by script" {
		t.Errorf("unexpected violation: %+v", violations[0])
	}
}

func TestScriptFailureSurfacesStderr(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\necho 'script exploded' >&2\nexit 3\n"
	path := filepath.Join(dir, "broken-rule")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	impl, err := newScript("broken-rule", path, false)
	if err != nil {
		t.Fatal(err)
	}

	req := request(t, map[string]string{"a.go": "x\n"}, nil)
	_, err = impl.Check(context.Background(), req)
	if err == nil {
		t.Fatal("expected the script failure to propagate")
	}
	if want := "script exploded"; !strings.Contains(err.Error(), want) {
		t.Errorf("error should carry stderr detail %q: %v", want, err)
	}
}
