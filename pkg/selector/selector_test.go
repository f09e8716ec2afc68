package selector

import (
	"strings"
	"testing"

	"charter-hq/charter/pkg/descriptor"
)

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.py", "foo.py", true},
		{"*.py", "src/foo.py", true}, // slashless globs match the base name
		{"*.py", "foo.pyc", false},
		{"src/*.py", "src/foo.py", true},
		{"src/*.py", "src/sub/foo.py", false}, // `*` is a single segment
		{"src/**/*.py", "src/sub/foo.py", true},
		{"src/**/*.py", "src/a/b/foo.py", true},
		{"src/**/*.py", "src/foo.py", true}, // `**` matches zero segments
		{"**/*.py", "foo.py", true},
		{"tests/**", "tests/foo.py", true},
		{"tests/**", "tests/a/b/c.py", true},
		{"tests/**", "src/tests.py", false},
		{"docs/*.md", "docs/readme.md", true},
		{"docs/*.md", "readme.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.path, func(t *testing.T) {
			if got := globMatch(tt.pattern, tt.path); got != tt.want {
				t.Errorf("globMatch(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestSelectorAlgebra(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		path string
		want bool
	}{
		{
			name: "include glob selects",
			spec: Spec{Include: Entries{Globs: []string{"*.py"}}},
			path: "src/foo.py",
			want: true,
		},
		{
			name: "exclude removes candidate",
			spec: Spec{
				Include: Entries{Globs: []string{"*.py"}},
				Exclude: Entries{Globs: []string{"tests/**"}},
			},
			path: "tests/foo.py",
			want: false,
		},
		{
			name: "non-excluded candidate survives",
			spec: Spec{
				Include: Entries{Globs: []string{"*.py"}},
				Exclude: Entries{Globs: []string{"tests/**"}},
			},
			path: "src/foo.py",
			want: true,
		},
		{
			name: "force include restores excluded path",
			spec: Spec{
				Include:      Entries{Globs: []string{"*.py"}},
				Exclude:      Entries{Globs: []string{"tests/**"}},
				ForceInclude: Entries{Globs: []string{"tests/keep.py"}},
			},
			path: "tests/keep.py",
			want: true,
		},
		{
			name: "force include does not widen the candidate set",
			spec: Spec{
				Include:      Entries{Globs: []string{"*.py"}},
				ForceInclude: Entries{Globs: []string{"*.md"}},
			},
			path: "readme.md",
			want: false,
		},
		{
			name: "no include entries means unscoped",
			spec: Spec{Exclude: Entries{Dirs: []string{"vendor"}}},
			path: "anything/at/all.txt",
			want: true,
		},
		{
			name: "unscoped still honors exclude",
			spec: Spec{Exclude: Entries{Dirs: []string{"vendor"}}},
			path: "vendor/lib.go",
			want: false,
		},
		{
			name: "sentinel matches nothing",
			spec: Spec{Include: Entries{Globs: []string{Sentinel}}},
			path: "src/foo.py",
			want: false,
		},
		{
			name: "explicit file",
			spec: Spec{Include: Entries{Files: []string{"Makefile"}}},
			path: "Makefile",
			want: true,
		},
		{
			name: "explicit file is exact",
			spec: Spec{Include: Entries{Files: []string{"Makefile"}}},
			path: "sub/Makefile",
			want: false,
		},
		{
			name: "dir prefix at slash boundary",
			spec: Spec{Include: Entries{Dirs: []string{"src"}}},
			path: "src/a/b.go",
			want: true,
		},
		{
			name: "dir prefix does not match sibling",
			spec: Spec{Include: Entries{Dirs: []string{"src"}}},
			path: "srcs/a.go",
			want: false,
		},
		{
			name: "name prefix",
			spec: Spec{Include: Entries{Prefixes: []string{"test_"}}},
			path: "pkg/test_utils.py",
			want: true,
		},
		{
			name: "extension suffix",
			spec: Spec{Include: Entries{Suffixes: []string{".yaml"}}},
			path: "config/app.yaml",
			want: true,
		},
		{
			name: "component suffix boundary",
			spec: Spec{Include: Entries{Suffixes: []string{"rc"}}},
			path: "home/bashrc",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Compile(tt.spec)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if got := sel.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCompileMalformedGlob(t *testing.T) {
	_, err := Compile(Spec{Include: Entries{Globs: []string{"src/[bad"}}})
	if err == nil {
		t.Fatal("expected a compile error for a malformed glob")
	}
	if !strings.Contains(err.Error(), "malformed glob") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFromMetadata(t *testing.T) {
	m := descriptor.Metadata{
		"include_globs":       descriptor.Strings("*.py"),
		"exclude_dirs":        descriptor.Strings("vendor", "node_modules"),
		"force_include_files": descriptor.Strings("vendor/patched.py"),
		"max_length":          descriptor.String("100"), // unrelated key ignored
	}

	spec := FromMetadata(m)
	if len(spec.Include.Globs) != 1 || spec.Include.Globs[0] != "*.py" {
		t.Errorf("unexpected include globs: %v", spec.Include.Globs)
	}
	if len(spec.Exclude.Dirs) != 2 {
		t.Errorf("unexpected exclude dirs: %v", spec.Exclude.Dirs)
	}
	if len(spec.ForceInclude.Files) != 1 {
		t.Errorf("unexpected force include files: %v", spec.ForceInclude.Files)
	}
}

func TestSignatureCanonical(t *testing.T) {
	a := Spec{Include: Entries{Globs: []string{"b", "a"}}}
	b := Spec{Include: Entries{Globs: []string{"a", "b"}}}

	if a.Signature() != b.Signature() {
		t.Error("entry order must not change the signature")
	}

	c := Spec{Exclude: Entries{Globs: []string{"a", "b"}}}
	if a.Signature() == c.Signature() {
		t.Error("different roles must produce different signatures")
	}

	selA := MustCompile(a)
	selB := MustCompile(b)
	if selA.SignatureDigest() != selB.SignatureDigest() {
		t.Error("signature digests must be stable across equivalent specs")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	sel := MustCompile(Spec{
		Include: Entries{Globs: []string{"*.go"}},
		Exclude: Entries{Dirs: []string{"vendor"}},
	})

	paths := []string{"b.go", "vendor/x.go", "a.go", "readme.md"}
	got := sel.Filter(paths)
	want := []string{"b.go", "a.go"}
	if len(got) != len(want) {
		t.Fatalf("Filter = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Filter[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
