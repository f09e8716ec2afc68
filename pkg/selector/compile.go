package selector

import (
	"fmt"
	"path"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Selector is a compiled selector spec. It is immutable and safe for
// concurrent use.
type Selector struct {
	spec         Spec
	signature    string
	matchNothing bool
	unscoped     bool
}

// Compile compiles a spec into a Selector. Malformed glob patterns are
// reported here so the caller can scope the failure to one policy.
func Compile(spec Spec) (*Selector, error) {
	for _, entries := range []Entries{spec.Include, spec.Exclude, spec.ForceInclude} {
		for _, pattern := range entries.Globs {
			if pattern == Sentinel {
				continue
			}
			if err := validateGlob(pattern); err != nil {
				return nil, err
			}
		}
	}

	return &Selector{
		spec:         spec,
		signature:    spec.Signature(),
		matchNothing: spec.Include.hasSentinel(),
		unscoped:     spec.Include.IsEmpty(),
	}, nil
}

// MustCompile compiles a spec and panics on error. For tests and
// compiled-in specs only.
func MustCompile(spec Spec) *Selector {
	s, err := Compile(spec)
	if err != nil {
		panic(fmt.Sprintf("selector: %v", err))
	}
	return s
}

// Matches reports whether the relative slash path is selected.
//
// Precedence: sentinel, then include (unscoped selects everything),
// then exclude, then force-include. Force-include is the only category
// that overrides exclusion.
func (s *Selector) Matches(p string) bool {
	if s.matchNothing {
		return false
	}
	if !s.unscoped && !matchEntries(s.spec.Include, p) {
		return false
	}
	if matchEntries(s.spec.Exclude, p) && !matchEntries(s.spec.ForceInclude, p) {
		return false
	}
	return true
}

// Filter returns the subset of paths the selector matches, preserving
// input order.
func (s *Selector) Filter(paths []string) []string {
	var out []string
	for _, p := range paths {
		if s.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Signature returns the canonical serialization of the compiled spec.
func (s *Selector) Signature() string {
	return s.signature
}

// SignatureDigest returns the stable digest of the signature, as stored
// in the drift registry.
func (s *Selector) SignatureDigest() digest.Digest {
	return digest.FromString(s.signature)
}

// matchEntries reports whether the path matches any entry of the role.
// Presence of any match is sufficient; there is no specificity ranking
// between entries.
func matchEntries(e Entries, p string) bool {
	for _, pattern := range e.Globs {
		if pattern != Sentinel && globMatch(pattern, p) {
			return true
		}
	}
	for _, f := range e.Files {
		if f == p {
			return true
		}
	}
	for _, d := range e.Dirs {
		if matchDir(d, p) {
			return true
		}
	}
	base := path.Base(p)
	for _, prefix := range e.Prefixes {
		if prefix != "" && strings.HasPrefix(base, prefix) {
			return true
		}
	}
	for _, suffix := range e.Suffixes {
		if matchSuffix(suffix, p) {
			return true
		}
	}
	return false
}

// matchDir matches a directory prefix at `/` boundaries: the path is
// the directory itself or anything under it.
func matchDir(dir, p string) bool {
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		return false
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// matchSuffix matches a suffix at an extension or path-component
// boundary. A suffix starting with a dot behaves like an extension
// match; otherwise the character before the suffix must be a boundary.
func matchSuffix(suffix, p string) bool {
	if suffix == "" || !strings.HasSuffix(p, suffix) {
		return false
	}
	if strings.HasPrefix(suffix, ".") {
		return true
	}
	if len(p) == len(suffix) {
		return true
	}
	switch p[len(p)-len(suffix)-1] {
	case '/', '.', '_', '-':
		return true
	}
	return false
}
