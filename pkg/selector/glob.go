package selector

import (
	"fmt"
	"path"
	"strings"
)

// validateGlob checks a glob pattern for per-segment syntax errors.
// `**` segments are always valid; every other segment must satisfy
// path.Match syntax.
func validateGlob(pattern string) error {
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "**" {
			continue
		}
		if _, err := path.Match(seg, "probe"); err != nil {
			return fmt.Errorf("malformed glob %q: %w", pattern, err)
		}
	}
	return nil
}

// globMatch matches a slash-separated relative path against a glob
// pattern. `*` matches exactly one path segment, `**` matches any
// number of segments (including none). A pattern without a slash
// matches against the base name only.
func globMatch(pattern, p string) bool {
	if !strings.Contains(pattern, "/") {
		ok, err := path.Match(pattern, path.Base(p))
		return err == nil && ok
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(p, "/"))
}

// matchSegments matches pattern segments against path segments with
// `**` expansion.
func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	if pattern[0] == "**" {
		// `**` absorbs zero segments first, then one at a time.
		if matchSegments(pattern[1:], segs) {
			return true
		}
		if len(segs) > 0 {
			return matchSegments(pattern, segs[1:])
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segs[1:])
}
