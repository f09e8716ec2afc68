package selector

import (
	"fmt"
	"sort"
	"strings"

	"charter-hq/charter/pkg/descriptor"
)

// Sentinel is the special include entry meaning "match nothing". It
// administratively empties a policy's file scope without disabling the
// policy itself.
const Sentinel = "(none)"

// Role names as they appear in metadata keys.
const (
	RoleInclude      = "include"
	RoleExclude      = "exclude"
	RoleForceInclude = "force_include"
)

// Category names within a role.
var categories = []string{"globs", "files", "dirs", "prefixes", "suffixes"}

// Entries holds the five entry categories of one selector role.
type Entries struct {
	// Globs are path patterns; `*` matches one segment, `**` matches
	// any number of segments. A slashless glob matches the base name.
	Globs []string
	// Files are explicit relative paths matched exactly.
	Files []string
	// Dirs are directory prefixes matched at `/` boundaries.
	Dirs []string
	// Prefixes match the start of the final path component.
	Prefixes []string
	// Suffixes match at extension or path-component boundaries.
	Suffixes []string
}

// IsEmpty reports whether the role declares no entries at all.
func (e Entries) IsEmpty() bool {
	return len(e.Globs) == 0 && len(e.Files) == 0 && len(e.Dirs) == 0 &&
		len(e.Prefixes) == 0 && len(e.Suffixes) == 0
}

// hasSentinel reports whether any category contains the sentinel entry.
func (e Entries) hasSentinel() bool {
	for _, cat := range [][]string{e.Globs, e.Files, e.Dirs, e.Prefixes, e.Suffixes} {
		for _, entry := range cat {
			if entry == Sentinel {
				return true
			}
		}
	}
	return false
}

// category returns the named category slice.
func (e Entries) category(name string) []string {
	switch name {
	case "globs":
		return e.Globs
	case "files":
		return e.Files
	case "dirs":
		return e.Dirs
	case "prefixes":
		return e.Prefixes
	case "suffixes":
		return e.Suffixes
	}
	return nil
}

// setCategory replaces the named category slice.
func (e *Entries) setCategory(name string, items []string) {
	switch name {
	case "globs":
		e.Globs = items
	case "files":
		e.Files = items
	case "dirs":
		e.Dirs = items
	case "prefixes":
		e.Prefixes = items
	case "suffixes":
		e.Suffixes = items
	}
}

// Spec is a full selector specification: one Entries value per role.
type Spec struct {
	Include      Entries
	Exclude      Entries
	ForceInclude Entries
}

// FromMetadata extracts the selector spec from resolved policy
// metadata. Keys follow the `<role>_<category>` shape, for example
// include_globs, exclude_dirs, force_include_files.
func FromMetadata(m descriptor.Metadata) Spec {
	var spec Spec
	for _, role := range []struct {
		name    string
		entries *Entries
	}{
		{RoleInclude, &spec.Include},
		{RoleExclude, &spec.Exclude},
		{RoleForceInclude, &spec.ForceInclude},
	} {
		for _, cat := range categories {
			if items, ok := m.GetList(role.name + "_" + cat); ok {
				role.entries.setCategory(cat, items)
			}
		}
	}
	return spec
}

// Signature returns the canonical serialization of the spec. Entries
// are sorted per category so that equivalent specs always serialize
// identically; the drift registry hashes this string.
func (s Spec) Signature() string {
	var sb strings.Builder
	for _, role := range []struct {
		name    string
		entries Entries
	}{
		{RoleInclude, s.Include},
		{RoleExclude, s.Exclude},
		{RoleForceInclude, s.ForceInclude},
	} {
		sb.WriteString(role.name)
		sb.WriteString(":")
		for _, cat := range categories {
			items := append([]string(nil), role.entries.category(cat)...)
			sort.Strings(items)
			fmt.Fprintf(&sb, " %s=[%s]", cat, strings.Join(items, ","))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
