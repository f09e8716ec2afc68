package descriptor

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
)

// coreCharter is the charter document shipped with the engine. It
// documents every builtin policy; repository charter documents may
// override any of its descriptors by reusing the same id.
//
//go:embed core_charter.md
var coreCharter []byte

// Source is one charter document to load descriptors from.
type Source struct {
	// Name is the document path used in error locations.
	Name string
	// Origin is the layer the document belongs to.
	Origin Origin
	// Content is the raw document text.
	Content []byte
}

// CoreSource returns the embedded core charter document.
func CoreSource() Source {
	return Source{Name: "core:charter.md", Origin: OriginCore, Content: coreCharter}
}

// FileSource reads a repository charter document from disk.
func FileSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read charter document %q: %w", path, err)
	}
	return Source{Name: path, Origin: OriginCustom, Content: data}, nil
}

// Store is the immutable descriptor snapshot for one run. Custom
// descriptors fully replace core descriptors sharing the same id; a
// duplicate id within one layer is a fatal parse error.
type Store struct {
	descriptors map[string]*Descriptor
}

// Load parses every source and assembles the descriptor snapshot.
// Sources are processed core first so that custom documents can
// override; two custom documents declaring the same id conflict.
func Load(sources []Source) (*Store, error) {
	errs := NewErrorList()
	byID := make(map[string]*Descriptor)

	// Track which ids each layer declared, for duplicate detection.
	seen := map[Origin]map[string]Location{
		OriginCore:   {},
		OriginCustom: {},
	}

	ordered := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Origin == OriginCore {
			ordered = append(ordered, s)
		}
	}
	for _, s := range sources {
		if s.Origin != OriginCore {
			ordered = append(ordered, s)
		}
	}

	for _, src := range ordered {
		descriptors, parseErrs := parseDocument(src.Name, src.Origin, src.Content)
		if parseErrs.HasErrors() {
			errs.Errors = append(errs.Errors, parseErrs.Errors...)
			continue
		}
		for _, d := range descriptors {
			if prev, dup := seen[d.Origin][d.ID]; dup {
				errs.Add(&Error{
					Type:       ErrorTypeDuplicate,
					Message:    fmt.Sprintf("policy %q is declared twice in the %s layer (first at %s)", d.ID, d.Origin, prev.String()),
					Location:   d.Location,
					Suggestion: "remove one of the blocks, or move the override into a custom charter document",
				})
				continue
			}
			seen[d.Origin][d.ID] = d.Location
			// A custom descriptor replaces a core one wholesale; there
			// is no field-level merging between the two layers.
			byID[d.ID] = d
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return &Store{descriptors: byID}, nil
}

// Get returns the descriptor for id.
func (s *Store) Get(id string) (*Descriptor, bool) {
	d, ok := s.descriptors[id]
	return d, ok
}

// Has reports whether id is described.
func (s *Store) Has(id string) bool {
	_, ok := s.descriptors[id]
	return ok
}

// IDs returns all descriptor ids in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.descriptors))
	for id := range s.descriptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every descriptor ordered by id.
func (s *Store) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(s.descriptors))
	for _, id := range s.IDs() {
		out = append(out, s.descriptors[id])
	}
	return out
}

// Len returns the number of descriptors in the snapshot.
func (s *Store) Len() int {
	return len(s.descriptors)
}
