package registry

import (
	"fmt"
	"sort"

	"github.com/opencontainers/go-digest"
)

// Kind identifies which artifact drifted.
type Kind string

const (
	// KindDescriptor is a descriptor prose mismatch.
	KindDescriptor Kind = "descriptor"
	// KindSource is an implementation source mismatch.
	KindSource Kind = "source"
	// KindSelector is a selector signature mismatch.
	KindSelector Kind = "selector"
)

// Drift is one unacknowledged divergence between the stored registry
// entry and the current artifact for a policy id.
type Drift struct {
	PolicyID string
	Kind     Kind
	Stored   digest.Digest
	Current  digest.Digest
}

// Message formats the drift for a violation.
func (d Drift) Message() string {
	return fmt.Sprintf("%s drift: documented state %s no longer matches current %s; run sync to acknowledge",
		d.Kind, shortDigest(d.Stored), shortDigest(d.Current))
}

// shortDigest abbreviates a digest for messages. Registry files are
// plain YAML and can be hand-edited, so the stored value may not be a
// parseable digest at all; render those as-is instead of panicking.
func shortDigest(d digest.Digest) string {
	if d == "" {
		return "(none)"
	}
	s := string(d)
	if err := d.Validate(); err == nil {
		s = d.Encoded()
	}
	if len(s) > 12 {
		s = s[:12]
	}
	return s
}

// Compare reports every drift between the stored state and the current
// snapshot. Ids without a stored entry are not drift (the first
// evaluation seeds them); an acknowledged descriptor edit suppresses
// descriptor drift for that id only. Results are ordered by policy id,
// then by artifact kind.
func Compare(state *State, snap Snapshot) []Drift {
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var drifts []Drift
	for _, id := range ids {
		entry, ok := state.Policies[id]
		if !ok {
			continue
		}
		art := snap[id]

		if entry.Descriptor != art.Descriptor && !art.Acknowledged {
			drifts = append(drifts, Drift{PolicyID: id, Kind: KindDescriptor, Stored: entry.Descriptor, Current: art.Descriptor})
		}
		if entry.Source != art.Source {
			drifts = append(drifts, Drift{PolicyID: id, Kind: KindSource, Stored: entry.Source, Current: art.Source})
		}
		if entry.Selector != art.Selector {
			drifts = append(drifts, Drift{PolicyID: id, Kind: KindSelector, Stored: entry.Selector, Current: art.Selector})
		}
	}
	return drifts
}
