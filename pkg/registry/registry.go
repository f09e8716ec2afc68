package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"
)

// stateVersion is the registry document format version.
const stateVersion = 1

// Entry is the persisted record for one policy id: the three digests
// from the last sync plus its timestamp.
type Entry struct {
	// Descriptor is the digest of the descriptor prose text.
	Descriptor digest.Digest `yaml:"descriptor"`

	// Source is the digest of the implementation source.
	Source digest.Digest `yaml:"source"`

	// Selector is the digest of the canonical selector signature.
	Selector digest.Digest `yaml:"selector"`

	// SyncedAt records when the entry was last synced.
	SyncedAt time.Time `yaml:"synced_at"`
}

// State is the registry document, keyed by policy id.
type State struct {
	Version  int              `yaml:"version"`
	Policies map[string]Entry `yaml:"policies"`
}

// NewState creates an empty registry state.
func NewState() *State {
	return &State{
		Version:  stateVersion,
		Policies: make(map[string]Entry),
	}
}

// IDs returns the registered ids in sorted order.
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.Policies))
	for id := range s.Policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Artifact carries the current digests for one policy id, computed
// fresh each run from the loaded descriptor, catalog and selector.
type Artifact struct {
	Descriptor digest.Digest
	Source     digest.Digest
	Selector   digest.Digest

	// Acknowledged marks a deliberate descriptor edit: descriptor
	// drift is not reported for acknowledged policies.
	Acknowledged bool
}

// Snapshot maps policy ids to their current artifacts.
type Snapshot map[string]Artifact

// Store owns registry persistence. It is the only component permitted
// to write the registry file. The store is an explicit value passed to
// every caller that needs it, so tests can point it at a temp path.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store over the registry file path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger.With("component", "registry"),
	}
}

// Load reads the registry state. A missing file yields an empty state:
// the first run of a repository starts from nothing.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, newError("load", s.path, err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, newError("decode", s.path, err)
	}
	if state.Version != stateVersion {
		return nil, newError("decode", s.path,
			fmt.Errorf("unsupported registry version %d (expected %d)", state.Version, stateVersion))
	}
	if state.Policies == nil {
		state.Policies = make(map[string]Entry)
	}
	for id, entry := range state.Policies {
		for _, d := range []digest.Digest{entry.Descriptor, entry.Source, entry.Selector} {
			if err := d.Validate(); err != nil {
				s.logger.Warn("registry entry holds a malformed digest; it will compare as drift",
					"policy", id, "digest", string(d))
				break
			}
		}
	}
	return &state, nil
}

// Save persists the registry state atomically: the document is written
// to a temp file in the same directory and renamed over the target.
func (s *Store) Save(state *State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return newError("encode", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newError("save", s.path, err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return newError("save", s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return newError("save", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return newError("save", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return newError("save", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return newError("save", s.path, err)
	}

	s.logger.Debug("registry saved", "path", s.path, "policies", len(state.Policies))
	return nil
}

// Seed creates entries for ids that have no registry record yet,
// using their current artifacts. First evaluation of an id creates its
// entry; only an explicit sync updates existing ones. Returns the
// seeded ids in sorted order.
func (s *State) Seed(snap Snapshot, now time.Time) []string {
	var seeded []string
	for id, art := range snap {
		if _, ok := s.Policies[id]; ok {
			continue
		}
		s.Policies[id] = Entry{
			Descriptor: art.Descriptor,
			Source:     art.Source,
			Selector:   art.Selector,
			SyncedAt:   now,
		}
		seeded = append(seeded, id)
	}
	sort.Strings(seeded)
	return seeded
}

// Sync recomputes every entry from the current snapshot and prunes
// entries whose ids are no longer known, in one pass over the state.
// It returns the sorted set of ids whose records changed, including
// pruned ids. Sync is idempotent: a second sync against the same
// snapshot changes nothing.
func (s *State) Sync(snap Snapshot, now time.Time) []string {
	changed := make(map[string]bool)

	for id, art := range snap {
		entry, ok := s.Policies[id]
		if !ok || entry.Descriptor != art.Descriptor || entry.Source != art.Source || entry.Selector != art.Selector {
			changed[id] = true
			s.Policies[id] = Entry{
				Descriptor: art.Descriptor,
				Source:     art.Source,
				Selector:   art.Selector,
				SyncedAt:   now,
			}
		}
	}

	for id := range s.Policies {
		if _, ok := snap[id]; !ok {
			delete(s.Policies, id)
			changed[id] = true
		}
	}

	ids := make([]string, 0, len(changed))
	for id := range changed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
