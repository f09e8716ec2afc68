package charter

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"charter-hq/charter/pkg/checks"
	"charter-hq/charter/pkg/config"
	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/replace"
	"charter-hq/charter/pkg/policy/resolve"
	"charter-hq/charter/pkg/registry"
)

// Session is one loaded pipeline state: the descriptor snapshot, the
// active overlays, the implementation catalog after replacement
// migration, and the resolved policy set. Sessions are cheap to build
// and rebuilt per run, so watch mode always evaluates fresh documents.
type Session struct {
	// Store is the loaded descriptor snapshot.
	Store *descriptor.Store

	// Overlays are the active profile overlays in activation order.
	Overlays []*resolve.Overlay

	// Catalog is the implementation catalog after replacement
	// migration.
	Catalog *checks.Catalog

	// Migration records what the replacement migration did.
	Migration *replace.Result

	// Resolution is the resolved policy set.
	Resolution *resolve.Result

	// Notices aggregates toggle normalization, migration and
	// resolution notices, in that order.
	Notices []string
}

// openSession loads documents, overlays and checks and resolves the
// policy set for one run.
func openSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	root := cfg.Repository.Root

	sources := []descriptor.Source{descriptor.CoreSource()}
	for _, doc := range cfg.Charter.Documents {
		src, err := descriptor.FileSource(resolvePath(root, doc))
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	store, err := descriptor.Load(sources)
	if err != nil {
		return nil, fmt.Errorf("failed to load charter documents: %w", err)
	}

	overlays, err := resolve.LoadProfiles(resolvePath(root, cfg.Profiles.Dir), cfg.Profiles.Active)
	if err != nil {
		return nil, err
	}

	catalog, err := checks.Load(store, resolvePath(root, cfg.Charter.ChecksDir), logger)
	if err != nil {
		return nil, err
	}

	toggles, toggleNotices := resolve.NormalizeToggles(store, cfg.Policies.Enabled)
	migration := replace.Migrate(store, toggles, catalog)

	resolution := resolve.New(store, logger).Resolve(resolve.Input{
		Profiles:  overlays,
		Generated: resolve.Tier(cfg.Policies.Generated),
		User:      resolve.Tier(cfg.Policies.Overrides),
		Toggles:   migration.Toggles,
	})

	sess := &Session{
		Store:      store,
		Overlays:   overlays,
		Catalog:    catalog,
		Migration:  migration,
		Resolution: resolution,
	}
	sess.Notices = append(sess.Notices, toggleNotices...)
	sess.Notices = append(sess.Notices, migration.Notices...)
	sess.Notices = append(sess.Notices, resolution.Notices...)
	return sess, nil
}

// Artifacts computes the current digest snapshot for the drift
// registry: one artifact per policy that has both an implementation
// and a compiled selector. Policies whose selector failed to compile
// are excluded; their failure is already reported as a violation.
func (s *Session) Artifacts() registry.Snapshot {
	snap := make(registry.Snapshot, len(s.Resolution.Policies))
	for _, p := range s.Resolution.Policies {
		impl, ok := s.Catalog.Lookup(p.ID)
		if !ok || p.Selector == nil {
			continue
		}
		snap[p.ID] = registry.Artifact{
			Descriptor:   p.Descriptor.ProseDigest,
			Source:       digest.FromString(impl.Source()),
			Selector:     p.Selector.SignatureDigest(),
			Acknowledged: p.Descriptor.DriftAcknowledged,
		}
	}
	return snap
}

// ActiveCount returns the number of active resolved policies.
func (s *Session) ActiveCount() int {
	n := 0
	for _, p := range s.Resolution.Policies {
		if p.Active {
			n++
		}
	}
	return n
}

// resolvePath anchors a relative config path at the repository root.
func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
