package checks

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/engine"
)

// Catalog holds the resolved implementation per policy id. Resolution
// is performed once at load time: a script implementation found in the
// checks directory replaces the builtin of the same id wholesale.
type Catalog struct {
	impls      map[string]engine.Implementation
	deprecated map[string]bool
	logger     *slog.Logger
}

// Load builds the catalog from the builtin set plus the repository's
// checks directory. checksDir may be empty or absent; builtins alone
// then serve every id. Fix capability for scripts comes from the
// descriptor, since a script's abilities cannot be introspected.
func Load(store *descriptor.Store, checksDir string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		impls:      make(map[string]engine.Implementation),
		deprecated: make(map[string]bool),
		logger:     logger.With("component", "checks.catalog"),
	}

	for _, impl := range builtinImplementations() {
		c.impls[impl.ID()] = impl
	}

	if checksDir == "" {
		return c, nil
	}
	entries, err := os.ReadDir(checksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read checks directory %q: %w", checksDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		id := scriptID(entry.Name())
		path := filepath.Join(checksDir, entry.Name())

		canFix := false
		if d, ok := store.Get(id); ok {
			canFix = d.FixCapable
		}

		impl, err := newScript(id, path, canFix)
		if err != nil {
			return nil, err
		}
		if _, replaced := c.impls[id]; replaced {
			c.logger.Debug("custom implementation replaces builtin", "policy_id", id, "path", path)
		}
		c.impls[id] = impl
	}

	return c, nil
}

// Lookup returns the implementation for id.
func (c *Catalog) Lookup(id string) (engine.Implementation, bool) {
	impl, ok := c.impls[id]
	return impl, ok
}

// HasCustom reports whether a custom (script) implementation owns id.
func (c *Catalog) HasCustom(id string) bool {
	impl, ok := c.impls[id]
	return ok && impl.Origin() == descriptor.OriginCustom
}

// Relocate moves ownership of id's implementation to the custom layer
// and marks it deprecated, so a superseded id keeps a working check
// while callers migrate off it. Reports whether id had an
// implementation to relocate.
func (c *Catalog) Relocate(id string) bool {
	impl, ok := c.impls[id]
	if !ok {
		return false
	}
	c.impls[id] = relocatedImpl{impl}
	c.deprecated[id] = true
	c.logger.Debug("implementation relocated to custom layer", "policy_id", id)
	return true
}

// Remove drops id's implementation from the catalog. Reports whether
// an implementation existed.
func (c *Catalog) Remove(id string) bool {
	if _, ok := c.impls[id]; !ok {
		return false
	}
	delete(c.impls, id)
	delete(c.deprecated, id)
	return true
}

// Deprecated reports whether id's implementation was relocated to the
// custom layer by a replacement migration.
func (c *Catalog) Deprecated(id string) bool {
	return c.deprecated[id]
}

// relocatedImpl re-tags an implementation as custom-owned without
// changing its behavior.
type relocatedImpl struct {
	engine.Implementation
}

func (relocatedImpl) Origin() descriptor.Origin {
	return descriptor.OriginCustom
}

// IDs returns every implemented policy id in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.impls))
	for id := range c.impls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ScriptPath returns the conventional path of a custom implementation
// for id inside checksDir.
func ScriptPath(checksDir, id string) string {
	return filepath.Join(checksDir, id)
}

// scriptID derives the policy id from a checks-directory file name by
// stripping one extension, so both `my-rule` and `my-rule.sh` serve
// the id `my-rule`.
func scriptID(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
