package resolve

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/selector"
)

// appendMarker on an overlay key declares append intent for list
// values. Plain keys always replace, never silently concatenate.
const appendMarker = "+"

// Policy is one fully resolved policy: merged metadata, the final
// activation state, the effective severity and the compiled selector.
// Consumers treat resolved policies as read-only.
type Policy struct {
	// ID is the policy id.
	ID string

	// Descriptor is the descriptor the policy was resolved from.
	Descriptor *descriptor.Descriptor

	// Metadata is the merged metadata bag after the full override
	// chain and legacy-key normalization.
	Metadata descriptor.Metadata

	// Active is the final enabled state.
	Active bool

	// Severity is the effective severity after overrides.
	Severity descriptor.Severity

	// FixCapable is the effective fix capability after overrides.
	FixCapable bool

	// Selector is the compiled selector; nil when compilation failed.
	Selector *selector.Selector

	// SelectorErr records a selector compile failure scoped to this
	// policy. The policy still appears in the resolved set so the
	// evaluator can report it at error severity.
	SelectorErr error
}

// Tier is one ordered config override tier: policy id to metadata
// overlay. The generated tier applies before the user tier.
type Tier map[string]map[string]any

// Input carries everything the resolver needs besides the descriptor
// store.
type Input struct {
	// Profiles are the active profile overlays in activation order.
	Profiles []*Overlay

	// Generated is the generated/auto config override tier.
	Generated Tier

	// User is the user config override tier. User overrides always win
	// on key collision.
	User Tier

	// Toggles is the config enabled-state map. A toggle entry wins
	// over any merged `enabled` metadata key.
	Toggles map[string]bool
}

// Result is the output of one resolution pass.
type Result struct {
	// Policies holds the resolved policies ordered by id.
	Policies []*Policy

	// Notices reports overlay or override entries that reference
	// unknown policy ids. Such entries are skipped, not fatal.
	Notices []string
}

// Get returns the resolved policy for id.
func (r *Result) Get(id string) (*Policy, bool) {
	for _, p := range r.Policies {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Resolver produces resolved policies from a descriptor snapshot.
type Resolver struct {
	store  *descriptor.Store
	logger *slog.Logger
}

// New creates a resolver over the given descriptor store.
func New(store *descriptor.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  store,
		logger: logger.With("component", "policy.resolve"),
	}
}

// Resolve runs the full merge chain for every descriptor and returns
// the resolved policy set ordered by id.
func (r *Resolver) Resolve(in Input) *Result {
	result := &Result{}
	result.Notices = append(result.Notices, r.unknownIDNotices(in)...)

	activeNames := make([]string, 0, len(in.Profiles))
	for _, p := range in.Profiles {
		activeNames = append(activeNames, p.Name)
	}

	for _, d := range r.store.All() {
		p := r.resolveOne(d, in, activeNames)
		result.Policies = append(result.Policies, p)
	}

	return result
}

// resolveOne merges one descriptor through the override chain.
func (r *Resolver) resolveOne(d *descriptor.Descriptor, in Input, activeProfiles []string) *Policy {
	meta := d.Metadata.Clone()

	// Profile overlays in activation order. Each profile contributes
	// its selector scoping defaults first, then its per-policy
	// overlay, so the per-policy keys win within one profile.
	for _, profile := range in.Profiles {
		mergeOverlay(meta, tierOverlay(profile.SelectorDefaults))
		if overlay, ok := profile.Policies[d.ID]; ok {
			mergeOverlay(meta, tierOverlay(overlay))
		}
	}

	// Config tiers: generated first, user last. User overrides always
	// win on key collision.
	mergeOverlay(meta, tierOverlay(in.Generated[d.ID]))
	mergeOverlay(meta, tierOverlay(in.User[d.ID]))

	normalizeLegacyKeys(meta)

	p := &Policy{
		ID:         d.ID,
		Descriptor: d,
		Metadata:   meta,
		Severity:   d.DefaultSeverity,
		FixCapable: d.FixCapable,
	}

	if s, ok := meta.GetString(descriptor.KeySeverity); ok {
		if sev, err := descriptor.ParseSeverity(s); err == nil {
			p.Severity = sev
		}
	}
	if b, ok := meta.GetBool(descriptor.KeyFix); ok {
		p.FixCapable = b
	}

	// Activation resolves last so normalization cannot reset it: a
	// config toggle wins, then the merged enabled key, then the
	// descriptor default. A descriptor scoped to inactive profiles is
	// never active.
	switch {
	case !d.InProfile(activeProfiles):
		p.Active = false
	default:
		if toggle, ok := in.Toggles[d.ID]; ok {
			p.Active = toggle
		} else if enabled, ok := meta.GetBool(descriptor.KeyEnabled); ok {
			p.Active = enabled
		} else {
			p.Active = d.EnabledDefault
		}
	}

	sel, err := selector.Compile(selector.FromMetadata(meta))
	if err != nil {
		p.SelectorErr = err
		r.logger.Warn("selector compilation failed",
			"policy_id", d.ID,
			"error", err,
		)
	} else {
		p.Selector = sel
	}

	return p
}

// unknownIDNotices reports overlay and override entries whose ids have
// no descriptor. They cannot be resolved to an implementation, so they
// are skipped for the run.
func (r *Resolver) unknownIDNotices(in Input) []string {
	var notices []string

	for _, profile := range in.Profiles {
		for _, id := range sortedKeys(profile.Policies) {
			if !r.store.Has(id) {
				notices = append(notices, fmt.Sprintf("profile %q overrides unknown policy %q", profile.Name, id))
			}
		}
	}
	for _, tier := range []struct {
		name string
		tier Tier
	}{
		{"generated", in.Generated},
		{"user", in.User},
	} {
		for _, id := range sortedKeys(tier.tier) {
			if !r.store.Has(id) {
				notices = append(notices, fmt.Sprintf("%s override references unknown policy %q", tier.name, id))
			}
		}
	}
	for _, id := range sortedKeys(in.Toggles) {
		if !r.store.Has(id) {
			notices = append(notices, fmt.Sprintf("enabled toggle references unknown policy %q", id))
		}
	}

	return notices
}

// mergeOverlay applies one overlay onto the metadata bag. Merging is
// per key, later wins; a whole record is never replaced. Keys carrying
// the append marker extend an existing list instead of replacing it.
func mergeOverlay(meta descriptor.Metadata, overlay descriptor.Metadata) {
	for _, key := range overlay.Keys() {
		val := overlay[key]
		if strings.HasSuffix(key, appendMarker) {
			target := strings.TrimSuffix(key, appendMarker)
			existing := meta[target]
			meta[target] = descriptor.Strings(append(existing.AsList(), val.AsList()...)...)
			continue
		}
		meta[key] = val
	}
}

// tierOverlay converts one config tier entry into a metadata overlay.
func tierOverlay(entry map[string]any) descriptor.Metadata {
	if len(entry) == 0 {
		return nil
	}
	meta := make(descriptor.Metadata, len(entry))
	for k, v := range entry {
		meta[k] = valueFrom(v)
	}
	return meta
}

// valueFrom converts a decoded YAML value into a metadata Value.
// Scalars of any YAML type become strings; sequences become string
// lists.
func valueFrom(v any) descriptor.Value {
	switch val := v.(type) {
	case string:
		return descriptor.String(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
		return descriptor.Strings(items...)
	case []string:
		return descriptor.Strings(val...)
	case nil:
		return descriptor.String("")
	default:
		return descriptor.String(fmt.Sprint(val))
	}
}

// legacyGlobs converts legacy prefix and suffix entries into the glob
// form used by the role triplet.
func legacyGlobs(prefixes, suffixes []string) []string {
	var globs []string
	for _, p := range prefixes {
		if p != "" {
			globs = append(globs, "**/"+p+"*")
		}
	}
	for _, s := range suffixes {
		if s != "" {
			globs = append(globs, "**/*"+s)
		}
	}
	return globs
}

// normalizeLegacyKeys fills role-triplet gaps from legacy flat selector
// keys. Normalization only fills gaps: a triplet key already present is
// never overwritten, and the legacy keys themselves are preserved so a
// normalization pass stays metadata-value-preserving.
func normalizeLegacyKeys(meta descriptor.Metadata) {
	for _, role := range []string{selector.RoleInclude, selector.RoleExclude, selector.RoleForceInclude} {
		if _, ok := meta[role+"_globs"]; ok {
			continue
		}
		prefixes, _ := meta.GetList(role + "_prefixes")
		suffixes, _ := meta.GetList(role + "_suffixes")
		if globs := legacyGlobs(prefixes, suffixes); len(globs) > 0 {
			meta[role+"_globs"] = descriptor.Strings(globs...)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
