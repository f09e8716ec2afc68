package descriptor

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/opencontainers/go-digest"
)

// Origin identifies which layer a descriptor was loaded from.
type Origin string

const (
	// OriginCore marks descriptors from the embedded core charter.
	OriginCore Origin = "core"
	// OriginCustom marks descriptors from repository charter documents.
	OriginCustom Origin = "custom"
)

// Severity classifies how a violation of a policy affects the run outcome.
type Severity string

const (
	// SeverityError blocks the run (non-zero exit).
	SeverityError Severity = "error"
	// SeverityWarning is reported but does not block.
	SeverityWarning Severity = "warning"
	// SeverityInfo is reported for visibility only.
	SeverityInfo Severity = "info"
)

// ParseSeverity parses a severity string. The empty string defaults to
// SeverityWarning.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "error":
		return SeverityError, nil
	case "warning", "warn", "":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	default:
		return SeverityWarning, fmt.Errorf("unknown severity: %s", s)
	}
}

// Known metadata keys. Any key not listed here travels through the open
// metadata bag untouched; the resolver treats known and custom keys the
// same way during merging.
const (
	KeyEnabled           = "enabled"
	KeySeverity          = "severity"
	KeyFix               = "fix"
	KeyProfiles          = "profiles"
	KeyReplacedBy        = "replaced_by"
	KeyDriftAcknowledged = "drift_acknowledged"
)

// Value is a single metadata value: either a scalar string or a list of
// strings. Known keys keep their typed accessors on Descriptor; custom
// keys remain extensible through the bag.
type Value struct {
	// Scalar holds the value when IsList is false.
	Scalar string
	// List holds the value when IsList is true.
	List []string
	// IsList distinguishes list values from scalars.
	IsList bool
}

// String constructs a scalar Value.
func String(s string) Value {
	return Value{Scalar: s}
}

// Strings constructs a list Value.
func Strings(items ...string) Value {
	return Value{List: items, IsList: true}
}

// AsList returns the value as a string slice. Scalars become a
// single-element slice; the empty scalar becomes an empty slice.
func (v Value) AsList() []string {
	if v.IsList {
		return v.List
	}
	if v.Scalar == "" {
		return nil
	}
	return []string{v.Scalar}
}

// Equal reports whether two values are identical.
func (v Value) Equal(o Value) bool {
	if v.IsList != o.IsList {
		return false
	}
	if !v.IsList {
		return v.Scalar == o.Scalar
	}
	if len(v.List) != len(o.List) {
		return false
	}
	for i := range v.List {
		if v.List[i] != o.List[i] {
			return false
		}
	}
	return true
}

// Metadata is the open metadata bag attached to a descriptor or a
// resolved policy.
type Metadata map[string]Value

// Clone returns a deep copy of the metadata bag.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if v.IsList {
			list := make([]string, len(v.List))
			copy(list, v.List)
			v.List = list
		}
		out[k] = v
	}
	return out
}

// GetString returns the scalar value for key. List values report false.
func (m Metadata) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v.IsList {
		return "", false
	}
	return v.Scalar, true
}

// GetList returns the value for key as a list. Scalars are promoted to
// single-element lists.
func (m Metadata) GetList(key string) ([]string, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return v.AsList(), true
}

// GetBool parses the scalar value for key as a boolean.
func (m Metadata) GetBool(key string) (bool, bool) {
	s, ok := m.GetString(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return b, true
}

// GetInt parses the scalar value for key as an integer.
func (m Metadata) GetInt(key string) (int, bool) {
	s, ok := m.GetString(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Descriptor is one policy descriptor: parsed block metadata plus the
// prose that documents the rule. Instances are immutable after loading.
type Descriptor struct {
	// ID is the unique, stable policy identifier.
	ID string

	// Origin records the layer the descriptor was loaded from.
	Origin Origin

	// EnabledDefault is the default activation state before any
	// overlay or config override is applied.
	EnabledDefault bool

	// DefaultSeverity is the descriptor-declared severity. Overlays and
	// overrides may still change the effective severity.
	DefaultSeverity Severity

	// FixCapable reports whether the policy declares an auto-fixer.
	FixCapable bool

	// Profiles lists the profile names this descriptor is scoped to.
	// An empty list means the policy applies under every profile.
	Profiles []string

	// ReplacedBy names the successor id when this policy is deprecated.
	ReplacedBy string

	// DriftAcknowledged marks a descriptor edit as intentional: the
	// drift registry will not report a prose mismatch for it.
	DriftAcknowledged bool

	// Metadata is the full metadata bag, including the known keys
	// above. The resolver merges this bag with overlays and overrides.
	Metadata Metadata

	// Prose is the free text following the descriptor block.
	Prose string

	// ProseDigest is the stable digest of Prose used by the drift
	// registry.
	ProseDigest digest.Digest

	// Location is where the descriptor block starts in its source
	// document.
	Location Location
}

// InProfile reports whether the descriptor is in scope for any of the
// given active profiles. Descriptors with no profile scoping are always
// in scope.
func (d *Descriptor) InProfile(active []string) bool {
	if len(d.Profiles) == 0 {
		return true
	}
	for _, p := range d.Profiles {
		for _, a := range active {
			if p == a {
				return true
			}
		}
	}
	return false
}
