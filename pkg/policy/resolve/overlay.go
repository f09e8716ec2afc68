package resolve

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// overlaySchema is the JSON schema every profile overlay document must
// satisfy before decoding. Validating up front turns shape mistakes
// into one clear error instead of a cascade of merge surprises.
//
//go:embed overlay_schema.json
var overlaySchema []byte

// Overlay is one profile's contribution to resolution: the profile's
// own selector scoping defaults plus per-policy metadata overlays.
type Overlay struct {
	// Name is the profile name.
	Name string

	// SelectorDefaults is applied to every policy's metadata before
	// the profile's per-policy overlay.
	SelectorDefaults map[string]any

	// Policies maps policy ids to metadata overlays.
	Policies map[string]map[string]any
}

// overlayDocument is the YAML shape of a profile overlay file.
type overlayDocument struct {
	Name     string                    `yaml:"name"`
	Selector map[string]any            `yaml:"selector"`
	Policies map[string]map[string]any `yaml:"policies"`
}

// LoadOverlay reads and validates one profile overlay document.
func LoadOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile overlay %q: %w", path, err)
	}
	return ParseOverlay(data, path)
}

// ParseOverlay validates overlay bytes against the embedded schema and
// decodes them.
func ParseOverlay(data []byte, source string) (*Overlay, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse profile overlay %q: %w", source, err)
	}

	if err := validateOverlaySchema(raw); err != nil {
		return nil, fmt.Errorf("profile overlay %q failed schema validation: %w", source, err)
	}

	var doc overlayDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile overlay %q: %w", source, err)
	}

	overlay := &Overlay{
		Name:     doc.Name,
		Policies: doc.Policies,
	}
	if doc.Selector != nil {
		overlay.SelectorDefaults = doc.Selector
	}
	return overlay, nil
}

// LoadProfiles loads the overlay document of every active profile from
// dir, in activation order. A missing overlay file is fatal: an active
// profile that cannot be loaded would silently change resolution.
func LoadProfiles(dir string, active []string) ([]*Overlay, error) {
	overlays := make([]*Overlay, 0, len(active))
	for _, name := range active {
		path := filepath.Join(dir, name+".yaml")
		overlay, err := LoadOverlay(path)
		if err != nil {
			return nil, fmt.Errorf("active profile %q: %w", name, err)
		}
		if overlay.Name != name {
			return nil, fmt.Errorf("profile overlay %q declares name %q, expected %q", path, overlay.Name, name)
		}
		overlays = append(overlays, overlay)
	}
	return overlays, nil
}

// validateOverlaySchema validates a decoded overlay document against
// the embedded JSON schema. The value is round-tripped through JSON so
// the validator sees canonical JSON types.
func validateOverlaySchema(value any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inmemory://overlay-schema", bytes.NewReader(overlaySchema)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("inmemory://overlay-schema")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	payload, err := normalizeValue(value)
	if err != nil {
		return err
	}
	return compiled.Validate(payload)
}

// normalizeValue converts a YAML-decoded value into JSON-decoded types.
func normalizeValue(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}
	return out, nil
}
