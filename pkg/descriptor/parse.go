package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"
)

// blockFence opens a policy descriptor block inside a charter document.
const blockFence = "```policy"

// block is one extracted descriptor block before metadata decoding.
type block struct {
	meta      string // raw fence content (YAML key/value pairs)
	prose     string // free text following the closing fence
	startLine int    // 1-based line of the opening fence
}

// extractBlocks scans a charter document for ```policy fences. The text
// between the opening and closing fence is block metadata; everything
// after the closing fence up to the next policy fence or heading is the
// descriptor prose.
func extractBlocks(data []byte) []block {
	lines := strings.Split(string(data), "\n")
	var blocks []block

	for i := 0; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") != blockFence {
			continue
		}
		b := block{startLine: i + 1}

		// Metadata lines until the closing fence.
		var meta []string
		j := i + 1
		for ; j < len(lines); j++ {
			if strings.TrimRight(lines[j], " \t") == "```" {
				break
			}
			meta = append(meta, lines[j])
		}
		b.meta = strings.Join(meta, "\n")

		// Prose until the next policy fence or heading.
		var prose []string
		k := j + 1
		for ; k < len(lines); k++ {
			trimmed := strings.TrimRight(lines[k], " \t")
			if trimmed == blockFence || strings.HasPrefix(trimmed, "#") {
				break
			}
			prose = append(prose, lines[k])
		}
		b.prose = strings.TrimSpace(strings.Join(prose, "\n"))

		blocks = append(blocks, b)
		i = k - 1
	}

	return blocks
}

// parseDocument parses every descriptor block in one charter document.
// All problems are accumulated so the caller can report the complete
// list; any recorded error is fatal for the run.
func parseDocument(file string, origin Origin, data []byte) ([]*Descriptor, *ErrorList) {
	errs := NewErrorList()
	var descriptors []*Descriptor

	for _, b := range extractBlocks(data) {
		d, err := parseBlock(file, origin, b)
		if err != nil {
			errs.Add(err)
			continue
		}
		descriptors = append(descriptors, d)
	}

	return descriptors, errs
}

// parseBlock decodes one descriptor block into a Descriptor.
func parseBlock(file string, origin Origin, b block) (*Descriptor, *Error) {
	loc := Location{File: file, Line: b.startLine}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(b.meta), &root); err != nil {
		return nil, &Error{
			Type:       ErrorTypeSyntax,
			Message:    fmt.Sprintf("invalid descriptor metadata: %v", err),
			Location:   loc,
			Suggestion: "check YAML syntax inside the ```policy block (indentation, colons, quotes)",
		}
	}
	if len(root.Content) == 0 {
		return nil, &Error{
			Type:     ErrorTypeStructural,
			Message:  "descriptor block is empty",
			Location: loc,
		}
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, &Error{
			Type:       ErrorTypeStructural,
			Message:    "descriptor block must be a mapping of key: value pairs",
			Location:   Location{File: file, Line: b.startLine + mapping.Line},
			Suggestion: "each line should be `key: value`; list values go on indented `- item` lines",
		}
	}

	meta := make(Metadata)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valNode := mapping.Content[i+1]
		keyLoc := Location{File: file, Line: b.startLine + keyNode.Line, Column: keyNode.Column}

		if keyNode.Kind != yaml.ScalarNode {
			return nil, &Error{
				Type:     ErrorTypeStructural,
				Message:  "descriptor keys must be plain strings",
				Location: keyLoc,
			}
		}
		val, err := decodeValue(valNode)
		if err != nil {
			return nil, &Error{
				Type:       ErrorTypeStructural,
				Message:    fmt.Sprintf("invalid value for %q: %v", keyNode.Value, err),
				Location:   keyLoc,
				Suggestion: "values must be scalars or flat lists of scalars",
			}
		}
		if _, dup := meta[keyNode.Value]; dup {
			return nil, &Error{
				Type:     ErrorTypeStructural,
				Message:  fmt.Sprintf("duplicate key %q in descriptor block", keyNode.Value),
				Location: keyLoc,
			}
		}
		meta[keyNode.Value] = val
	}

	id, ok := meta.GetString("id")
	if !ok || id == "" {
		return nil, &Error{
			Type:       ErrorTypeStructural,
			Message:    "descriptor block is missing required key \"id\"",
			Location:   loc,
			Suggestion: "add `id: <policy-id>` as the first line of the block",
		}
	}
	delete(meta, "id")

	d := &Descriptor{
		ID:              id,
		Origin:          origin,
		EnabledDefault:  true,
		DefaultSeverity: SeverityWarning,
		Metadata:        meta,
		Prose:           b.prose,
		ProseDigest:     digest.FromString(b.prose),
		Location:        loc,
	}

	if s, ok := meta.GetString(KeyEnabled); ok {
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			return nil, &Error{
				Type:     ErrorTypeStructural,
				Message:  fmt.Sprintf("policy %q: enabled must be a boolean, got %q", id, s),
				Location: loc,
			}
		}
		d.EnabledDefault = enabled
	}
	if s, ok := meta.GetString(KeySeverity); ok {
		sev, err := ParseSeverity(s)
		if err != nil {
			return nil, &Error{
				Type:       ErrorTypeStructural,
				Message:    fmt.Sprintf("policy %q: %v", id, err),
				Location:   loc,
				Suggestion: "severity must be one of: error, warning, info",
			}
		}
		d.DefaultSeverity = sev
	}
	if b, ok := meta.GetBool(KeyFix); ok {
		d.FixCapable = b
	}
	if list, ok := meta.GetList(KeyProfiles); ok {
		d.Profiles = list
	}
	if s, ok := meta.GetString(KeyReplacedBy); ok {
		d.ReplacedBy = s
	}
	if b, ok := meta.GetBool(KeyDriftAcknowledged); ok {
		d.DriftAcknowledged = b
	}

	return d, nil
}

// decodeValue converts a YAML node into a metadata Value. Only scalars
// and flat sequences of scalars are allowed inside descriptor blocks.
func decodeValue(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return String(n.Value), nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("nested structures are not supported")
			}
			items = append(items, item.Value)
		}
		return Strings(items...), nil
	default:
		return Value{}, fmt.Errorf("nested structures are not supported")
	}
}
