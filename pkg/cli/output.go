package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"charter-hq/charter/pkg/policy/engine"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, FormatJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// FormatTo writes data to writer in text format. Violation reports get
// a dedicated rendering; everything else prints via fmt.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	if report, ok := data.(*engine.Report); ok {
		return WriteReport(w, report)
	}
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TextFormatter{}
	}
}

// WriteReport renders an evaluation report as human-readable text: one
// line per violation, then a summary line.
func WriteReport(w io.Writer, report *engine.Report) error {
	for _, v := range report.Violations {
		if _, err := fmt.Fprintln(w, v.String()); err != nil {
			return err
		}
	}

	errors, warnings, infos := report.Counts()
	_, err := fmt.Fprintf(w, "%d policies evaluated, %d skipped: %d errors, %d warnings, %d infos",
		report.Evaluated, report.Skipped, errors, warnings, infos)
	if err != nil {
		return err
	}
	if report.Fixed > 0 {
		if _, err := fmt.Fprintf(w, ", %d files fixed", report.Fixed); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}

// WriteNotices prints resolver or migration notices, one per line,
// prefixed so they are distinguishable from violations.
func WriteNotices(w io.Writer, notices []string) error {
	for _, n := range notices {
		if _, err := fmt.Fprintf(w, "note: %s\n", n); err != nil {
			return err
		}
	}
	return nil
}
