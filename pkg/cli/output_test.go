package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/engine"
)

func sampleReport() *engine.Report {
	return &engine.Report{
		Violations: []engine.Violation{
			{PolicyID: "line-length-limit", Path: "main.go", Message: "line 3 exceeds 79 characters", Severity: descriptor.SeverityWarning},
			{PolicyID: "forbidden-pattern", Path: "main.go", Message: "forbidden pattern found", Severity: descriptor.SeverityError},
		},
		Evaluated: 4,
		Skipped:   1,
		Fixed:     2,
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "[warning] line-length-limit main.go: line 3 exceeds 79 characters") {
		t.Errorf("violation line missing:\n%s", out)
	}
	if !strings.Contains(out, "4 policies evaluated, 1 skipped: 1 errors, 1 warnings, 0 infos") {
		t.Errorf("summary line missing:\n%s", out)
	}
	if !strings.Contains(out, "2 files fixed") {
		t.Errorf("fixed count missing:\n%s", out)
	}
}

func TestTextFormatterRendersReports(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).FormatTo(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "policies evaluated") {
		t.Errorf("text formatter must use the report rendering:\n%s", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{Indent: true}).FormatTo(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var decoded engine.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Violations) != 2 || decoded.Evaluated != 4 {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("text"); err != nil {
		t.Errorf("text must parse: %v", err)
	}
	if _, err := ParseFormat("json"); err != nil {
		t.Errorf("json must parse: %v", err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("unknown formats must be rejected")
	}
}

func TestWriteNotices(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNotices(&buf, []string{"first", "second"}); err != nil {
		t.Fatal(err)
	}
	want := "note: first\nnote: second\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
