package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeLintConfig(t *testing.T, root string, documents []string) {
	t.Helper()
	cfg := fmt.Sprintf("repository:\n  root: %q\ncharter:\n  documents:\n", root)
	for _, doc := range documents {
		cfg += fmt.Sprintf("    - %q\n", doc)
	}
	cfgPath := filepath.Join(root, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	prev := cfgFile
	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = prev })
}

func TestRunLintValidDocument(t *testing.T) {
	root := t.TempDir()
	doc := "```policy\n" +
		"id: local-rule\n" +
		"severity: info\n" +
		"```\n" +
		"A local policy.\n"
	if err := os.WriteFile(filepath.Join(root, "CHARTER.md"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	writeLintConfig(t, root, []string{"CHARTER.md"})
	lintFlags.format = "text"

	if err := runLint(nil, nil); err != nil {
		t.Errorf("runLint() with valid document returned error: %v", err)
	}
}

func TestRunLintInvalidDocument(t *testing.T) {
	root := t.TempDir()
	// Block without an id is a structural error.
	doc := "```policy\n" +
		"severity: info\n" +
		"```\n" +
		"Broken.\n"
	if err := os.WriteFile(filepath.Join(root, "CHARTER.md"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	writeLintConfig(t, root, []string{"CHARTER.md"})
	lintFlags.format = "text"

	if err := runLint(nil, nil); err == nil {
		t.Error("runLint() with invalid document should return error")
	}
}

func TestRunLintMissingDocument(t *testing.T) {
	root := t.TempDir()
	writeLintConfig(t, root, []string{"no-such.md"})
	lintFlags.format = "text"

	if err := runLint(nil, nil); err == nil {
		t.Error("runLint() with missing document should return error")
	}
}

func TestRunLintJSONFormat(t *testing.T) {
	root := t.TempDir()
	writeLintConfig(t, root, nil)
	lintFlags.format = "json"
	defer func() { lintFlags.format = "text" }()

	if err := runLint(nil, nil); err != nil {
		t.Errorf("runLint() with JSON format returned error: %v", err)
	}
}
