package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"charter-hq/charter/pkg/cli"
	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/resolve"
	"charter-hq/charter/pkg/selector"
)

var lintFlags struct {
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate charter documents and profile overlays",
	Long: `Validate the configured charter documents and profile overlays
without evaluating anything.

The lint command parses every charter document, checks descriptor
blocks for syntax and structural errors, detects duplicate ids, and
validates each active profile overlay against its schema.

Examples:
  # Lint the configured documents and profiles
  charter lint

  # JSON output for CI/CD
  charter lint --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the validation result for one document or overlay.
type LintResult struct {
	File   string      `json:"file"`
	Valid  bool        `json:"valid"`
	Errors []LintError `json:"errors,omitempty"`
}

// LintError is a single validation error.
type LintError struct {
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var results []LintResult
	root := cfg.Repository.Root

	// The whole document set loads together so cross-document duplicate
	// ids surface here, not at check time.
	sources := []descriptor.Source{descriptor.CoreSource()}
	var docPaths []string
	readable := true
	for _, doc := range cfg.Charter.Documents {
		path := doc
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		src, err := descriptor.FileSource(path)
		if err != nil {
			readable = false
			results = append(results, LintResult{
				File:   doc,
				Errors: []LintError{{Message: err.Error(), Type: string(descriptor.ErrorTypeIO)}},
			})
			continue
		}
		docPaths = append(docPaths, path)
		sources = append(sources, src)
	}

	if readable {
		docResults, store := lintDocuments(docPaths, sources)
		results = append(results, docResults...)
		// Dry-run selector compilation so malformed globs surface at
		// lint time, not at check time.
		if store != nil {
			for _, d := range store.All() {
				if _, err := selector.Compile(selector.FromMetadata(d.Metadata)); err != nil {
					results = append(results, LintResult{
						File: d.Location.String(),
						Errors: []LintError{{
							Line:    d.Location.Line,
							Message: fmt.Sprintf("policy %q: %v", d.ID, err),
							Type:    "selector",
						}},
					})
				}
			}
		}
	}

	for _, name := range cfg.Profiles.Active {
		path := filepath.Join(root, cfg.Profiles.Dir, name+".yaml")
		result := LintResult{File: path, Valid: true}
		if _, err := resolve.LoadOverlay(path); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, LintError{Message: err.Error()})
		}
		results = append(results, result)
	}

	if lintFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		printLintResults(results)
	}

	for _, r := range results {
		if !r.Valid {
			return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
		}
	}
	return nil
}

// lintDocuments loads all sources together and groups the errors by
// originating file. The loaded store is returned when loading
// succeeded.
func lintDocuments(documents []string, sources []descriptor.Source) ([]LintResult, *descriptor.Store) {
	byFile := make(map[string][]LintError)

	store, err := descriptor.Load(sources)
	if err != nil {
		var list *descriptor.ErrorList
		if errors.As(err, &list) {
			for _, e := range list.Errors {
				le := LintError{
					Line:       e.Location.Line,
					Column:     e.Location.Column,
					Message:    e.Message,
					Type:       string(e.Type),
					Suggestion: e.Suggestion,
				}
				byFile[e.Location.File] = append(byFile[e.Location.File], le)
			}
		} else {
			byFile[""] = append(byFile[""], LintError{Message: err.Error()})
		}
	}

	results := make([]LintResult, 0, len(documents))
	for _, doc := range documents {
		errs := byFile[doc]
		results = append(results, LintResult{File: doc, Valid: len(errs) == 0, Errors: errs})
		delete(byFile, doc)
	}
	// Errors not attributable to a configured document (the embedded
	// core charter, or missing locations) still need a row.
	for file, errs := range byFile {
		if file == "" {
			file = "(unknown)"
		}
		results = append(results, LintResult{File: file, Valid: false, Errors: errs})
	}
	return results, store
}

func printLintResults(results []LintResult) {
	totalErrors := 0
	for _, result := range results {
		fmt.Printf("Validating %s...\n", result.File)
		if result.Valid {
			fmt.Println("✓ Valid")
		}
		for _, e := range result.Errors {
			fmt.Printf("✗ Error: %s", e.Message)
			if e.Line > 0 {
				fmt.Printf(" (line %d", e.Line)
				if e.Column > 0 {
					fmt.Printf(", col %d", e.Column)
				}
				fmt.Print(")")
			}
			if e.Type != "" {
				fmt.Printf(" [%s]", e.Type)
			}
			fmt.Println()
			if e.Suggestion != "" {
				fmt.Printf("  suggestion: %s\n", e.Suggestion)
			}
			totalErrors++
		}
		fmt.Println()
	}
	fmt.Println("Summary:")
	fmt.Printf("  %d file(s) checked, %d error(s)\n", len(results), totalErrors)
}
