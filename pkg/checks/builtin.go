package checks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/engine"
)

// builtin is a compiled-in implementation. The source fingerprint is a
// stable versioned string: bumping it is the deliberate signal to the
// drift registry that the implementation changed.
type builtin struct {
	id     string
	source string
	check  func(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error)
	fix    func(ctx context.Context, req *engine.CheckRequest) (*engine.FixResult, error)
}

func (b *builtin) ID() string                { return b.id }
func (b *builtin) Origin() descriptor.Origin { return descriptor.OriginCore }
func (b *builtin) Source() string            { return b.source }
func (b *builtin) CanFix() bool              { return b.fix != nil }

func (b *builtin) Check(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error) {
	return b.check(ctx, req)
}

func (b *builtin) Fix(ctx context.Context, req *engine.CheckRequest) (*engine.FixResult, error) {
	if b.fix == nil {
		return nil, fmt.Errorf("policy %q has no fixer", b.id)
	}
	return b.fix(ctx, req)
}

// builtinImplementations returns the core implementation set.
func builtinImplementations() []engine.Implementation {
	return []engine.Implementation{
		&builtin{
			id:     "line-length-limit",
			source: "builtin:line-length-limit@1 check=max_length",
			check:  checkLineLength,
		},
		&builtin{
			id:     "trailing-whitespace",
			source: "builtin:trailing-whitespace@1 check+fix",
			check:  checkTrailingWhitespace,
			fix:    fixTrailingWhitespace,
		},
		&builtin{
			id:     "final-newline",
			source: "builtin:final-newline@1 check+fix",
			check:  checkFinalNewline,
			fix:    fixFinalNewline,
		},
		&builtin{
			id:     "tab-indentation",
			source: "builtin:tab-indentation@1 check+fix=tab_width",
			check:  checkTabIndentation,
			fix:    fixTabIndentation,
		},
		&builtin{
			id:     "forbidden-pattern",
			source: "builtin:forbidden-pattern@1 check=patterns",
			check:  checkForbiddenPattern,
		},
	}
}

// isBinary reports whether file content looks binary. Binary files are
// skipped by all text checks.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}

// eachTextTarget reads every target and calls fn with its content,
// skipping binary files. Read failures abort the check; the engine
// scopes the failure to the policy.
func eachTextTarget(ctx context.Context, req *engine.CheckRequest, fn func(path string, data []byte) error) error {
	for _, path := range req.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := req.Repo.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", path, err)
		}
		if isBinary(data) {
			continue
		}
		if err := fn(path, data); err != nil {
			return err
		}
	}
	return nil
}

// rewriteTargets applies a content transform to every text target and
// writes changed files back in place. The transform must be
// idempotent; no cross-process lock is assumed between runs.
func rewriteTargets(ctx context.Context, req *engine.CheckRequest, transform func(data []byte) []byte) (*engine.FixResult, error) {
	if req.Root == "" {
		return nil, fmt.Errorf("fixing requires an on-disk repository root")
	}

	result := &engine.FixResult{}
	err := eachTextTarget(ctx, req, func(path string, data []byte) error {
		fixed := transform(data)
		if bytes.Equal(fixed, data) {
			return nil
		}
		full := filepath.Join(req.Root, filepath.FromSlash(path))
		info, err := os.Stat(full)
		if err != nil {
			return fmt.Errorf("failed to stat %q: %w", path, err)
		}
		if err := os.WriteFile(full, fixed, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to rewrite %q: %w", path, err)
		}
		result.Changed = append(result.Changed, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// splitLines splits content into lines without the trailing newline of
// each line.
func splitLines(data []byte) []string {
	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func checkLineLength(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error) {
	maxLength, ok := req.Metadata.GetInt("max_length")
	if !ok || maxLength <= 0 {
		maxLength = 79
	}

	var violations []engine.Violation
	err := eachTextTarget(ctx, req, func(path string, data []byte) error {
		for i, line := range splitLines(data) {
			if n := len([]rune(line)); n > maxLength {
				violations = append(violations, engine.Violation{
					Path:    path,
					Message: fmt.Sprintf("line %d exceeds %d characters (%d)", i+1, maxLength, n),
				})
			}
		}
		return nil
	})
	return violations, err
}

func checkTrailingWhitespace(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error) {
	var violations []engine.Violation
	err := eachTextTarget(ctx, req, func(path string, data []byte) error {
		for i, line := range splitLines(data) {
			if line != strings.TrimRight(line, " \t") {
				violations = append(violations, engine.Violation{
					Path:    path,
					Message: fmt.Sprintf("line %d has trailing whitespace", i+1),
				})
			}
		}
		return nil
	})
	return violations, err
}

func fixTrailingWhitespace(ctx context.Context, req *engine.CheckRequest) (*engine.FixResult, error) {
	return rewriteTargets(ctx, req, func(data []byte) []byte {
		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t")
		}
		return []byte(strings.Join(lines, "\n"))
	})
}

func checkFinalNewline(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error) {
	var violations []engine.Violation
	err := eachTextTarget(ctx, req, func(path string, data []byte) error {
		if len(data) == 0 {
			return nil
		}
		switch {
		case !bytes.HasSuffix(data, []byte("\n")):
			violations = append(violations, engine.Violation{
				Path:    path,
				Message: "file does not end with a newline",
			})
		case bytes.HasSuffix(data, []byte("\n\n")):
			violations = append(violations, engine.Violation{
				Path:    path,
				Message: "file ends with multiple newlines",
			})
		}
		return nil
	})
	return violations, err
}

func fixFinalNewline(ctx context.Context, req *engine.CheckRequest) (*engine.FixResult, error) {
	return rewriteTargets(ctx, req, func(data []byte) []byte {
		if len(data) == 0 {
			return data
		}
		trimmed := bytes.TrimRight(data, "\n")
		return append(trimmed, '\n')
	})
}

func checkTabIndentation(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error) {
	var violations []engine.Violation
	err := eachTextTarget(ctx, req, func(path string, data []byte) error {
		for i, line := range splitLines(data) {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			if strings.Contains(indent, "\t") {
				violations = append(violations, engine.Violation{
					Path:    path,
					Message: fmt.Sprintf("line %d is indented with tabs", i+1),
				})
			}
		}
		return nil
	})
	return violations, err
}

func fixTabIndentation(ctx context.Context, req *engine.CheckRequest) (*engine.FixResult, error) {
	tabWidth, ok := req.Metadata.GetInt("tab_width")
	if !ok || tabWidth <= 0 {
		tabWidth = 4
	}
	spaces := strings.Repeat(" ", tabWidth)

	return rewriteTargets(ctx, req, func(data []byte) []byte {
		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			trimmed := strings.TrimLeft(line, " \t")
			indent := line[:len(line)-len(trimmed)]
			if strings.Contains(indent, "\t") {
				lines[i] = strings.ReplaceAll(indent, "\t", spaces) + trimmed
			}
		}
		return []byte(strings.Join(lines, "\n"))
	})
}

func checkForbiddenPattern(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error) {
	patterns, _ := req.Metadata.GetList("patterns")
	if len(patterns) == 0 {
		return nil, nil
	}

	var violations []engine.Violation
	err := eachTextTarget(ctx, req, func(path string, data []byte) error {
		for i, line := range splitLines(data) {
			for _, pattern := range patterns {
				if pattern != "" && strings.Contains(line, pattern) {
					violations = append(violations, engine.Violation{
						Path:    path,
						Message: fmt.Sprintf("line %d contains forbidden pattern %q", i+1, pattern),
					})
				}
			}
		}
		return nil
	})
	return violations, err
}
