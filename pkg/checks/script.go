package checks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"charter-hq/charter/pkg/descriptor"
	"charter-hq/charter/pkg/policy/engine"
)

// script is a repository-provided implementation: an executable file
// named after its policy id. The protocol is line oriented:
//
//	<script> check   targets on stdin, one per line; each stdout line
//	                 is "path<TAB>message" (or a bare message for
//	                 violations without a path)
//	<script> fix     targets on stdin; each stdout line is a path the
//	                 fixer changed
//
// Resolved metadata is passed as CHARTER_META_<KEY> environment
// variables, lists joined with commas. A non-zero exit status fails
// the check; the engine scopes the failure to the policy.
type script struct {
	id     string
	path   string
	source string
	canFix bool
}

// newScript loads a script implementation, reading the file content
// once so the drift registry can hash it.
func newScript(id, path string, canFix bool) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read check script %q: %w", path, err)
	}
	return &script{
		id:     id,
		path:   path,
		source: string(data),
		canFix: canFix,
	}, nil
}

func (s *script) ID() string                { return s.id }
func (s *script) Origin() descriptor.Origin { return descriptor.OriginCustom }
func (s *script) Source() string            { return s.source }
func (s *script) CanFix() bool              { return s.canFix }

func (s *script) Check(ctx context.Context, req *engine.CheckRequest) ([]engine.Violation, error) {
	out, err := s.run(ctx, "check", req)
	if err != nil {
		return nil, err
	}

	var violations []engine.Violation
	for _, line := range outputLines(out) {
		path, message, found := strings.Cut(line, "\t")
		if !found {
			violations = append(violations, engine.Violation{Message: line})
			continue
		}
		violations = append(violations, engine.Violation{Path: path, Message: message})
	}
	return violations, nil
}

func (s *script) Fix(ctx context.Context, req *engine.CheckRequest) (*engine.FixResult, error) {
	if !s.canFix {
		return nil, fmt.Errorf("policy %q has no fixer", s.id)
	}
	out, err := s.run(ctx, "fix", req)
	if err != nil {
		return nil, err
	}
	return &engine.FixResult{Changed: outputLines(out)}, nil
}

// run executes the script in the given mode with targets on stdin.
func (s *script) run(ctx context.Context, mode string, req *engine.CheckRequest) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.path, mode)
	cmd.Stdin = strings.NewReader(strings.Join(req.Targets, "\n"))
	if req.Root != "" {
		cmd.Dir = req.Root
	}
	cmd.Env = append(os.Environ(),
		"CHARTER_POLICY_ID="+s.id,
		"CHARTER_ROOT="+req.Root,
	)
	for _, key := range req.Metadata.Keys() {
		list, _ := req.Metadata.GetList(key)
		cmd.Env = append(cmd.Env, "CHARTER_META_"+envKey(key)+"="+strings.Join(list, ","))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("check script %q (%s): %w: %s", s.path, mode, err, detail)
		}
		return nil, fmt.Errorf("check script %q (%s): %w", s.path, mode, err)
	}
	return stdout.Bytes(), nil
}

// envKey uppercases a metadata key for the environment.
func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", "+", "_APPEND").Replace(key))
}

// outputLines splits script output into trimmed non-empty lines.
func outputLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
