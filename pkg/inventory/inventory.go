// Package inventory takes a deterministic snapshot of the repository's
// file inventory: relative slash paths, sorted, regular files only.
package inventory

import (
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

// Options controls the walk.
type Options struct {
	// IgnoreDirs are directory names skipped anywhere in the tree.
	// `.git` is always skipped.
	IgnoreDirs []string

	// MaxFileSize skips files larger than this many bytes. Zero means
	// no cap.
	MaxFileSize int64
}

// Snapshot is one immutable pass over the repository inventory. All
// components of a run share the same snapshot, so every policy sees an
// identical file set.
type Snapshot struct {
	fsys  fs.FS
	paths []string
}

// Scan walks the filesystem rooted at the repository and collects the
// inventory. The walk is sequential: invocations are short-lived CLI
// runs and a single ordered pass keeps results reproducible.
func Scan(fsys fs.FS, opts Options, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "inventory")

	ignored := make(map[string]bool, len(opts.IgnoreDirs)+1)
	ignored[".git"] = true
	for _, d := range opts.IgnoreDirs {
		ignored[strings.TrimSuffix(d, "/")] = true
	}

	var paths []string
	skipped := 0

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("inventory walk failed at %q: %w", path, err)
		}
		if d.IsDir() {
			if path != "." && ignored[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if opts.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("inventory stat failed at %q: %w", path, err)
			}
			if info.Size() > opts.MaxFileSize {
				skipped++
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	logger.Debug("inventory scan complete", "files", len(paths), "skipped_oversize", skipped)

	return &Snapshot{fsys: fsys, paths: paths}, nil
}

// Paths returns the sorted inventory paths. Callers must not modify
// the returned slice.
func (s *Snapshot) Paths() []string {
	return s.paths
}

// Len returns the number of files in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.paths)
}

// ReadFile reads one inventory file.
func (s *Snapshot) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(s.fsys, path)
}

// FS returns the underlying filesystem the snapshot was taken from.
func (s *Snapshot) FS() fs.FS {
	return s.fsys
}
