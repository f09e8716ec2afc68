package history

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"charter-hq/charter/pkg/config"
)

// Pruner enforces the retention policy on recorded runs.
type Pruner struct {
	store  *Store
	config config.RetentionConfig
	logger *slog.Logger
}

// NewPruner creates a retention pruner over the store.
func NewPruner(store *Store, cfg config.RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  store,
		config: cfg,
		logger: logger.With("component", "history.retention"),
	}
}

// Prune deletes runs outside the retention policy and returns how many
// were removed.
//
// Pruning happens in two phases:
//  1. Age-based: delete runs older than retention days
//  2. Count-based: if total runs exceed max_records, delete oldest
//
// With archive_before_delete set, the doomed runs are written to a
// zstd-compressed JSONL archive before they are deleted; an archive
// failure aborts the phase with nothing removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var pruned []*Run

	if p.config.Days > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.config.Days)
		runs, err := p.collect(ctx, func() ([]*Run, error) {
			return p.store.RunsOlderThan(ctx, cutoff)
		})
		if err != nil {
			return 0, fmt.Errorf("prune by age failed: %w", err)
		}
		pruned = append(pruned, runs...)
	}

	if p.config.MaxRecords > 0 {
		runs, err := p.collect(ctx, func() ([]*Run, error) {
			return p.store.RunsExceeding(ctx, p.config.MaxRecords)
		})
		if err != nil {
			return int64(len(pruned)), fmt.Errorf("prune by count failed: %w", err)
		}
		pruned = append(pruned, runs...)
	}

	if len(pruned) > 0 {
		p.logger.Info("history pruning completed",
			"pruned", len(pruned),
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}
	return int64(len(pruned)), nil
}

// collect runs one retention phase: select the doomed runs, archive
// them when configured, then delete. The runs stay in the store if the
// archive cannot be written.
func (p *Pruner) collect(ctx context.Context, sel func() ([]*Run, error)) ([]*Run, error) {
	runs, err := sel()
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	if p.config.ArchiveBeforeDelete {
		if err := p.archive(runs); err != nil {
			return nil, err
		}
	}
	if err := p.store.DeleteRuns(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// archive writes runs to a timestamped zstd-compressed JSONL file in
// the archive directory.
func (p *Pruner) archive(runs []*Run) error {
	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("history-%s.jsonl.zst", time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(p.config.ArchivePath, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive %q: %w", path, err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := ExportJSONL(zw, runs); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive %q: %w", path, err)
	}

	p.logger.Info("pruned runs archived", "path", path, "runs", len(runs))
	return nil
}
