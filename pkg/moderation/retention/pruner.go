package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/moderation"
	"trainerpass/guardian/pkg/moderation/export"
)

// Observer is notified of the number of records each prune run deleted.
type Observer interface {
	RecordPruned(count int64)
}

// Pruner enforces retention policies on moderation records.
type Pruner struct {
	storage  moderation.Storage
	config   config.RetentionConfig
	observer Observer
	now      func() time.Time
	logger   *slog.Logger
}

// NewPruner creates a new retention pruner. observer may be nil.
func NewPruner(storage moderation.Storage, cfg config.RetentionConfig, observer Observer) *Pruner {
	return &Pruner{
		storage:  storage,
		config:   cfg,
		observer: observer,
		now:      time.Now,
		logger:   slog.Default().With("component", "moderation.retention"),
	}
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
	}

	if p.observer != nil {
		p.observer.RecordPruned(totalDeleted)
	}

	if totalDeleted == 0 {
		p.logger.Debug("no records pruned",
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Info("moderation pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}

	return totalDeleted, nil
}

// Preview reports how many records Prune would delete without deleting
// anything.
func (p *Pruner) Preview(ctx context.Context) (byAge, byCount int64, err error) {
	total, err := p.storage.Count(ctx, &moderation.Query{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count records: %w", err)
	}

	if p.config.Days > 0 {
		cutoff := p.ageCutoff()
		byAge, err = p.storage.Count(ctx, &moderation.Query{EndTime: &cutoff})
		if err != nil {
			return 0, 0, fmt.Errorf("failed to count expired records: %w", err)
		}
	}
	if p.config.MaxRecords > 0 {
		if excess := total - byAge - p.config.MaxRecords; excess > 0 {
			byCount = excess
		}
	}
	return byAge, byCount, nil
}

// ageCutoff is the newest ScannedAt that age pruning deletes. EndTime is
// inclusive, so step back one nanosecond to keep records scanned exactly
// at the retention boundary.
func (p *Pruner) ageCutoff() time.Time {
	return p.now().AddDate(0, 0, -p.config.Days).Add(-time.Nanosecond)
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.ageCutoff()
	query := &moderation.Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		records, err := p.storage.Query(ctx, &moderation.Query{
			EndTime:   &cutoff,
			SortBy:    moderation.SortScannedAt,
			SortOrder: "asc",
		})
		if err != nil {
			return 0, moderation.NewRetentionError(p.config.Days, err)
		}
		if err := p.archive(ctx, "age", records); err != nil {
			return 0, moderation.NewRetentionError(p.config.Days, err)
		}
	}

	deleted, err := p.storage.Delete(ctx, query)
	if err != nil {
		return 0, moderation.NewRetentionError(p.config.Days, err)
	}

	p.logger.Info("pruned records by age",
		"deleted_count", deleted,
		"cutoff_time", cutoff,
	)
	return deleted, nil
}

// pruneByCount deletes every record scanned at or before the newest of the
// excess records. Records sharing that timestamp go with it.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &moderation.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		p.logger.Debug("record count within limit",
			"current", count,
			"max", p.config.MaxRecords,
		)
		return 0, nil
	}

	toDelete := count - p.config.MaxRecords
	oldest, err := p.storage.Query(ctx, &moderation.Query{
		SortBy:    moderation.SortScannedAt,
		SortOrder: "asc",
		Limit:     int(toDelete),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query records: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, "count", oldest); err != nil {
			return 0, fmt.Errorf("archive failed: %w", err)
		}
	}

	cutoff := oldest[len(oldest)-1].ScannedAt
	deleted, err := p.storage.Delete(ctx, &moderation.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	p.logger.Info("pruned records by count",
		"deleted_count", deleted,
		"max_records", p.config.MaxRecords,
	)
	return deleted, nil
}

// archive writes records to a timestamped JSON file under ArchivePath.
func (p *Pruner) archive(ctx context.Context, reason string, records []*moderation.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("moderation-%s-%s.json", reason, p.now().UTC().Format("20060102-150405.000000000"))
	archiveFile := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	if err := export.NewJSONExporter(true).Export(ctx, records, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export records to archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	p.logger.Info("moderation records archived",
		"archive_file", archiveFile,
		"record_count", len(records),
	)
	return nil
}
