package retention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/moderation"
	"trainerpass/guardian/pkg/moderation/storage"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type prunedObserver struct{ total int64 }

func (o *prunedObserver) RecordPruned(n int64) { o.total += n }

// seed stores one record per age in days, relative to fixedNow.
func seed(t *testing.T, store moderation.Storage, ages ...int) {
	t.Helper()
	for i, age := range ages {
		rec := &moderation.Record{
			ID:        fmt.Sprintf("rec-%02d", i),
			ScannedAt: fixedNow.AddDate(0, 0, -age),
			RuleID:    "mild-profanity",
			Action:    moderation.ActionFlag,
		}
		if err := store.Store(context.Background(), rec); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
}

func newPruner(store moderation.Storage, cfg config.RetentionConfig, obs Observer) *Pruner {
	p := NewPruner(store, cfg, obs)
	p.now = func() time.Time { return fixedNow }
	return p
}

func remainingIDs(t *testing.T, store moderation.Storage) []string {
	t.Helper()
	records, err := store.Query(context.Background(), &moderation.Query{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	slices.Sort(ids)
	return ids
}

func TestPruner_ByAge(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 1, 30, 90, 91, 200)
	obs := &prunedObserver{}

	deleted, err := newPruner(store, config.RetentionConfig{Days: 90}, obs).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if got, want := remainingIDs(t, store), []string{"rec-00", "rec-01", "rec-02"}; !slices.Equal(got, want) {
		t.Errorf("remaining = %v, want %v", got, want)
	}
	if obs.total != 2 {
		t.Errorf("observer total = %d, want 2", obs.total)
	}
}

func TestPruner_Disabled(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 1, 500)

	deleted, err := newPruner(store, config.RetentionConfig{Days: -1}, nil).Prune(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Prune() = %d, %v; want 0, nil", deleted, err)
	}
	if store.Size() != 2 {
		t.Errorf("size = %d, want 2", store.Size())
	}
}

func TestPruner_ByCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 5, 4, 3, 2, 1)

	deleted, err := newPruner(store, config.RetentionConfig{Days: -1, MaxRecords: 3}, nil).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if got, want := remainingIDs(t, store), []string{"rec-02", "rec-03", "rec-04"}; !slices.Equal(got, want) {
		t.Errorf("remaining = %v, want %v", got, want)
	}
}

func TestPruner_Preview(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 1, 2, 3, 100, 200)

	p := newPruner(store, config.RetentionConfig{Days: 90, MaxRecords: 2}, nil)
	byAge, byCount, err := p.Preview(context.Background())
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if byAge != 2 || byCount != 1 {
		t.Errorf("Preview() = %d, %d; want 2, 1", byAge, byCount)
	}
	if store.Size() != 5 {
		t.Errorf("Preview deleted records, size = %d", store.Size())
	}

	deleted, _ := p.Prune(context.Background())
	if deleted != byAge+byCount {
		t.Errorf("Prune() deleted %d, preview said %d", deleted, byAge+byCount)
	}
}

func TestPruner_ArchiveBeforeDelete(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewMemoryStorage()
	seed(t, store, 1, 100, 120)

	cfg := config.RetentionConfig{Days: 90, ArchiveBeforeDelete: true, ArchivePath: dir}
	if _, err := newPruner(store, cfg, nil).Prune(context.Background()); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "moderation-age-*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("archive files = %v, %v", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	var archived []moderation.Record
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("archive is not valid JSON: %v", err)
	}
	if len(archived) != 2 || archived[0].ID != "rec-02" {
		t.Errorf("archived = %+v, want rec-02 then rec-01", archived)
	}
}

type failingDelete struct{ *storage.MemoryStorage }

func (failingDelete) Delete(context.Context, *moderation.Query) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestPruner_StorageError(t *testing.T) {
	store := failingDelete{storage.NewMemoryStorage()}
	_, err := newPruner(store, config.RetentionConfig{Days: 30}, nil).Prune(context.Background())
	var re *moderation.RetentionError
	if !errors.As(err, &re) {
		t.Errorf("Prune() error = %v, want RetentionError", err)
	}
}

func TestScheduler(t *testing.T) {
	s := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	job := func(context.Context) error { runs.Add(1); return nil }

	if err := s.Add(ctx, "prune", "0 3 * * *", job); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add(ctx, "prune", "0 4 * * *", job); err == nil {
		t.Error("duplicate job name should fail")
	}
	if err := s.Add(ctx, "bad", "not a schedule", job); err == nil {
		t.Error("invalid schedule should fail")
	}
	if err := s.Add(ctx, "off", "", job); err != nil {
		t.Errorf("empty schedule should be skipped, got %v", err)
	}
	if got := s.Jobs(); len(got) != 1 || got[0] != "prune" {
		t.Errorf("Jobs() = %v", got)
	}

	if _, ok := s.NextRun("prune"); ok {
		t.Error("NextRun should be unset before Start")
	}
	s.Start(ctx)
	if !s.IsRunning() {
		t.Fatal("scheduler not running after Start")
	}
	next, ok := s.NextRun("prune")
	if !ok || next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("NextRun() = %v, %v", next, ok)
	}
	if _, ok := s.NextRun("missing"); ok {
		t.Error("NextRun for unknown job should be false")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
	s.Stop()
}
