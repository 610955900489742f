package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/moderation"
)

func newSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(&config.SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "db", "moderation.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs fn against every storage backend.
func backends(t *testing.T, fn func(t *testing.T, s moderation.Storage)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStorage()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLite(t)) })
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(i int, author, ruleID, category, severity string, action moderation.Action) *moderation.Record {
	return &moderation.Record{
		ID:            fmt.Sprintf("rec-%02d", i),
		RequestID:     fmt.Sprintf("req-%02d", i),
		Author:        author,
		Source:        "profile_bio",
		ScannedAt:     base.Add(time.Duration(i) * time.Hour),
		RecordedAt:    base.Add(time.Duration(i)*time.Hour + time.Millisecond),
		RuleID:        ruleID,
		Category:      category,
		Severity:      severity,
		Label:         "label " + ruleID,
		Match:         "ma***",
		Action:        action,
		TextHash:      "abc123",
		TextLength:    42,
		PolicyVersion: "builtin",
	}
}

func seed(t *testing.T, s moderation.Storage) {
	t.Helper()
	records := []*moderation.Record{
		record(1, "ash", "self-harm", "self_harm", "critical", moderation.ActionReject),
		record(2, "misty", "mild-profanity", "profanity", "medium", moderation.ActionFlag),
		record(3, "ash", "phone-number", "contact_sharing", "critical", moderation.ActionReject),
		record(4, "brock", "explicit-profanity", "profanity", "high", moderation.ActionReject),
		record(5, "ash", "mild-profanity", "profanity", "medium", moderation.ActionFlag),
	}
	for _, r := range records {
		if err := s.Store(context.Background(), r); err != nil {
			t.Fatalf("Store(%s) error = %v", r.ID, err)
		}
	}
}

func ids(records []*moderation.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStorage_StoreAndQuery(t *testing.T) {
	backends(t, func(t *testing.T, s moderation.Storage) {
		ctx := context.Background()
		want := record(7, "ash", "hate-slurs-ethnic", "hate_speech", "critical", moderation.ActionReject)
		if err := s.Store(ctx, want); err != nil {
			t.Fatalf("Store() error = %v", err)
		}

		got, err := s.Query(ctx, &moderation.Query{})
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("Query() returned %d records, want 1", len(got))
		}
		r := got[0]
		if r.ID != want.ID || r.Author != want.Author || r.RuleID != want.RuleID ||
			r.Category != want.Category || r.Severity != want.Severity || r.Label != want.Label ||
			r.Match != want.Match || r.Action != want.Action || r.TextHash != want.TextHash ||
			r.TextLength != want.TextLength || r.PolicyVersion != want.PolicyVersion ||
			r.Source != want.Source || r.RequestID != want.RequestID {
			t.Errorf("record = %+v, want %+v", r, want)
		}
		if !r.ScannedAt.Equal(want.ScannedAt) || !r.RecordedAt.Equal(want.RecordedAt) {
			t.Errorf("timestamps = %v/%v, want %v/%v", r.ScannedAt, r.RecordedAt, want.ScannedAt, want.RecordedAt)
		}
	})
}

func TestStorage_DuplicateID(t *testing.T) {
	s := newSQLite(t)
	r := record(1, "ash", "self-harm", "self_harm", "critical", moderation.ActionReject)
	if err := s.Store(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	err := s.Store(context.Background(), r)
	var se *moderation.StorageError
	if !errors.As(err, &se) || se.Operation != "store" {
		t.Errorf("Store() duplicate error = %v, want StorageError", err)
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	t2 := base.Add(2 * time.Hour)
	t4 := base.Add(4 * time.Hour)

	tests := []struct {
		name  string
		query moderation.Query
		want  []string
	}{
		{"all newest first", moderation.Query{}, []string{"rec-05", "rec-04", "rec-03", "rec-02", "rec-01"}},
		{"oldest first", moderation.Query{SortOrder: "asc"}, []string{"rec-01", "rec-02", "rec-03", "rec-04", "rec-05"}},
		{"sort by recorded_at", moderation.Query{SortBy: moderation.SortRecordedAt, SortOrder: "asc", Limit: 2}, []string{"rec-01", "rec-02"}},
		{"author", moderation.Query{Author: "ash"}, []string{"rec-05", "rec-03", "rec-01"}},
		{"rule", moderation.Query{RuleID: "mild-profanity"}, []string{"rec-05", "rec-02"}},
		{"category", moderation.Query{Category: "profanity"}, []string{"rec-05", "rec-04", "rec-02"}},
		{"severity", moderation.Query{Severity: "critical"}, []string{"rec-03", "rec-01"}},
		{"action", moderation.Query{Action: moderation.ActionFlag}, []string{"rec-05", "rec-02"}},
		{"source miss", moderation.Query{Source: "chat"}, []string{}},
		{"time range inclusive", moderation.Query{StartTime: &t2, EndTime: &t4}, []string{"rec-04", "rec-03", "rec-02"}},
		{"combined", moderation.Query{Author: "ash", Severity: "critical", EndTime: &t2}, []string{"rec-01"}},
		{"limit", moderation.Query{Limit: 2}, []string{"rec-05", "rec-04"}},
		{"offset", moderation.Query{Offset: 3}, []string{"rec-02", "rec-01"}},
		{"limit and offset", moderation.Query{Limit: 2, Offset: 1}, []string{"rec-04", "rec-03"}},
		{"offset past end", moderation.Query{Offset: 10}, []string{}},
	}

	backends(t, func(t *testing.T, s moderation.Storage) {
		seed(t, s)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.Query(context.Background(), &tt.query)
				if err != nil {
					t.Fatalf("Query() error = %v", err)
				}
				if !equalIDs(ids(got), tt.want) {
					t.Errorf("Query() = %v, want %v", ids(got), tt.want)
				}
			})
		}
	})
}

func TestStorage_CountAndDelete(t *testing.T) {
	backends(t, func(t *testing.T, s moderation.Storage) {
		ctx := context.Background()
		seed(t, s)

		n, err := s.Count(ctx, &moderation.Query{Author: "ash"})
		if err != nil || n != 3 {
			t.Fatalf("Count(ash) = %d, %v; want 3", n, err)
		}

		cutoff := base.Add(2 * time.Hour)
		deleted, err := s.Delete(ctx, &moderation.Query{EndTime: &cutoff, Limit: 1})
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if deleted != 2 {
			t.Errorf("Delete() = %d, want 2 (pagination ignored)", deleted)
		}

		n, err = s.Count(ctx, &moderation.Query{})
		if err != nil || n != 3 {
			t.Errorf("Count() after delete = %d, %v; want 3", n, err)
		}
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	cfg := &config.SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "moderation.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		BusyTimeout:  time.Second,
	}
	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, s)
	s.Close()

	s, err = NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	n, err := s.Count(context.Background(), &moderation.Query{})
	if err != nil || n != 5 {
		t.Errorf("Count() after reopen = %d, %v; want 5", n, err)
	}
}

func TestNew(t *testing.T) {
	if s, err := New(config.ModerationConfig{Backend: "memory"}); err != nil {
		t.Errorf("New(memory) error = %v", err)
	} else if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("New(memory) = %T", s)
	}

	if _, err := New(config.ModerationConfig{Backend: "postgres"}); err == nil {
		t.Error("New(postgres) expected error")
	}
}
