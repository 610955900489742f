package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"trainerpass/guardian/pkg/moderation"
)

// MemoryStorage implements moderation.Storage using an in-memory map.
type MemoryStorage struct {
	records map[string]*moderation.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*moderation.Record),
	}
}

// Store persists a copy of the record.
func (s *MemoryStorage) Store(ctx context.Context, record *moderation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy
	return nil
}

// Query returns copies of the records matching the query.
func (s *MemoryStorage) Query(ctx context.Context, query *moderation.Query) ([]*moderation.Record, error) {
	s.mu.RLock()
	results := make([]*moderation.Record, 0)
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	if query.Offset >= len(results) {
		return []*moderation.Record{}, nil
	}
	results = results[query.Offset:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns the number of records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *moderation.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *moderation.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close drops all records.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*moderation.Record)
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

func matchesQuery(record *moderation.Record, query *moderation.Query) bool {
	if query.StartTime != nil && record.ScannedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.ScannedAt.After(*query.EndTime) {
		return false
	}

	switch {
	case query.Author != "" && record.Author != query.Author,
		query.Source != "" && record.Source != query.Source,
		query.RuleID != "" && record.RuleID != query.RuleID,
		query.Category != "" && record.Category != query.Category,
		query.Severity != "" && record.Severity != query.Severity,
		query.Action != "" && record.Action != query.Action:
		return false
	}
	return true
}

func sortRecords(records []*moderation.Record, sortBy, order string) {
	key := func(r *moderation.Record) int64 { return r.ScannedAt.UnixNano() }
	if sortBy == moderation.SortRecordedAt {
		key = func(r *moderation.Record) int64 { return r.RecordedAt.UnixNano() }
	}

	slices.SortFunc(records, func(a, b *moderation.Record) int {
		c := cmp.Compare(key(a), key(b))
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if order != "asc" {
			c = -c
		}
		return c
	})
}
