package strikes

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps strikes in memory. All data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	strikes map[string][]Strike
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{strikes: make(map[string][]Strike)}
}

// Add stores a strike.
func (s *MemoryStore) Add(ctx context.Context, strike Strike) error {
	if strike.Author == "" {
		return ErrEmptyAuthor
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strikes[strike.Author] = append(s.strikes[strike.Author], strike)
	return nil
}

// Sum totals the author's strikes recorded at or after since.
func (s *MemoryStore) Sum(ctx context.Context, author string, since time.Time) (int, int, error) {
	if author == "" {
		return 0, 0, ErrEmptyAuthor
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, count := 0, 0
	for _, strike := range s.strikes[author] {
		if strike.At.Before(since) {
			continue
		}
		points += strike.Points
		count++
	}
	return points, count, nil
}

// Reset removes all strikes for author.
func (s *MemoryStore) Reset(ctx context.Context, author string) (int64, error) {
	if author == "" {
		return 0, ErrEmptyAuthor
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.strikes[author]))
	delete(s.strikes, author)
	return n, nil
}

// Cleanup removes strikes recorded before olderThan.
func (s *MemoryStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for author, list := range s.strikes {
		kept := list[:0]
		for _, strike := range list {
			if strike.At.Before(olderThan) {
				deleted++
				continue
			}
			kept = append(kept, strike)
		}
		if len(kept) == 0 {
			delete(s.strikes, author)
		} else {
			s.strikes[author] = kept
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
