package strikes

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyAuthor is returned when a strike operation is given no author.
var ErrEmptyAuthor = errors.New("author cannot be empty")

// Strike is a single weighted violation.
type Strike struct {
	Author   string    `json:"author"`
	Points   int       `json:"points"`
	Severity string    `json:"severity"`
	RuleID   string    `json:"rule_id"`
	At       time.Time `json:"at"`
}

// Standing is an author's strike total inside the window.
type Standing struct {
	Author     string        `json:"author"`
	Points     int           `json:"points"`
	Strikes    int           `json:"strikes"`
	Threshold  int           `json:"threshold"`
	Window     time.Duration `json:"window"`
	Restricted bool          `json:"restricted"`
}

// Store persists strikes.
type Store interface {
	// Add stores a strike.
	Add(ctx context.Context, strike Strike) error

	// Sum returns the total points and number of strikes for author
	// recorded at or after since.
	Sum(ctx context.Context, author string, since time.Time) (points, count int, err error)

	// Reset deletes every strike for author and returns how many were removed.
	Reset(ctx context.Context, author string) (int64, error)

	// Cleanup deletes strikes recorded before olderThan.
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
