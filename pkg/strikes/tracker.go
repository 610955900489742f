package strikes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trainerpass/guardian/pkg/config"
)

// Tracker applies weights, window and threshold on top of a Store.
type Tracker struct {
	store     Store
	window    time.Duration
	threshold int
	weights   map[string]int
	now       func() time.Time
	logger    *slog.Logger
}

// Open creates the store named by cfg.Backend and wraps it in a Tracker.
func Open(cfg config.StrikesConfig) (*Tracker, error) {
	var store Store
	switch cfg.Backend {
	case "memory", "":
		store = NewMemoryStore()
	case "sqlite":
		s, err := NewSQLiteStore(SQLiteConfig{
			Path:               cfg.SQLite.Path,
			BusyTimeout:        cfg.SQLite.BusyTimeout,
			CheckpointInterval: cfg.SQLite.CheckpointInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open strike store: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unsupported strikes backend: %s", cfg.Backend)
	}
	return NewTracker(store, cfg), nil
}

// NewTracker wraps store. Zero window, threshold or weights fall back to
// the defaults.
func NewTracker(store Store, cfg config.StrikesConfig) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = config.DefaultStrikesWindow
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = config.DefaultStrikesThreshold
	}
	weights := config.DefaultStrikeWeights()
	for severity, points := range cfg.Weights {
		weights[severity] = points
	}

	return &Tracker{
		store:     store,
		window:    cfg.Window,
		threshold: cfg.Threshold,
		weights:   weights,
		now:       time.Now,
		logger:    slog.Default().With("component", "strikes"),
	}
}

// Points returns the weight of a violation of the given severity.
func (t *Tracker) Points(severity string) int {
	return t.weights[severity]
}

// Record adds a strike for author and returns the updated standing.
func (t *Tracker) Record(ctx context.Context, author, severity, ruleID string) (*Standing, error) {
	if author == "" {
		return nil, ErrEmptyAuthor
	}

	strike := Strike{
		Author:   author,
		Points:   t.Points(severity),
		Severity: severity,
		RuleID:   ruleID,
		At:       t.now(),
	}
	if err := t.store.Add(ctx, strike); err != nil {
		return nil, err
	}

	standing, err := t.Standing(ctx, author)
	if err != nil {
		return nil, err
	}
	if standing.Restricted && standing.Points-strike.Points < t.threshold {
		t.logger.Warn("author restricted",
			"author", author,
			"points", standing.Points,
			"threshold", t.threshold,
		)
	}
	return standing, nil
}

// Standing returns author's points inside the trailing window.
func (t *Tracker) Standing(ctx context.Context, author string) (*Standing, error) {
	if author == "" {
		return nil, ErrEmptyAuthor
	}
	points, count, err := t.store.Sum(ctx, author, t.now().Add(-t.window))
	if err != nil {
		return nil, err
	}
	return &Standing{
		Author:     author,
		Points:     points,
		Strikes:    count,
		Threshold:  t.threshold,
		Window:     t.window,
		Restricted: points >= t.threshold,
	}, nil
}

// Reset clears author's strikes.
func (t *Tracker) Reset(ctx context.Context, author string) (int64, error) {
	n, err := t.store.Reset(ctx, author)
	if err != nil {
		return 0, err
	}
	t.logger.Info("strikes reset", "author", author, "removed", n)
	return n, nil
}

// Cleanup deletes strikes recorded before olderThan.
func (t *Tracker) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	return t.store.Cleanup(ctx, olderThan)
}

// CleanupExpired deletes strikes that have left the window.
func (t *Tracker) CleanupExpired(ctx context.Context) error {
	n, err := t.Cleanup(ctx, t.now().Add(-t.window))
	if err != nil {
		return err
	}
	t.logger.Info("expired strikes removed", "deleted_count", n)
	return nil
}

// HealthCheck pings the underlying store.
func (t *Tracker) HealthCheck(ctx context.Context) error {
	return t.store.Ping(ctx)
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	return t.store.Close()
}
