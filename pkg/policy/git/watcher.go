package git

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ReloadFunc rebuilds the active rules from the rule-set file. It must keep
// the previous rules active when it fails.
type ReloadFunc func() error

// Watcher polls the repository and reloads rules when a pull changes the
// rule-set file.
type Watcher struct {
	repo     *Repository
	interval time.Duration
	reload   ReloadFunc
	logger   *slog.Logger

	mu      sync.Mutex
	applied string // last commit whose rules loaded
	failed  string // last commit whose rules failed to load
}

// NewWatcher creates a watcher polling every interval.
func NewWatcher(repo *Repository, interval time.Duration, reload ReloadFunc) *Watcher {
	return &Watcher{
		repo:     repo,
		interval: interval,
		reload:   reload,
		logger:   slog.Default().With("component", "policy.git"),
	}
}

// Run polls until ctx is cancelled. Poll errors are logged and retried on
// the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	if head, err := w.repo.Head(); err == nil {
		w.mu.Lock()
		w.applied = head.SHA
		w.mu.Unlock()
		w.logger.Info("Watching rules repository", "commit", head.Short(), "interval", w.interval)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Check(ctx); err != nil {
				w.logger.Warn("Rules repository poll failed", "error", err)
			}
		}
	}
}

// Check pulls once and reloads if the rule-set file changed. A reload
// failure is logged; the commit is not retried until a newer one arrives.
func (w *Watcher) Check(ctx context.Context) error {
	result, err := w.repo.Pull(ctx)
	if err != nil {
		return err
	}
	if !result.HadChanges() {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.repo.TouchesRules(result.ChangedFiles) {
		w.logger.Debug("Rules file unchanged by new commit",
			"from", shortSHA(result.FromSHA),
			"to", shortSHA(result.ToSHA),
			"changed_files", len(result.ChangedFiles),
		)
		return nil
	}

	if err := w.reload(); err != nil {
		w.failed = result.ToSHA
		w.logger.Error("Rules from new commit rejected, keeping previous rules",
			"commit", shortSHA(result.ToSHA),
			"active_commit", shortSHA(w.applied),
			"error", err,
		)
		return nil
	}

	w.logger.Info("Rules updated from repository",
		"from", shortSHA(w.applied),
		"to", shortSHA(result.ToSHA),
	)
	w.applied = result.ToSHA
	w.failed = ""
	return nil
}

// Applied returns the last commit whose rules loaded successfully.
func (w *Watcher) Applied() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.applied
}

// Failed returns the newest commit whose rules were rejected, or "" once a
// later commit loads.
func (w *Watcher) Failed() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}
