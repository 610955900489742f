package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/filter"
)

// Snapshot is an active filter together with the version of the rule set
// it was built from.
type Snapshot struct {
	Filter   *filter.Filter
	Version  string
	LoadedAt time.Time
}

// ReloadHook is called after every load attempt with the outcome and the
// number of active rules.
type ReloadHook func(success bool, activeRules int)

// Manager builds filters from configuration and the rule-set file, and
// publishes the active one.
type Manager struct {
	config config.FilterConfig
	logger *slog.Logger
	hook   ReloadHook

	current atomic.Pointer[Snapshot]

	// mu serializes loads.
	mu      sync.Mutex
	lastErr error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithReloadHook registers a hook called after each load attempt.
func WithReloadHook(hook ReloadHook) ManagerOption {
	return func(m *Manager) {
		m.hook = hook
	}
}

// NewManager creates a manager and performs the initial load. An invalid
// rule-set file is an error at startup.
func NewManager(cfg config.FilterConfig, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		config: cfg,
		logger: slog.Default().With("component", "policy"),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Current returns the active filter.
func (m *Manager) Current() *filter.Filter {
	return m.current.Load().Filter
}

// Version returns the version of the active rule set.
func (m *Manager) Version() string {
	return m.current.Load().Version
}

// Snapshot returns the active filter and its version as one consistent pair.
func (m *Manager) Snapshot() *Snapshot {
	return m.current.Load()
}

// LastError returns the error from the most recent load, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Reload rebuilds the filter. On failure the previous filter stays active.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	snap, err := m.load()
	if err != nil {
		m.lastErr = err
		if m.current.Load() != nil {
			m.logger.Error("Rule reload failed, keeping previous rules",
				"path", m.config.RulesFile,
				"error", err,
			)
		}
		m.notify(false, 0)
		return err
	}

	m.lastErr = nil
	prev := m.current.Swap(snap)
	active := len(snap.Filter.Rules())

	m.logger.Info("Rules loaded",
		"path", m.config.RulesFile,
		"version", snap.Version,
		"rules", active,
		"phone_detection", snap.Filter.PhoneDetection(),
		"changed", prev == nil || prev.Version != snap.Version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	m.notify(true, active)
	return nil
}

func (m *Manager) load() (*Snapshot, error) {
	var (
		rs      *RuleSet
		version = BuiltinVersion
		err     error
	)
	if m.config.RulesFile != "" {
		rs, version, err = LoadFile(m.config.RulesFile)
		if err != nil {
			return nil, err
		}
	}

	f, err := Build(m.config, rs)
	if err != nil {
		return nil, &BuildError{FilePath: m.config.RulesFile, Cause: err}
	}
	return &Snapshot{Filter: f, Version: version, LoadedAt: time.Now()}, nil
}

func (m *Manager) notify(success bool, active int) {
	if m.hook != nil {
		m.hook(success, active)
	}
}

// Watch reloads the rule-set file whenever it changes. It blocks until ctx
// is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	if m.config.RulesFile == "" {
		return ErrNoRulesFile
	}

	watcher, err := NewFileWatcher(m.config.RulesFile, m.config.WatchDebounce, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	err = watcher.Watch(ctx, func() {
		// Reload logs its own failures.
		_ = m.Reload()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HealthCheck reports whether a filter is active and the last load succeeded.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if m.current.Load() == nil {
		return errors.New("no active rule set")
	}
	if err := m.LastError(); err != nil {
		return fmt.Errorf("serving previous rules: %w", err)
	}
	return nil
}
