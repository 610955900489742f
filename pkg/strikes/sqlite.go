package strikes

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const strikesSchema = `
CREATE TABLE IF NOT EXISTS strikes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author TEXT NOT NULL,
	points INTEGER NOT NULL,
	severity TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_strikes_author_created ON strikes(author, created_at);
CREATE INDEX IF NOT EXISTS idx_strikes_created ON strikes(created_at);
`

// SQLiteStore persists strikes in SQLite using the pure-Go driver.
// The WAL is checkpointed periodically and once more on Close.
type SQLiteStore struct {
	db                 *sql.DB
	checkpointInterval time.Duration
	done               chan struct{}
	closeOnce          sync.Once

	addStmt     *sql.Stmt
	sumStmt     *sql.Stmt
	resetStmt   *sql.Stmt
	cleanupStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file. Parent directories are created.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5m
	CheckpointInterval time.Duration
}

// NewSQLiteStore opens or creates the strike database.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:                 db,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if _, err := db.Exec(strikesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go s.checkpointLoop()
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.addStmt, err = s.db.Prepare(`
		INSERT INTO strikes (author, points, severity, rule_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare add statement: %w", err)
	}

	s.sumStmt, err = s.db.Prepare(`
		SELECT COALESCE(SUM(points), 0), COUNT(*)
		FROM strikes
		WHERE author = ? AND created_at >= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sum statement: %w", err)
	}

	s.resetStmt, err = s.db.Prepare(`DELETE FROM strikes WHERE author = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare reset statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`DELETE FROM strikes WHERE created_at < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Add stores a strike.
func (s *SQLiteStore) Add(ctx context.Context, strike Strike) error {
	if strike.Author == "" {
		return ErrEmptyAuthor
	}
	_, err := s.addStmt.ExecContext(ctx,
		strike.Author,
		strike.Points,
		strike.Severity,
		strike.RuleID,
		strike.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to add strike: %w", err)
	}
	return nil
}

// Sum totals the author's strikes recorded at or after since.
func (s *SQLiteStore) Sum(ctx context.Context, author string, since time.Time) (int, int, error) {
	if author == "" {
		return 0, 0, ErrEmptyAuthor
	}
	var points, count int
	if err := s.sumStmt.QueryRowContext(ctx, author, since.UnixNano()).Scan(&points, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to sum strikes: %w", err)
	}
	return points, count, nil
}

// Reset removes all strikes for author.
func (s *SQLiteStore) Reset(ctx context.Context, author string) (int64, error) {
	if author == "" {
		return 0, ErrEmptyAuthor
	}
	return s.execCount(ctx, s.resetStmt, "reset", author)
}

// Cleanup removes strikes recorded before olderThan.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.execCount(ctx, s.cleanupStmt, "cleanup", olderThan.UnixNano())
}

func (s *SQLiteStore) execCount(ctx context.Context, stmt *sql.Stmt, op string, arg any) (int64, error) {
	result, err := stmt.ExecContext(ctx, arg)
	if err != nil {
		return 0, fmt.Errorf("failed to %s strikes: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close stops the checkpoint loop, checkpoints the WAL and closes the
// database. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.done)
		for _, stmt := range []*sql.Stmt{s.addStmt, s.sumStmt, s.resetStmt, s.cleanupStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		closeErr = s.db.Close()
	})
	return closeErr
}

func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
