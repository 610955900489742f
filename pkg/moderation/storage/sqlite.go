package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/moderation"
)

const backendSQLite = "sqlite"

const recordColumns = `id, request_id, author, source, scanned_at, recorded_at,
	rule_id, category, severity, label, matched_text, action,
	text_hash, text_length, policy_version`

// SQLiteStorage implements moderation.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database at cfg.Path, creating the file, its
// directory and the schema as needed.
func NewSQLiteStorage(cfg *config.SQLiteConfig) (*SQLiteStorage, error) {
	logger := slog.Default().With("component", "moderation.storage.sqlite")

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, moderation.NewStorageError(backendSQLite, "open", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, moderation.NewStorageError(backendSQLite, "open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return moderation.NewStorageError(backendSQLite, "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return moderation.NewStorageError(backendSQLite, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return moderation.NewStorageError(backendSQLite, "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return moderation.NewStorageError(backendSQLite, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return moderation.NewStorageError(backendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return moderation.NewStorageError(backendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store persists a record.
func (s *SQLiteStorage) Store(ctx context.Context, r *moderation.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO moderation_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RequestID, r.Author, r.Source,
		toNanos(r.ScannedAt), toNanos(r.RecordedAt),
		r.RuleID, r.Category, r.Severity, r.Label, r.Match, string(r.Action),
		r.TextHash, r.TextLength, r.PolicyVersion,
	)
	if err != nil {
		return moderation.NewStorageError(backendSQLite, "store", err)
	}
	return nil
}

// Query returns records matching the query.
func (s *SQLiteStorage) Query(ctx context.Context, query *moderation.Query) ([]*moderation.Record, error) {
	where, args := buildWhereClause(query)

	sortBy := moderation.SortScannedAt
	if query.SortBy == moderation.SortRecordedAt {
		sortBy = moderation.SortRecordedAt
	}
	sortOrder := "DESC"
	if query.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	var b strings.Builder
	b.WriteString("SELECT " + recordColumns + " FROM moderation_records")
	b.WriteString(where)
	fmt.Fprintf(&b, " ORDER BY %s %s, id %s", sortBy, sortOrder, sortOrder)
	switch {
	case query.Limit > 0:
		fmt.Fprintf(&b, " LIMIT %d", query.Limit)
	case query.Offset > 0:
		b.WriteString(" LIMIT -1")
	}
	if query.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, moderation.NewStorageError(backendSQLite, "query", err)
	}
	defer rows.Close()

	records := []*moderation.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, moderation.NewStorageError(backendSQLite, "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, moderation.NewStorageError(backendSQLite, "query", err)
	}
	return records, nil
}

// Count returns the number of records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *moderation.Query) (int64, error) {
	where, args := buildWhereClause(query)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM moderation_records"+where, args...).Scan(&count)
	if err != nil {
		return 0, moderation.NewStorageError(backendSQLite, "count", err)
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *moderation.Query) (int64, error) {
	where, args := buildWhereClause(query)

	result, err := s.db.ExecContext(ctx, "DELETE FROM moderation_records"+where, args...)
	if err != nil {
		return 0, moderation.NewStorageError(backendSQLite, "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, moderation.NewStorageError(backendSQLite, "delete", err)
	}
	return count, nil
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return moderation.NewStorageError(backendSQLite, "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return moderation.NewStorageError(backendSQLite, "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause returns " WHERE ..." (or "") and its arguments.
func buildWhereClause(query *moderation.Query) (string, []any) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	if query.StartTime != nil {
		add("scanned_at >= ?", toNanos(*query.StartTime))
	}
	if query.EndTime != nil {
		add("scanned_at <= ?", toNanos(*query.EndTime))
	}
	if query.Author != "" {
		add("author = ?", query.Author)
	}
	if query.Source != "" {
		add("source = ?", query.Source)
	}
	if query.RuleID != "" {
		add("rule_id = ?", query.RuleID)
	}
	if query.Category != "" {
		add("category = ?", query.Category)
	}
	if query.Severity != "" {
		add("severity = ?", query.Severity)
	}
	if query.Action != "" {
		add("action = ?", string(query.Action))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*moderation.Record, error) {
	var (
		r                   moderation.Record
		scannedAt, recorded int64
		action              string
	)
	err := rows.Scan(
		&r.ID, &r.RequestID, &r.Author, &r.Source,
		&scannedAt, &recorded,
		&r.RuleID, &r.Category, &r.Severity, &r.Label, &r.Match, &action,
		&r.TextHash, &r.TextLength, &r.PolicyVersion,
	)
	if err != nil {
		return nil, err
	}
	r.ScannedAt = fromNanos(scannedAt)
	r.RecordedAt = fromNanos(recorded)
	r.Action = moderation.Action(action)
	return &r, nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
