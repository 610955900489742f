// Package storage provides moderation record backends.
//
// MemoryStorage keeps records in a map and suits tests and single-process
// deployments that do not need records to survive a restart. SQLiteStorage
// persists records with github.com/mattn/go-sqlite3 in WAL mode.
//
// New selects a backend from configuration:
//
//	store, err := storage.New(cfg.Moderation)
package storage
