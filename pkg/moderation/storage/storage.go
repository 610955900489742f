package storage

import (
	"fmt"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/moderation"
)

// New creates the backend named by cfg.Backend.
func New(cfg config.ModerationConfig) (moderation.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(&cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown moderation backend %q", cfg.Backend)
	}
}
