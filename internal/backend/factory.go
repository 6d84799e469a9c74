package backend

import (
	"fmt"
	"log/slog"

	"lorryboard/internal/records/memory"
	"lorryboard/internal/records/sqlite"
)

// New creates the record store named by the config. The caller owns the
// returned store and must Close it.
func New(config Config) (Backend, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		slog.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil

	case MemoryBackend:
		store := memory.NewFromFiles(config.DataDirectory)
		slog.Info("Initialized memory backend", "data_dir", config.DataDirectory)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
