// Package backend wires a configured storage backend into a dataset store.
package backend

import (
	"fmt"
	"log/slog"

	"spendwise/internal/config"
	"spendwise/internal/store"
	filestore "spendwise/internal/store/file"
	"spendwise/internal/store/memory"
	"spendwise/internal/store/sqlite"
)

// Type identifies a storage backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	FileBackend   Type = "file"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the backend type is one of the known backends.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, FileBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Factory creates dataset stores based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore builds the dataset store selected by cfg.DataBackend.
func (f *Factory) CreateStore(cfg *config.Config) (store.DatasetStore, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		st, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		f.logger.Info("Initialized SQLite dataset store", "db_path", cfg.SQLiteDBPath)
		return st, nil

	case FileBackend:
		st, err := filestore.New(cfg.DataFilePath)
		if err != nil {
			return nil, fmt.Errorf("initialize file store: %w", err)
		}
		f.logger.Info("Initialized file dataset store", "data_path", cfg.DataFilePath)
		return st, nil

	default:
		f.logger.Info("Initialized in-memory dataset store")
		return memory.New(), nil
	}
}
