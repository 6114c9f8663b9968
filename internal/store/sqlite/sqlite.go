// Package sqlite persists the dataset snapshot in a single-row SQLite table.
// The whole dataset is one JSON document; a replace is one UPSERT inside a
// transaction, so readers on other connections never see a partial dataset.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"spendwise/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB

	// Serializes replaces; SQLite would serialize the transactions anyway
	// but this keeps the version read-increment-write race out entirely.
	writeMu sync.Mutex
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Replace writes the new dataset as the single snapshot row. The previous
// snapshot stays authoritative if anything fails before commit.
func (s *Store) Replace(ctx context.Context, ds core.Dataset) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM dataset_snapshot WHERE id = 1`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read snapshot version: %w", err)
	}
	ds.Version = version + 1

	payload, err := json.Marshal(ds)
	if err != nil {
		return 0, fmt.Errorf("serialize dataset: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dataset_snapshot (id, version, payload, replaced_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			version     = excluded.version,
			payload     = excluded.payload,
			replaced_at = excluded.replaced_at`,
		ds.Version, string(payload))
	if err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}

	slog.InfoContext(ctx, "Dataset snapshot replaced",
		"version", ds.Version,
		"records", len(ds.Records),
		"columns", len(ds.Columns))

	return ds.Version, nil
}

// Current reads the snapshot row. A database that never saw an ingestion
// yields an empty version-zero dataset, not an error.
func (s *Store) Current(ctx context.Context) (core.Dataset, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM dataset_snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Dataset{}, nil
	}
	if err != nil {
		return core.Dataset{}, fmt.Errorf("read snapshot: %w", err)
	}

	var ds core.Dataset
	if err := json.Unmarshal([]byte(payload), &ds); err != nil {
		return core.Dataset{}, fmt.Errorf("parse snapshot payload: %w", err)
	}
	return ds, nil
}
