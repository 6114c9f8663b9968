// Package file persists the dataset as a single JSON document on disk,
// mirroring the one-file data model the service grew out of. Writes go
// through a temporary file and a rename so a crash mid-write never leaves a
// torn document behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"spendwise/internal/core"
)

type Store struct {
	mu      sync.RWMutex
	path    string
	current core.Dataset
}

// New opens (or initializes) the store backed by the JSON document at path.
// A missing document is not an error; the store starts empty.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read data file: %w", err)
	}
	var ds core.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return fmt.Errorf("parse data file: %w", err)
	}
	s.current = ds
	return nil
}

// Replace durably writes the new dataset and then swaps the in-memory
// snapshot. On any write failure the previous dataset stays authoritative,
// both in memory and on disk.
func (s *Store) Replace(_ context.Context, ds core.Dataset) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds.Version = s.current.Version + 1
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("serialize dataset: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".dataset-*.json")
	if err != nil {
		return 0, fmt.Errorf("create temp data file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("write temp data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("sync temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("close temp data file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("replace data file: %w", err)
	}

	s.current = ds
	return ds.Version, nil
}

// Current returns the live dataset.
func (s *Store) Current(_ context.Context) (core.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *Store) Close() error { return nil }
