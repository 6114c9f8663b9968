// Package memory provides a volatile dataset store used in development and
// tests.
package memory

import (
	"context"
	"sync"

	"spendwise/internal/core"
)

type Store struct {
	mu      sync.RWMutex
	current core.Dataset
}

func New() *Store {
	return &Store{}
}

// Replace swaps the live dataset under the write lock. The version counter
// is monotonic for the lifetime of the process.
func (s *Store) Replace(_ context.Context, ds core.Dataset) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds.Version = s.current.Version + 1
	s.current = ds
	return ds.Version, nil
}

// Current returns the live dataset. A store that never saw an ingestion
// returns an empty version-zero dataset.
func (s *Store) Current(_ context.Context) (core.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *Store) Close() error { return nil }
