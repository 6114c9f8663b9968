// Package store defines the dataset store port implemented by the storage
// backends. Exactly one dataset is addressable: each successful ingestion
// replaces it wholesale, readers always observe a complete snapshot.
package store

import (
	"context"

	"spendwise/internal/core"
)

// DatasetStore owns the current dataset snapshot.
//
// Replace atomically swaps the live dataset and returns the version assigned
// to it; concurrent replaces are serialized by the implementation. Current
// returns the live dataset, or an empty version-zero dataset when nothing
// has ever been ingested. Readers must treat the returned dataset as
// immutable.
type DatasetStore interface {
	Replace(ctx context.Context, ds core.Dataset) (version int64, err error)
	Current(ctx context.Context) (core.Dataset, error)
	Close() error
}
