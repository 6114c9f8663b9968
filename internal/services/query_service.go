// Package services holds the read-side façade over the dataset store.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"spendwise/internal/core"
	"spendwise/internal/store"
)

// QueryService exposes the two read operations of the system. It never
// mutates the store.
type QueryService struct {
	store store.DatasetStore
	group singleflight.Group
}

func NewQueryService(st store.DatasetStore) *QueryService {
	return &QueryService{store: st}
}

// ListTransactions returns the records of the current dataset in original
// row order. A store that never saw an upload yields an empty slice.
func (s *QueryService) ListTransactions(ctx context.Context) ([]core.Record, error) {
	ds, err := s.store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current dataset: %w", err)
	}
	if ds.Records == nil {
		return []core.Record{}, nil
	}
	return ds.Records, nil
}

// GetInsights recomputes the aggregate snapshot from the current dataset.
// Concurrent calls against the same dataset version are collapsed into one
// computation; nothing is cached past the call, so a later query always
// reflects the dataset it reads.
//
// When no upload has ever happened the snapshot carries core.MsgNoData; an
// ingested-but-empty dataset carries core.MsgEmptyData. Neither is an error.
func (s *QueryService) GetInsights(ctx context.Context) (core.InsightsSnapshot, error) {
	ds, err := s.store.Current(ctx)
	if err != nil {
		return core.InsightsSnapshot{}, fmt.Errorf("read current dataset: %w", err)
	}
	if ds.Version == 0 {
		return core.InsightsSnapshot{
			MonthlyTotals:     map[string]float64{},
			CategoryBreakdown: map[string]float64{},
			Message:           core.MsgNoData,
		}, nil
	}

	key := fmt.Sprintf("insights-v%d", ds.Version)
	v, err, shared := s.group.Do(key, func() (any, error) {
		snap, exclusions := core.ComputeInsights(ds)
		if len(exclusions) > 0 {
			slog.DebugContext(ctx, "Aggregation skipped records",
				"dataset_version", ds.Version,
				"exclusions", len(exclusions))
		}
		return snap, nil
	})
	if err != nil {
		return core.InsightsSnapshot{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Insights computation shared with concurrent caller",
			"dataset_version", ds.Version)
	}
	return v.(core.InsightsSnapshot), nil
}
