package core

import (
	"github.com/shopspring/decimal"
)

// Messages surfaced with an empty snapshot instead of an error.
const (
	MsgNoData    = "No transaction data found. Please upload a CSV file."
	MsgEmptyData = "Transaction data is empty."
)

// InsightsSnapshot holds the derived aggregates for the current dataset. It
// is recomputed on every query, never persisted.
type InsightsSnapshot struct {
	TotalSpent        float64            `json:"totalSpent"`
	MonthlyTotals     map[string]float64 `json:"monthlyTotals"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	Message           string             `json:"message,omitempty"`
}

// SkipReason explains why a record was left out of an aggregate. Skips are
// per-record data, not errors; footer and filler rows are expected in real
// exports.
type SkipReason string

const (
	SkipUnparseableAmount SkipReason = "unparseable-amount"
	SkipUnparseableDate   SkipReason = "unparseable-date"
	SkipMissingCategory   SkipReason = "missing-category"
)

// Exclusion records one skipped contribution during an aggregation pass.
// A record with a bad amount is excluded everywhere; a record with a bad
// date or missing category still counts toward the total.
type Exclusion struct {
	Row    int
	Reason SkipReason
}

// ComputeInsights derives total spend, per-month totals and per-category
// totals from the dataset. Sums are accumulated as exact decimals and only
// converted to float64 at the edge. The exclusion list reports every record
// that was skipped from an aggregate, in row order.
func ComputeInsights(ds Dataset) (InsightsSnapshot, []Exclusion) {
	snapshot := InsightsSnapshot{
		MonthlyTotals:     map[string]float64{},
		CategoryBreakdown: map[string]float64{},
	}
	if ds.Empty() {
		snapshot.Message = MsgEmptyData
		return snapshot, nil
	}

	total := decimal.Zero
	monthly := map[string]decimal.Decimal{}
	byCategory := map[string]decimal.Decimal{}
	var exclusions []Exclusion

	for i, rec := range ds.Records {
		amount, ok := AmountOf(rec, ds.Columns)
		if !ok {
			exclusions = append(exclusions, Exclusion{Row: i, Reason: SkipUnparseableAmount})
			continue
		}
		d := decimal.NewFromFloat(amount)
		total = total.Add(d)

		if raw, ok := DateOf(rec, ds.Columns); ok {
			if t, ok := ParseTransactionDate(raw); ok {
				key := MonthKey(t)
				monthly[key] = monthly[key].Add(d)
			} else {
				exclusions = append(exclusions, Exclusion{Row: i, Reason: SkipUnparseableDate})
			}
		} else {
			exclusions = append(exclusions, Exclusion{Row: i, Reason: SkipUnparseableDate})
		}

		if label, ok := CategoryOf(rec, ds.Columns); ok {
			byCategory[label] = byCategory[label].Add(d)
		} else {
			exclusions = append(exclusions, Exclusion{Row: i, Reason: SkipMissingCategory})
		}
	}

	snapshot.TotalSpent = total.InexactFloat64()
	for k, v := range monthly {
		snapshot.MonthlyTotals[k] = v.InexactFloat64()
	}
	for k, v := range byCategory {
		snapshot.CategoryBreakdown[k] = v.InexactFloat64()
	}
	return snapshot, exclusions
}
