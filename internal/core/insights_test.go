package core

import (
	"testing"
)

func dataset(columns []string, records ...Record) Dataset {
	return Dataset{Version: 1, Columns: columns, Records: records}
}

func TestComputeInsightsBasic(t *testing.T) {
	ds := dataset([]string{"Date", "Amount", "Category"},
		Record{"Date": String("2024-01-15"), "Amount": Number(100), "Category": String("Food")},
		Record{"Date": String("01/20/2024"), "Amount": Number(50), "Category": String("Food")},
	)
	snap, exclusions := ComputeInsights(ds)
	if snap.TotalSpent != 150 {
		t.Fatalf("totalSpent = %v, want 150", snap.TotalSpent)
	}
	if got := snap.MonthlyTotals["2024-01"]; got != 150 {
		t.Fatalf("monthlyTotals[2024-01] = %v, want 150", got)
	}
	if len(snap.MonthlyTotals) != 1 {
		t.Fatalf("unexpected month keys: %v", snap.MonthlyTotals)
	}
	if got := snap.CategoryBreakdown["Food"]; got != 150 {
		t.Fatalf("categoryBreakdown[Food] = %v, want 150", got)
	}
	if len(exclusions) != 0 {
		t.Fatalf("unexpected exclusions: %v", exclusions)
	}
}

func TestComputeInsightsBadAmountExcludedEverywhere(t *testing.T) {
	ds := dataset([]string{"Date", "Amount", "Category"},
		Record{"Date": String("2024-01-15"), "Amount": String("abc"), "Category": String("Food")},
	)
	snap, exclusions := ComputeInsights(ds)
	if snap.TotalSpent != 0 || len(snap.MonthlyTotals) != 0 || len(snap.CategoryBreakdown) != 0 {
		t.Fatalf("record with bad amount must not contribute: %+v", snap)
	}
	if len(exclusions) != 1 || exclusions[0].Reason != SkipUnparseableAmount {
		t.Fatalf("expected one amount exclusion, got %v", exclusions)
	}
}

func TestComputeInsightsMissingDateColumn(t *testing.T) {
	ds := dataset([]string{"Amount"},
		Record{"Amount": Number(75)},
	)
	snap, exclusions := ComputeInsights(ds)
	if snap.TotalSpent != 75 {
		t.Fatalf("totalSpent = %v, want 75", snap.TotalSpent)
	}
	if len(snap.MonthlyTotals) != 0 {
		t.Fatalf("no date column should yield empty monthly totals: %v", snap.MonthlyTotals)
	}
	// Skipped from monthly and category aggregates, still counted in total.
	if len(exclusions) != 2 {
		t.Fatalf("expected date and category exclusions, got %v", exclusions)
	}
}

func TestComputeInsightsMalformedDateStillCountsTowardTotal(t *testing.T) {
	ds := dataset([]string{"Date", "Amount", "Category"},
		Record{"Date": String("2024-01-15"), "Amount": Number(10), "Category": String("Food")},
		Record{"Date": String("02/30/2024"), "Amount": Number(5), "Category": String("Food")},
	)
	snap, exclusions := ComputeInsights(ds)
	if snap.TotalSpent != 15 {
		t.Fatalf("totalSpent = %v, want 15", snap.TotalSpent)
	}
	if got := snap.MonthlyTotals["2024-01"]; got != 10 {
		t.Fatalf("monthlyTotals[2024-01] = %v, want 10", got)
	}
	if got := snap.CategoryBreakdown["Food"]; got != 15 {
		t.Fatalf("categoryBreakdown[Food] = %v, want 15", got)
	}
	if len(exclusions) != 1 || exclusions[0].Reason != SkipUnparseableDate || exclusions[0].Row != 1 {
		t.Fatalf("expected single date exclusion for row 1, got %v", exclusions)
	}
}

func TestComputeInsightsAliasTolerance(t *testing.T) {
	upper := dataset([]string{"Date", "Amount"},
		Record{"Date": String("2024-01-15"), "Amount": Number(100)},
	)
	lower := dataset([]string{"date", "amount"},
		Record{"date": String("2024-01-15"), "amount": Number(100)},
	)
	a, _ := ComputeInsights(upper)
	b, _ := ComputeInsights(lower)
	if a.TotalSpent != b.TotalSpent {
		t.Fatalf("alias mismatch: %v vs %v", a.TotalSpent, b.TotalSpent)
	}
	if a.MonthlyTotals["2024-01"] != b.MonthlyTotals["2024-01"] {
		t.Fatalf("alias mismatch in monthly totals: %v vs %v", a.MonthlyTotals, b.MonthlyTotals)
	}
}

func TestComputeInsightsEmptyDataset(t *testing.T) {
	snap, exclusions := ComputeInsights(Dataset{Version: 1})
	if snap.TotalSpent != 0 || len(snap.MonthlyTotals) != 0 || len(snap.CategoryBreakdown) != 0 {
		t.Fatalf("empty dataset must yield zero snapshot: %+v", snap)
	}
	if snap.Message != MsgEmptyData {
		t.Fatalf("message = %q", snap.Message)
	}
	if exclusions != nil {
		t.Fatalf("unexpected exclusions: %v", exclusions)
	}
}

func TestComputeInsightsDecimalAccumulation(t *testing.T) {
	ds := dataset([]string{"Amount"},
		Record{"Amount": Number(0.1)},
		Record{"Amount": Number(0.2)},
	)
	snap, _ := ComputeInsights(ds)
	if snap.TotalSpent != 0.3 {
		t.Fatalf("totalSpent = %v, want exactly 0.3", snap.TotalSpent)
	}
}

func TestMonthlyTotalsNeverExceedTotal(t *testing.T) {
	ds := dataset([]string{"Date", "Amount"},
		Record{"Date": String("2024-01-15"), "Amount": Number(10)},
		Record{"Date": String("junk"), "Amount": Number(20)},
		Record{"Date": Null(), "Amount": Number(30)},
	)
	snap, _ := ComputeInsights(ds)
	var monthSum float64
	for _, v := range snap.MonthlyTotals {
		monthSum += v
	}
	if monthSum > snap.TotalSpent {
		t.Fatalf("sum(monthlyTotals)=%v exceeds totalSpent=%v", monthSum, snap.TotalSpent)
	}
	if snap.TotalSpent != 60 || monthSum != 10 {
		t.Fatalf("totals: total=%v monthly=%v", snap.TotalSpent, monthSum)
	}
}
