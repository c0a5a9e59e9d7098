package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

func month(key string, revenue, expenses int64) core.MonthlyData {
	return core.MonthlyData{Month: key, Revenue: decimal.NewFromInt(revenue), Expenses: decimal.NewFromInt(expenses)}
}

func labels(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBucketYear(t *testing.T) {
	series := []core.MonthlyData{month("2024-01", 100, 40), month("2024-04", 50, 10)}
	got := Bucket(series, Year)
	if len(got) != 1 {
		t.Fatalf("got %d buckets, want 1: %+v", len(got), got)
	}
	if got[0].Label != "2024" || !got[0].Revenue.Equal(decimal.NewFromInt(150)) || !got[0].Expenses.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("bucket = %+v", got[0])
	}
}

func TestBucketQuarter(t *testing.T) {
	series := []core.MonthlyData{
		month("2024-05", 10, 1),
		month("2024-01", 100, 40),
		month("2024-03", 20, 5),
		month("2023-12", 7, 7),
		month("2024-04", 50, 10),
	}
	got := Bucket(series, Quarter)
	want := []string{"Q1 2024", "Q2 2024", "Q4 2023"}
	if !equalStrings(labels(got), want) {
		t.Fatalf("labels = %v, want %v", labels(got), want)
	}
	if !got[0].Revenue.Equal(decimal.NewFromInt(120)) || !got[0].Expenses.Equal(decimal.NewFromInt(45)) {
		t.Errorf("Q1 = %+v", got[0])
	}
	if !got[1].Revenue.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Q2 = %+v", got[1])
	}
}

func TestBucketMonth(t *testing.T) {
	series := []core.MonthlyData{month("2024-02", 2, 1), month("2023-11", 1, 1), month("2024-10", 3, 0)}
	got := Bucket(series, Month)
	want := []string{"Nov 23", "Feb 24", "Oct 24"}
	if !equalStrings(labels(got), want) {
		t.Fatalf("labels = %v, want %v", labels(got), want)
	}
}

func TestBucketEmptyAndInvalid(t *testing.T) {
	for _, g := range []Granularity{Month, Quarter, Year} {
		if got := Bucket(nil, g); got == nil || len(got) != 0 {
			t.Errorf("%s: Bucket(nil) = %#v", g, got)
		}
	}
	got := Bucket([]core.MonthlyData{month("January", 1, 1), month("2024-13", 1, 1), month("2024-06", 5, 2)}, Month)
	if len(got) != 1 || got[0].Label != "Jun 24" {
		t.Fatalf("invalid keys not skipped: %+v", got)
	}
}

func TestBucketPreservesTotals(t *testing.T) {
	series := []core.MonthlyData{
		month("2022-12", 13, 2),
		month("2023-01", 100, 40),
		month("2023-02", 70, 90),
		month("2023-07", 5, 5),
		month("2024-03", 1, 0),
		month("2024-03", 9, 3),
	}
	series[2].Revenue = decimal.RequireFromString("70.15")
	var wantRev, wantExp decimal.Decimal
	for _, m := range series {
		wantRev = wantRev.Add(m.Revenue)
		wantExp = wantExp.Add(m.Expenses)
	}
	for _, g := range []Granularity{Month, Quarter, Year} {
		rev, exp := Totals(Bucket(series, g))
		if !rev.Equal(wantRev) || !exp.Equal(wantExp) {
			t.Errorf("%s: totals = %s/%s, want %s/%s", g, rev, exp, wantRev, wantExp)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	cases := map[string]Granularity{
		"month":   Month,
		"Quarter": Quarter,
		" year ":  Year,
		"":        Month,
		"weekly":  Month,
	}
	for in, want := range cases {
		if got := ParseGranularity(in); got != want {
			t.Errorf("ParseGranularity(%q) = %s, want %s", in, got, want)
		}
	}
}
