// Package aggregate reshapes the monthly revenue/expense series of the
// dashboard summary into chart buckets.
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// Granularity is the bucketing unit of the chart.
type Granularity string

const (
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

const monthKeyLayout = "2006-01"

// ParseGranularity maps unknown values to Month.
func ParseGranularity(s string) Granularity {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Quarter:
		return Quarter
	case Year:
		return Year
	default:
		return Month
	}
}

// Point is one chart bucket.
type Point struct {
	Label    string
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// Net is revenue minus expenses for the bucket.
func (p Point) Net() decimal.Decimal {
	return p.Revenue.Sub(p.Expenses)
}

type monthPoint struct {
	at   time.Time
	data core.MonthlyData
}

// Bucket groups series by g and returns the buckets in chart order. Entries
// whose month key is not YYYY-MM are skipped. An empty series gives an empty,
// non-nil result.
func Bucket(series []core.MonthlyData, g Granularity) []Point {
	months := make([]monthPoint, 0, len(series))
	for _, m := range series {
		at, err := time.Parse(monthKeyLayout, strings.TrimSpace(m.Month))
		if err != nil {
			continue
		}
		months = append(months, monthPoint{at: at, data: m})
	}

	switch g {
	case Quarter:
		return group(months, func(at time.Time) string {
			return fmt.Sprintf("Q%d %d", (int(at.Month())+2)/3, at.Year())
		})
	case Year:
		return group(months, func(at time.Time) string {
			return at.Format("2006")
		})
	default:
		return byMonth(months)
	}
}

// group sums the months sharing a label and orders the buckets by label.
func group(months []monthPoint, label func(time.Time) string) []Point {
	idx := make(map[string]int, len(months))
	out := make([]Point, 0, len(months))
	for _, m := range months {
		key := label(m.at)
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, Point{Label: key})
		}
		out[i].Revenue = out[i].Revenue.Add(m.data.Revenue)
		out[i].Expenses = out[i].Expenses.Add(m.data.Expenses)
	}
	// Labels compare lexically; "Q1 2025" sorts before "Q2 2024".
	sort.SliceStable(out, func(a, b int) bool { return out[a].Label < out[b].Label })
	return out
}

func byMonth(months []monthPoint) []Point {
	sort.SliceStable(months, func(a, b int) bool { return months[a].at.Before(months[b].at) })
	out := make([]Point, 0, len(months))
	for _, m := range months {
		out = append(out, Point{
			Label:    m.at.Format("Jan 06"),
			Revenue:  m.data.Revenue,
			Expenses: m.data.Expenses,
		})
	}
	return out
}

// Totals sums revenue and expenses over points.
func Totals(points []Point) (revenue, expenses decimal.Decimal) {
	for _, p := range points {
		revenue = revenue.Add(p.Revenue)
		expenses = expenses.Add(p.Expenses)
	}
	return revenue, expenses
}
