// backend/src/processors/growth.go
package processors

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

// YearTotal is one calendar year of realized dividend income.
type YearTotal struct {
	Year  int
	Total decimal.Decimal
}

// CompareGrowth computes the absolute and percentage change between two
// period totals. When the previous period is zero the percentage is
// reported as 0 rather than an undefined division result.
func CompareGrowth(current, previous decimal.Decimal) models.GrowthComparison {
	comparison := models.GrowthComparison{
		CurrentAmount:  current,
		PreviousAmount: previous,
		GrowthAmount:   current.Sub(previous),
	}
	if previous.IsZero() {
		return comparison
	}
	pct, _ := comparison.GrowthAmount.Div(previous).Float64()
	comparison.GrowthPercent = pct * 100
	return comparison
}

// AnnualCAGR computes the compound annual growth rate, as a percentage,
// of yearly income totals. Only years with positive income qualify as
// endpoints: the first and last such years anchor the calculation, but
// zero-income years between them still count toward the elapsed span.
// Fewer than two qualifying years yields 0.
func AnnualCAGR(years []YearTotal) float64 {
	qualifying := make([]YearTotal, 0, len(years))
	for _, y := range years {
		if y.Total.IsPositive() {
			qualifying = append(qualifying, y)
		}
	}
	if len(qualifying) < 2 {
		return 0
	}
	sort.Slice(qualifying, func(i, j int) bool { return qualifying[i].Year < qualifying[j].Year })

	first := qualifying[0]
	last := qualifying[len(qualifying)-1]
	span := last.Year - first.Year
	if span <= 0 {
		return 0
	}

	ratio, _ := last.Total.Div(first.Total).Float64()
	return (math.Pow(ratio, 1/float64(span)) - 1) * 100
}

// YearTotalsFromPeriods flattens yearly aggregation buckets into the
// shape AnnualCAGR consumes. Buckets must be yearly (quarter 0).
func YearTotalsFromPeriods(periods []models.AggregatedPeriod) []YearTotal {
	totals := make([]YearTotal, 0, len(periods))
	for _, p := range periods {
		totals = append(totals, YearTotal{Year: p.Year, Total: p.Total})
	}
	return totals
}
