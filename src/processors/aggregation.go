// backend/src/processors/aggregation.go
package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

// Granularity selects the calendar bucket used when aggregating dividends.
type Granularity int

const (
	ByYear Granularity = iota
	ByQuarter
)

// QuarterOf maps a calendar month (1-12) to its quarter (1-4).
func QuarterOf(month time.Month) int {
	return (int(month) + 2) / 3
}

// AggregatePaidDividends groups paid dividend records into calendar buckets
// and sums them per ticker. Buckets are returned in ascending chronological
// order regardless of input order. Scheduled and projected records are not
// realized income and are skipped; a record whose pay date cannot be parsed
// is an input error raised to the caller, never silently dropped.
func AggregatePaidDividends(divs []models.Dividend, granularity Granularity) ([]models.AggregatedPeriod, error) {
	type bucketKey struct {
		year    int
		quarter int
	}

	buckets := make(map[bucketKey]*models.AggregatedPeriod)

	for _, d := range divs {
		switch d.Status {
		case models.StatusPaid:
			// realized income, aggregate below
		case models.StatusScheduled, models.StatusProjected:
			continue
		default:
			return nil, fmt.Errorf("unknown dividend status %q for dividend %s", d.Status, d.ID)
		}

		payDate, err := time.Parse(models.DateLayout, d.PayDate)
		if err != nil {
			return nil, fmt.Errorf("invalid pay date %q for dividend %s: %w", d.PayDate, d.ID, err)
		}

		key := bucketKey{year: payDate.Year()}
		if granularity == ByQuarter {
			key.quarter = QuarterOf(payDate.Month())
		}

		bucket, ok := buckets[key]
		if !ok {
			bucket = &models.AggregatedPeriod{
				Year:      key.year,
				Quarter:   key.quarter,
				PerTicker: make(map[string]decimal.Decimal),
			}
			buckets[key] = bucket
		}

		bucket.PerTicker[d.Ticker] = bucket.PerTicker[d.Ticker].Add(d.TotalAmount)
		bucket.Total = bucket.Total.Add(d.TotalAmount)
	}

	periods := make([]models.AggregatedPeriod, 0, len(buckets))
	for _, b := range buckets {
		periods = append(periods, *b)
	}
	sortPeriodsAscending(periods)
	return periods, nil
}

// MostRecentPeriods selects the n buckets with the largest (year, quarter)
// key and returns them re-sorted ascending, so callers always see
// oldest-first output.
func MostRecentPeriods(periods []models.AggregatedPeriod, n int) []models.AggregatedPeriod {
	if n <= 0 || len(periods) == 0 {
		return []models.AggregatedPeriod{}
	}
	sorted := make([]models.AggregatedPeriod, len(periods))
	copy(sorted, periods)
	sortPeriodsAscending(sorted)
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

// FindPeriod returns the bucket matching (year, quarter), if present.
// A quarter of 0 matches yearly buckets.
func FindPeriod(periods []models.AggregatedPeriod, year, quarter int) (models.AggregatedPeriod, bool) {
	for _, p := range periods {
		if p.Year == year && p.Quarter == quarter {
			return p, true
		}
	}
	return models.AggregatedPeriod{}, false
}

func sortPeriodsAscending(periods []models.AggregatedPeriod) {
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year < periods[j].Year
		}
		return periods[i].Quarter < periods[j].Quarter
	})
}
