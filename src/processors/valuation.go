// backend/src/processors/valuation.go
package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

// AggregateHoldings collapses per-lot holdings into one row per ticker
// with total shares and a share-weighted average cost basis. Rows come
// back sorted by ticker so output order never depends on lot insertion
// order.
func AggregateHoldings(lots []models.Holding) []models.AggregatedHolding {
	byTicker := make(map[string]*models.AggregatedHolding)
	for _, lot := range lots {
		agg, ok := byTicker[lot.Ticker]
		if !ok {
			agg = &models.AggregatedHolding{Ticker: lot.Ticker}
			byTicker[lot.Ticker] = agg
		}
		agg.Shares = agg.Shares.Add(lot.Shares)
		agg.CostBasis = agg.CostBasis.Add(lot.Shares.Mul(lot.AvgCostBasis))
	}

	rows := make([]models.AggregatedHolding, 0, len(byTicker))
	for _, agg := range byTicker {
		if agg.Shares.IsPositive() {
			agg.AvgCostBasis = agg.CostBasis.Div(agg.Shares)
		}
		rows = append(rows, *agg)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })
	return rows
}

// ValueHoldings prices a set of lots against a ticker-to-price map. A
// ticker with no price contributes its cost basis to the total instead of
// being skipped, and the result is flagged partial so callers can tell a
// fully priced value from a degraded one. No lots yields a zero, complete
// valuation.
func ValueHoldings(lots []models.Holding, prices map[string]decimal.Decimal) models.Valuation {
	var v models.Valuation
	for _, lot := range lots {
		cost := lot.Shares.Mul(lot.AvgCostBasis)
		v.CostBasis = v.CostBasis.Add(cost)
		if price, ok := prices[lot.Ticker]; ok {
			v.TotalValue = v.TotalValue.Add(lot.Shares.Mul(price))
		} else {
			v.TotalValue = v.TotalValue.Add(cost)
			v.IsPartial = true
		}
	}
	return v
}

// BuildValueSeries computes a historical valuation series over the given
// dates. A date where any held ticker lacks a price is dropped from the
// series entirely rather than producing a misleading partial point.
// pricesByDate maps date to ticker to closing price. Points come back in
// ascending date order.
func BuildValueSeries(lots []models.Holding, pricesByDate map[string]map[string]decimal.Decimal, dates []string) []models.ValuePoint {
	tickers := make(map[string]struct{})
	costBasis := decimal.Zero
	for _, lot := range lots {
		tickers[lot.Ticker] = struct{}{}
		costBasis = costBasis.Add(lot.Shares.Mul(lot.AvgCostBasis))
	}

	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Strings(sorted)

	series := make([]models.ValuePoint, 0, len(sorted))
	for _, date := range sorted {
		dayPrices := pricesByDate[date]
		covered := true
		for t := range tickers {
			if _, ok := dayPrices[t]; !ok {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		value := decimal.Zero
		for _, lot := range lots {
			value = value.Add(lot.Shares.Mul(dayPrices[lot.Ticker]))
		}
		series = append(series, models.ValuePoint{
			Date:       date,
			TotalValue: value,
			CostBasis:  costBasis,
		})
	}
	return series
}
