// backend/src/processors/valuation_test.go
package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/divifolio/backend/src/models"
)

func lot(ticker string, shares, avgCost float64) models.Holding {
	return models.Holding{
		Ticker:       ticker,
		Shares:       decimal.NewFromFloat(shares),
		AvgCostBasis: decimal.NewFromFloat(avgCost),
	}
}

func TestAggregateHoldings_WeightedAverageCost(t *testing.T) {
	lots := []models.Holding{
		lot("KO", 100, 50),
		lot("KO", 50, 62),
		lot("MSFT", 10, 300),
	}

	rows := AggregateHoldings(lots)
	require.Len(t, rows, 2)

	ko := rows[0]
	assert.Equal(t, "KO", ko.Ticker)
	assert.True(t, ko.Shares.Equal(decimal.NewFromInt(150)))
	assert.True(t, ko.CostBasis.Equal(decimal.NewFromInt(8100)))
	assert.True(t, ko.AvgCostBasis.Equal(decimal.NewFromInt(54)))

	assert.Equal(t, "MSFT", rows[1].Ticker)
}

func TestValueHoldings_FullyPriced(t *testing.T) {
	lots := []models.Holding{
		lot("KO", 100, 50),
		lot("MSFT", 10, 300),
	}
	prices := map[string]decimal.Decimal{
		"KO":   decimal.NewFromInt(60),
		"MSFT": decimal.NewFromInt(400),
	}

	v := ValueHoldings(lots, prices)
	assert.True(t, v.TotalValue.Equal(decimal.NewFromInt(10000)))
	assert.True(t, v.CostBasis.Equal(decimal.NewFromInt(8000)))
	assert.False(t, v.IsPartial)
}

func TestValueHoldings_MissingPriceFallsBackToCostBasis(t *testing.T) {
	lots := []models.Holding{
		lot("KO", 100, 50),
		lot("OBSCURE", 10, 20),
	}
	prices := map[string]decimal.Decimal{"KO": decimal.NewFromInt(60)}

	v := ValueHoldings(lots, prices)
	assert.True(t, v.TotalValue.Equal(decimal.NewFromInt(6200)), "60*100 priced + 200 cost fallback")
	assert.True(t, v.CostBasis.Equal(decimal.NewFromInt(5200)))
	assert.True(t, v.IsPartial)
}

func TestValueHoldings_NoHoldings(t *testing.T) {
	v := ValueHoldings(nil, map[string]decimal.Decimal{})
	assert.True(t, v.TotalValue.IsZero())
	assert.True(t, v.CostBasis.IsZero())
	assert.False(t, v.IsPartial)
}

func TestBuildValueSeries_DropsDatesMissingAnyTicker(t *testing.T) {
	lots := []models.Holding{
		lot("KO", 10, 50),
		lot("MSFT", 2, 300),
	}
	dates := []string{"2024-06-03", "2024-06-04", "2024-06-05", "2024-06-06", "2024-06-07"}
	pricesByDate := map[string]map[string]decimal.Decimal{
		"2024-06-03": {"KO": decimal.NewFromInt(60), "MSFT": decimal.NewFromInt(400)},
		"2024-06-04": {"KO": decimal.NewFromInt(61), "MSFT": decimal.NewFromInt(402)},
		"2024-06-05": {"KO": decimal.NewFromInt(62)}, // MSFT missing, day dropped
		"2024-06-06": {"KO": decimal.NewFromInt(63), "MSFT": decimal.NewFromInt(404)},
		"2024-06-07": {"KO": decimal.NewFromInt(64), "MSFT": decimal.NewFromInt(406)},
	}

	series := BuildValueSeries(lots, pricesByDate, dates)
	require.Len(t, series, 4)
	for _, point := range series {
		assert.NotEqual(t, "2024-06-05", point.Date)
		assert.True(t, point.CostBasis.Equal(decimal.NewFromInt(1100)))
	}
	assert.Equal(t, "2024-06-03", series[0].Date)
	assert.True(t, series[0].TotalValue.Equal(decimal.NewFromInt(1400)))
	assert.Equal(t, "2024-06-07", series[3].Date)
	assert.True(t, series[3].TotalValue.Equal(decimal.NewFromInt(1452)))
}

func TestBuildValueSeries_NoDates(t *testing.T) {
	series := BuildValueSeries([]models.Holding{lot("KO", 1, 1)}, nil, nil)
	assert.Empty(t, series)
}
