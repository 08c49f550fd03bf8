// backend/src/processors/projection_test.go
package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/divifolio/backend/src/models"
)

func TestClassifyGap_Bands(t *testing.T) {
	assert.Equal(t, models.CadenceMonthly, ClassifyGap(29))
	assert.Equal(t, models.CadenceMonthly, ClassifyGap(25))
	assert.Equal(t, models.CadenceMonthly, ClassifyGap(35))

	assert.Equal(t, models.CadenceQuarterly, ClassifyGap(91))
	assert.Equal(t, models.CadenceQuarterly, ClassifyGap(80))
	assert.Equal(t, models.CadenceQuarterly, ClassifyGap(100))

	assert.Equal(t, models.CadenceAnnual, ClassifyGap(365))
	assert.Equal(t, models.CadenceAnnual, ClassifyGap(350))
	assert.Equal(t, models.CadenceAnnual, ClassifyGap(380))

	assert.Equal(t, models.CadenceIrregular, ClassifyGap(24))
	assert.Equal(t, models.CadenceIrregular, ClassifyGap(60))
	assert.Equal(t, models.CadenceIrregular, ClassifyGap(200))
	assert.Equal(t, models.CadenceIrregular, ClassifyGap(381))
}

func TestProjectHoldings_QuarterlyScenario(t *testing.T) {
	histories := []HoldingHistory{{
		Ticker: "KO",
		Shares: decimal.NewFromInt(100),
		Paid: []PaidPayment{
			{PayDate: "2023-10-02", AmountPerShare: decimal.NewFromFloat(0.46)},
			{PayDate: "2023-12-15", AmountPerShare: decimal.NewFromFloat(0.46)},
			{PayDate: "2024-03-15", AmountPerShare: decimal.NewFromFloat(0.485)},
		},
	}}

	projections, excluded, total, err := ProjectHoldings(histories)
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Empty(t, excluded)

	p := projections[0]
	assert.Equal(t, models.CadenceQuarterly, p.Cadence)
	assert.Equal(t, "2024-06-15", p.NextPayDate)
	assert.True(t, p.NextPayAmount.Equal(decimal.NewFromFloat(48.5)))
	assert.True(t, p.ProjectedAnnual.Equal(decimal.NewFromInt(194)))
	assert.InDelta(t, 100.0, p.PercentOfTotal, 1e-9)
	assert.True(t, total.Equal(decimal.NewFromInt(194)))
}

func TestProjectHoldings_OnlyLatestGapDecidesCadence(t *testing.T) {
	// start of history was quarterly, but latest two payments are a month apart
	histories := []HoldingHistory{{
		Ticker: "O",
		Shares: decimal.NewFromInt(10),
		Paid: []PaidPayment{
			{PayDate: "2023-06-15", AmountPerShare: decimal.NewFromFloat(0.25)},
			{PayDate: "2023-09-15", AmountPerShare: decimal.NewFromFloat(0.25)},
			{PayDate: "2024-02-15", AmountPerShare: decimal.NewFromFloat(0.26)},
			{PayDate: "2024-03-15", AmountPerShare: decimal.NewFromFloat(0.26)},
		},
	}}

	projections, _, _, err := ProjectHoldings(histories)
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, models.CadenceMonthly, projections[0].Cadence)
	assert.Equal(t, "2024-04-15", projections[0].NextPayDate)
	assert.True(t, projections[0].ProjectedAnnual.Equal(decimal.NewFromFloat(31.2)))
}

func TestProjectHoldings_UnsortedHistoryIsSortedFirst(t *testing.T) {
	histories := []HoldingHistory{{
		Ticker: "MSFT",
		Shares: decimal.NewFromInt(50),
		Paid: []PaidPayment{
			{PayDate: "2024-03-14", AmountPerShare: decimal.NewFromFloat(0.75)},
			{PayDate: "2023-12-14", AmountPerShare: decimal.NewFromFloat(0.75)},
		},
	}}

	projections, _, _, err := ProjectHoldings(histories)
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, models.CadenceQuarterly, projections[0].Cadence)
	assert.Equal(t, "2024-06-14", projections[0].NextPayDate)
}

func TestProjectHoldings_Exclusions(t *testing.T) {
	histories := []HoldingHistory{
		{Ticker: "NEW", Shares: decimal.NewFromInt(10)},
		{Ticker: "ONE", Shares: decimal.NewFromInt(10), Paid: []PaidPayment{
			{PayDate: "2024-01-15", AmountPerShare: decimal.NewFromFloat(0.5)},
		}},
		{Ticker: "SPEC", Shares: decimal.NewFromInt(10), Paid: []PaidPayment{
			{PayDate: "2023-06-01", AmountPerShare: decimal.NewFromFloat(1.0)},
			{PayDate: "2024-01-15", AmountPerShare: decimal.NewFromFloat(0.2)},
		}},
	}

	projections, excluded, total, err := ProjectHoldings(histories)
	require.NoError(t, err)
	assert.Empty(t, projections)
	assert.True(t, total.IsZero())
	require.Len(t, excluded, 3)

	assert.Equal(t, models.ReasonInsufficientHistory, excluded[0].Reason)
	assert.Equal(t, models.ReasonInsufficientHistory, excluded[1].Reason)
	assert.Equal(t, "SPEC", excluded[2].Ticker)
	assert.Equal(t, models.ReasonIrregularHistory, excluded[2].Reason)
}

func TestProjectHoldings_PercentOfTotalAcrossHoldings(t *testing.T) {
	histories := []HoldingHistory{
		{Ticker: "A", Shares: decimal.NewFromInt(100), Paid: []PaidPayment{
			{PayDate: "2024-01-15", AmountPerShare: decimal.NewFromFloat(0.25)},
			{PayDate: "2024-04-15", AmountPerShare: decimal.NewFromFloat(0.25)},
		}},
		{Ticker: "B", Shares: decimal.NewFromInt(100), Paid: []PaidPayment{
			{PayDate: "2024-03-01", AmountPerShare: decimal.NewFromFloat(0.75)},
			{PayDate: "2024-04-01", AmountPerShare: decimal.NewFromFloat(0.75)},
		}},
	}

	projections, _, total, err := ProjectHoldings(histories)
	require.NoError(t, err)
	require.Len(t, projections, 2)

	// A: 25 quarterly = 100/yr, B: 75 monthly = 900/yr
	assert.True(t, total.Equal(decimal.NewFromInt(1000)))
	assert.InDelta(t, 10.0, projections[0].PercentOfTotal, 1e-9)
	assert.InDelta(t, 90.0, projections[1].PercentOfTotal, 1e-9)
}

func TestProjectHoldings_MalformedDateIsAnError(t *testing.T) {
	histories := []HoldingHistory{{
		Ticker: "KO",
		Shares: decimal.NewFromInt(1),
		Paid: []PaidPayment{
			{PayDate: "2024-01-15", AmountPerShare: decimal.NewFromFloat(0.5)},
			{PayDate: "not-a-date", AmountPerShare: decimal.NewFromFloat(0.5)},
		},
	}}

	_, _, _, err := ProjectHoldings(histories)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pay date")
}

func TestIncomeTrend(t *testing.T) {
	trend, pct := IncomeTrend(decimal.NewFromInt(120), decimal.NewFromInt(100))
	assert.Equal(t, "up", trend)
	assert.InDelta(t, 20.0, pct, 1e-9)

	trend, pct = IncomeTrend(decimal.NewFromInt(80), decimal.NewFromInt(100))
	assert.Equal(t, "down", trend)
	assert.InDelta(t, -20.0, pct, 1e-9)

	trend, pct = IncomeTrend(decimal.NewFromInt(100), decimal.NewFromInt(100))
	assert.Equal(t, "flat", trend)
	assert.Equal(t, 0.0, pct)

	trend, pct = IncomeTrend(decimal.NewFromInt(500), decimal.Zero)
	assert.Equal(t, "flat", trend)
	assert.Equal(t, 0.0, pct)
}

func TestTTMIncome_WindowBounds(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	divs := []models.Dividend{
		paidDividend("d1", "KO", "2023-06-15", 10), // exactly one year back, outside
		paidDividend("d2", "KO", "2023-06-16", 20), // first day inside
		paidDividend("d3", "KO", "2024-06-15", 30), // today, inside
		paidDividend("d4", "KO", "2024-06-16", 40), // future, outside
		{ID: "d5", Ticker: "KO", PayDate: "2024-05-01", TotalAmount: decimal.NewFromInt(99), Status: models.StatusScheduled},
	}

	total, err := TTMIncome(divs, now)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(50)))
}

func TestBuildChartMonths_MixesActualAndProjected(t *testing.T) {
	now := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	paid := []models.Dividend{
		paidDividend("d1", "KO", "2024-01-15", 46),  // window starts 2024-01
		paidDividend("d2", "KO", "2024-04-15", 46),
		paidDividend("d3", "KO", "2023-12-15", 46),  // before window, dropped
	}
	projections := []models.HoldingProjection{{
		Ticker:        "KO",
		Cadence:       models.CadenceQuarterly,
		NextPayDate:   "2024-07-15",
		NextPayAmount: decimal.NewFromFloat(48.5),
	}}

	chart, err := BuildChartMonths(paid, projections, now)
	require.NoError(t, err)
	require.Len(t, chart, ChartWindowMonths)

	assert.Equal(t, 2024, chart[0].Year)
	assert.Equal(t, 1, chart[0].Month)
	assert.True(t, chart[0].Actual.Equal(decimal.NewFromInt(46)))
	assert.True(t, chart[3].Actual.Equal(decimal.NewFromInt(46)))

	// projected payments land in July and October, stepping the quarterly interval
	july := chart[6]
	assert.Equal(t, 7, july.Month)
	assert.True(t, july.Projected.Equal(decimal.NewFromFloat(48.5)))
	october := chart[9]
	assert.Equal(t, 10, october.Month)
	assert.True(t, october.Projected.Equal(decimal.NewFromFloat(48.5)))
	assert.True(t, chart[7].Projected.IsZero())

	assert.True(t, july.PerTicker["KO"].Equal(decimal.NewFromFloat(48.5)))
}
