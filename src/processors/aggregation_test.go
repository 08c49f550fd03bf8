// backend/src/processors/aggregation_test.go
package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/divifolio/backend/src/models"
)

func paidDividend(id, ticker, payDate string, total float64) models.Dividend {
	return models.Dividend{
		ID:          id,
		Ticker:      ticker,
		PayDate:     payDate,
		TotalAmount: decimal.NewFromFloat(total),
		Status:      models.StatusPaid,
	}
}

func TestAggregatePaidDividends_YearlyBuckets(t *testing.T) {
	divs := []models.Dividend{
		paidDividend("d1", "KO", "2023-03-15", 10),
		paidDividend("d2", "KO", "2023-09-15", 12),
		paidDividend("d3", "MSFT", "2023-06-10", 5),
		paidDividend("d4", "KO", "2024-03-15", 11),
	}

	periods, err := AggregatePaidDividends(divs, ByYear)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, 2023, periods[0].Year)
	assert.True(t, periods[0].Total.Equal(decimal.NewFromInt(27)))
	assert.True(t, periods[0].PerTicker["KO"].Equal(decimal.NewFromInt(22)))
	assert.True(t, periods[0].PerTicker["MSFT"].Equal(decimal.NewFromInt(5)))

	assert.Equal(t, 2024, periods[1].Year)
	assert.True(t, periods[1].Total.Equal(decimal.NewFromInt(11)))
}

func TestAggregatePaidDividends_QuarterlyBuckets(t *testing.T) {
	divs := []models.Dividend{
		paidDividend("d1", "KO", "2023-01-10", 10), // Q1
		paidDividend("d2", "KO", "2023-03-31", 10), // Q1
		paidDividend("d3", "KO", "2023-04-01", 10), // Q2
		paidDividend("d4", "KO", "2023-12-31", 10), // Q4
	}

	periods, err := AggregatePaidDividends(divs, ByQuarter)
	require.NoError(t, err)
	require.Len(t, periods, 3)

	assert.Equal(t, 1, periods[0].Quarter)
	assert.True(t, periods[0].Total.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 2, periods[1].Quarter)
	assert.Equal(t, 4, periods[2].Quarter)
}

func TestAggregatePaidDividends_SumOfBucketsMatchesPaidInput(t *testing.T) {
	divs := []models.Dividend{
		paidDividend("d1", "KO", "2021-02-01", 3.25),
		paidDividend("d2", "O", "2022-07-01", 1.10),
		paidDividend("d3", "O", "2023-11-01", 2.40),
		{ID: "d4", Ticker: "KO", PayDate: "2023-12-01", TotalAmount: decimal.NewFromInt(99), Status: models.StatusScheduled},
	}

	periods, err := AggregatePaidDividends(divs, ByYear)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, p := range periods {
		sum = sum.Add(p.Total)
	}
	assert.True(t, sum.Equal(decimal.NewFromFloat(6.75)), "bucket sum must equal total paid input, got %s", sum)
}

func TestAggregatePaidDividends_SkipsScheduledAndProjected(t *testing.T) {
	divs := []models.Dividend{
		paidDividend("d1", "KO", "2023-03-15", 10),
		{ID: "d2", Ticker: "KO", PayDate: "2023-06-15", TotalAmount: decimal.NewFromInt(10), Status: models.StatusScheduled},
		{ID: "d3", Ticker: "KO", PayDate: "2023-09-15", TotalAmount: decimal.NewFromInt(10), Status: models.StatusProjected},
	}

	periods, err := AggregatePaidDividends(divs, ByYear)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.True(t, periods[0].Total.Equal(decimal.NewFromInt(10)))
}

func TestAggregatePaidDividends_MalformedDateIsAnError(t *testing.T) {
	divs := []models.Dividend{paidDividend("d1", "KO", "15/03/2023", 10)}

	_, err := AggregatePaidDividends(divs, ByYear)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pay date")
}

func TestAggregatePaidDividends_UnknownStatusIsAnError(t *testing.T) {
	divs := []models.Dividend{
		{ID: "d1", Ticker: "KO", PayDate: "2023-03-15", TotalAmount: decimal.NewFromInt(10), Status: models.DividendStatus("pending")},
	}

	_, err := AggregatePaidDividends(divs, ByYear)
	require.Error(t, err)
}

func TestQuarterOf_MonthBoundaries(t *testing.T) {
	assert.Equal(t, 1, QuarterOf(1))
	assert.Equal(t, 1, QuarterOf(3))
	assert.Equal(t, 2, QuarterOf(4))
	assert.Equal(t, 3, QuarterOf(9))
	assert.Equal(t, 4, QuarterOf(10))
	assert.Equal(t, 4, QuarterOf(12))
}

func TestMostRecentPeriods_SelectsLatestAndSortsAscending(t *testing.T) {
	periods := []models.AggregatedPeriod{
		{Year: 2024, Quarter: 1, Total: decimal.NewFromInt(4)},
		{Year: 2023, Quarter: 3, Total: decimal.NewFromInt(2)},
		{Year: 2023, Quarter: 4, Total: decimal.NewFromInt(3)},
		{Year: 2023, Quarter: 2, Total: decimal.NewFromInt(1)},
	}

	recent := MostRecentPeriods(periods, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, [2]int{2023, 3}, [2]int{recent[0].Year, recent[0].Quarter})
	assert.Equal(t, [2]int{2023, 4}, [2]int{recent[1].Year, recent[1].Quarter})
	assert.Equal(t, [2]int{2024, 1}, [2]int{recent[2].Year, recent[2].Quarter})
}

func TestMostRecentPeriods_NLargerThanInput(t *testing.T) {
	periods := []models.AggregatedPeriod{{Year: 2023}}
	assert.Len(t, MostRecentPeriods(periods, 8), 1)
	assert.Empty(t, MostRecentPeriods(periods, 0))
}
