// backend/src/processors/growth_test.go
package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCompareGrowth_PositiveGrowth(t *testing.T) {
	got := CompareGrowth(decimal.NewFromInt(120), decimal.NewFromInt(100))

	assert.True(t, got.GrowthAmount.Equal(decimal.NewFromInt(20)))
	assert.InDelta(t, 20.0, got.GrowthPercent, 1e-9)
}

func TestCompareGrowth_Decline(t *testing.T) {
	got := CompareGrowth(decimal.NewFromInt(75), decimal.NewFromInt(100))

	assert.True(t, got.GrowthAmount.Equal(decimal.NewFromInt(-25)))
	assert.InDelta(t, -25.0, got.GrowthPercent, 1e-9)
}

func TestCompareGrowth_ZeroPreviousReportsZeroPercent(t *testing.T) {
	got := CompareGrowth(decimal.NewFromInt(50), decimal.Zero)

	assert.True(t, got.GrowthAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 0.0, got.GrowthPercent)
}

func TestAnnualCAGR_ZeroYearInsideSpanStillCounts(t *testing.T) {
	years := []YearTotal{
		{Year: 2021, Total: decimal.NewFromInt(100)},
		{Year: 2022, Total: decimal.Zero},
		{Year: 2023, Total: decimal.NewFromInt(121)},
	}

	// endpoints 100 and 121 over a two year span: (1.21)^(1/2) - 1 = 10%
	assert.InDelta(t, 10.0, AnnualCAGR(years), 1e-9)
}

func TestAnnualCAGR_LeadingAndTrailingZeroYearsAreNotEndpoints(t *testing.T) {
	years := []YearTotal{
		{Year: 2019, Total: decimal.Zero},
		{Year: 2020, Total: decimal.NewFromInt(100)},
		{Year: 2022, Total: decimal.NewFromInt(144)},
		{Year: 2023, Total: decimal.Zero},
	}

	// endpoints 2020 and 2022: (1.44)^(1/2) - 1 = 20%
	assert.InDelta(t, 20.0, AnnualCAGR(years), 1e-9)
}

func TestAnnualCAGR_FewerThanTwoPositiveYears(t *testing.T) {
	assert.Equal(t, 0.0, AnnualCAGR(nil))
	assert.Equal(t, 0.0, AnnualCAGR([]YearTotal{{Year: 2023, Total: decimal.NewFromInt(50)}}))
	assert.Equal(t, 0.0, AnnualCAGR([]YearTotal{
		{Year: 2022, Total: decimal.Zero},
		{Year: 2023, Total: decimal.Zero},
	}))
}
