// backend/src/processors/trailing_test.go
package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/divifolio/backend/src/models"
)

func accountDividend(id, account, payDate string, total float64) models.Dividend {
	d := paidDividend(id, "KO", payDate, total)
	d.AccountID = account
	return d
}

func TestTrailingMonthKeys_YearRollover(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	keys := TrailingMonthKeys(4, now)
	require.Len(t, keys, 4)
	assert.Equal(t, [2]int{2023, 11}, keys[0])
	assert.Equal(t, [2]int{2023, 12}, keys[1])
	assert.Equal(t, [2]int{2024, 1}, keys[2])
	assert.Equal(t, [2]int{2024, 2}, keys[3])
}

func TestBuildTrailingIncome_ZeroFillsQuietMonths(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	names := map[string]string{"acc-1": "Brokerage", "acc-2": "IRA"}
	divs := []models.Dividend{
		accountDividend("d1", "acc-1", "2023-08-15", 10),
		accountDividend("d2", "acc-1", "2024-02-15", 12),
		accountDividend("d3", "acc-2", "2024-02-20", 5),
	}

	series, err := BuildTrailingIncome(divs, names, 12, now)
	require.NoError(t, err)
	require.Len(t, series, 12)

	assert.Equal(t, [2]int{2023, 7}, [2]int{series[0].Year, series[0].Month})
	assert.Equal(t, [2]int{2024, 6}, [2]int{series[11].Year, series[11].Month})

	// every month carries both active accounts, zero filled
	for _, month := range series {
		require.Len(t, month.ByAccount, 2)
		assert.Equal(t, "Brokerage", month.ByAccount[0].AccountName)
		assert.Equal(t, "IRA", month.ByAccount[1].AccountName)
	}

	august := series[1]
	assert.True(t, august.Total.Equal(decimal.NewFromInt(10)))
	assert.True(t, august.ByAccount[0].Income.Equal(decimal.NewFromInt(10)))
	assert.True(t, august.ByAccount[1].Income.IsZero())

	february := series[7]
	assert.True(t, february.Total.Equal(decimal.NewFromInt(17)))

	september := series[2]
	assert.True(t, september.Total.IsZero())
}

func TestBuildTrailingIncome_AccountsOutsideWindowOmitted(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	names := map[string]string{"acc-1": "Brokerage", "acc-old": "Closed"}
	divs := []models.Dividend{
		accountDividend("d1", "acc-1", "2024-05-15", 10),
		accountDividend("d2", "acc-old", "2022-01-15", 99), // before the window
	}

	series, err := BuildTrailingIncome(divs, names, 12, now)
	require.NoError(t, err)
	for _, month := range series {
		require.Len(t, month.ByAccount, 1)
		assert.Equal(t, "acc-1", month.ByAccount[0].AccountID)
	}
}

func TestBuildTrailingIncome_SkipsUnpaidAndRejectsBadDates(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	scheduled := accountDividend("d1", "acc-1", "2024-05-15", 10)
	scheduled.Status = models.StatusScheduled
	series, err := BuildTrailingIncome([]models.Dividend{scheduled}, nil, 3, now)
	require.NoError(t, err)
	for _, month := range series {
		assert.Empty(t, month.ByAccount)
	}

	bad := accountDividend("d2", "acc-1", "May 15 2024", 10)
	_, err = BuildTrailingIncome([]models.Dividend{bad}, nil, 3, now)
	require.Error(t, err)
}
