// backend/src/processors/trailing.go
package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

// TrailingMonthKeys lists the n calendar months ending at now's month, in
// ascending order, handling year rollover.
func TrailingMonthKeys(n int, now time.Time) [][2]int {
	keys := make([][2]int, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, i, 0)
		keys = append(keys, [2]int{m.Year(), int(m.Month())})
	}
	return keys
}

// BuildTrailingIncome builds a zero-filled per-account income series over
// the n months ending at now. Every month slot carries an entry for every
// account that received income anywhere in the window, with zero amounts
// where a month had none; accounts with no income in the whole window do
// not appear at all. accountNames resolves account IDs for display.
func BuildTrailingIncome(divs []models.Dividend, accountNames map[string]string, n int, now time.Time) ([]models.TrailingMonth, error) {
	if n <= 0 {
		return []models.TrailingMonth{}, nil
	}

	keys := TrailingMonthKeys(n, now)
	windowStart := time.Date(keys[0][0], time.Month(keys[0][1]), 1, 0, 0, 0, 0, time.UTC)

	type slotKey struct {
		year    int
		month   int
		account string
	}
	income := make(map[slotKey]decimal.Decimal)
	activeAccounts := make(map[string]struct{})

	for _, d := range divs {
		if d.Status != models.StatusPaid {
			continue
		}
		payDate, err := time.Parse(models.DateLayout, d.PayDate)
		if err != nil {
			return nil, fmt.Errorf("invalid pay date %q for dividend %s: %w", d.PayDate, d.ID, err)
		}
		if payDate.Before(windowStart) || payDate.After(now) {
			continue
		}
		k := slotKey{year: payDate.Year(), month: int(payDate.Month()), account: d.AccountID}
		income[k] = income[k].Add(d.TotalAmount)
		activeAccounts[d.AccountID] = struct{}{}
	}

	accountIDs := make([]string, 0, len(activeAccounts))
	for id := range activeAccounts {
		accountIDs = append(accountIDs, id)
	}
	sort.Slice(accountIDs, func(i, j int) bool {
		return accountNames[accountIDs[i]] < accountNames[accountIDs[j]]
	})

	series := make([]models.TrailingMonth, 0, n)
	for _, key := range keys {
		month := models.TrailingMonth{
			Year:      key[0],
			Month:     key[1],
			ByAccount: make([]models.AccountIncome, 0, len(accountIDs)),
		}
		for _, id := range accountIDs {
			amount := income[slotKey{year: key[0], month: key[1], account: id}]
			month.ByAccount = append(month.ByAccount, models.AccountIncome{
				AccountID:   id,
				AccountName: accountNames[id],
				Income:      amount,
			})
			month.Total = month.Total.Add(amount)
		}
		series = append(series, month)
	}
	return series, nil
}
