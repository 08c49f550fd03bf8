// backend/src/processors/projection.go
package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

// PaidPayment is one historical paid dividend of a ticker, reduced to what
// cadence inference needs.
type PaidPayment struct {
	PayDate        string // YYYY-MM-DD
	AmountPerShare decimal.Decimal
}

// HoldingHistory is the projection input for one held ticker: the shares
// currently held and its paid-dividend history.
type HoldingHistory struct {
	Ticker      string
	AccountName string
	Shares      decimal.Decimal
	Paid        []PaidPayment
}

// Payment-gap bands, in days between the two most recent payments. A gap
// that falls outside every band means the payment rhythm cannot be trusted
// for projection.
const (
	monthlyGapMin   = 25
	monthlyGapMax   = 35
	quarterlyGapMin = 80
	quarterlyGapMax = 100
	annualGapMin    = 350
	annualGapMax    = 380
)

// ClassifyGap maps the day gap between two consecutive payments to a
// cadence class.
func ClassifyGap(days int) models.Cadence {
	switch {
	case days >= monthlyGapMin && days <= monthlyGapMax:
		return models.CadenceMonthly
	case days >= quarterlyGapMin && days <= quarterlyGapMax:
		return models.CadenceQuarterly
	case days >= annualGapMin && days <= annualGapMax:
		return models.CadenceAnnual
	default:
		return models.CadenceIrregular
	}
}

// nextPayDate advances a pay date by the canonical interval of the cadence,
// not by the observed gap, so projected dates stay on calendar boundaries.
func nextPayDate(last time.Time, cadence models.Cadence) time.Time {
	switch cadence {
	case models.CadenceMonthly:
		return last.AddDate(0, 1, 0)
	case models.CadenceQuarterly:
		return last.AddDate(0, 3, 0)
	default:
		return last.AddDate(1, 0, 0)
	}
}

// ProjectHoldings infers a cadence per holding from the gap between its
// two most recent paid dividends and projects the next payment and annual
// income from it. Holdings that cannot be projected are reported with a
// reason instead of being dropped. The total projected annual across all
// qualifying holdings is returned alongside.
func ProjectHoldings(histories []HoldingHistory) ([]models.HoldingProjection, []models.ExcludedHolding, decimal.Decimal, error) {
	projections := make([]models.HoldingProjection, 0, len(histories))
	excluded := make([]models.ExcludedHolding, 0)
	totalAnnual := decimal.Zero

	for _, h := range histories {
		if len(h.Paid) < 2 {
			excluded = append(excluded, models.ExcludedHolding{
				Ticker:      h.Ticker,
				AccountName: h.AccountName,
				Reason:      models.ReasonInsufficientHistory,
			})
			continue
		}

		dates := make([]time.Time, len(h.Paid))
		payments := make([]PaidPayment, len(h.Paid))
		copy(payments, h.Paid)
		for i, p := range payments {
			d, err := time.Parse(models.DateLayout, p.PayDate)
			if err != nil {
				return nil, nil, decimal.Zero, fmt.Errorf("invalid pay date %q for ticker %s: %w", p.PayDate, h.Ticker, err)
			}
			dates[i] = d
		}
		sort.Sort(&byPayDate{payments: payments, dates: dates})

		last := dates[len(dates)-1]
		previous := dates[len(dates)-2]
		gapDays := int(last.Sub(previous).Hours() / 24)

		cadence := ClassifyGap(gapDays)
		if cadence == models.CadenceIrregular {
			excluded = append(excluded, models.ExcludedHolding{
				Ticker:      h.Ticker,
				AccountName: h.AccountName,
				Reason:      models.ReasonIrregularHistory,
			})
			continue
		}

		nextAmount := payments[len(payments)-1].AmountPerShare.Mul(h.Shares)
		annual := nextAmount.Mul(decimal.NewFromInt(int64(cadence.PaymentsPerYear())))
		totalAnnual = totalAnnual.Add(annual)

		projections = append(projections, models.HoldingProjection{
			Ticker:          h.Ticker,
			AccountName:     h.AccountName,
			Cadence:         cadence,
			NextPayDate:     nextPayDate(last, cadence).Format(models.DateLayout),
			NextPayAmount:   nextAmount,
			ProjectedAnnual: annual,
		})
	}

	for i := range projections {
		if totalAnnual.IsPositive() {
			pct, _ := projections[i].ProjectedAnnual.Div(totalAnnual).Float64()
			projections[i].PercentOfTotal = pct * 100
		}
	}

	return projections, excluded, totalAnnual, nil
}

type byPayDate struct {
	payments []PaidPayment
	dates    []time.Time
}

func (s *byPayDate) Len() int           { return len(s.dates) }
func (s *byPayDate) Less(i, j int) bool { return s.dates[i].Before(s.dates[j]) }
func (s *byPayDate) Swap(i, j int) {
	s.dates[i], s.dates[j] = s.dates[j], s.dates[i]
	s.payments[i], s.payments[j] = s.payments[j], s.payments[i]
}

// ChartWindowMonths is the fixed width of the projection chart: the
// current month, the five before it and the six after it.
const ChartWindowMonths = 12

// BuildChartMonths assembles the projection chart around now: the six
// trailing slots (current month included) carry realized paid income, the
// six leading slots carry each qualifying holding's projected payments
// stepped forward on its canonical cadence interval.
func BuildChartMonths(paid []models.Dividend, projections []models.HoldingProjection, now time.Time) ([]models.ChartMonth, error) {
	firstSlot := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)

	slots := make([]models.ChartMonth, ChartWindowMonths)
	index := make(map[[2]int]int, ChartWindowMonths)
	for i := range slots {
		m := firstSlot.AddDate(0, i, 0)
		slots[i] = models.ChartMonth{
			Year:      m.Year(),
			Month:     int(m.Month()),
			PerTicker: make(map[string]decimal.Decimal),
		}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, d := range paid {
		if d.Status != models.StatusPaid {
			continue
		}
		payDate, err := time.Parse(models.DateLayout, d.PayDate)
		if err != nil {
			return nil, fmt.Errorf("invalid pay date %q for dividend %s: %w", d.PayDate, d.ID, err)
		}
		i, ok := index[[2]int{payDate.Year(), int(payDate.Month())}]
		if !ok || payDate.After(now) {
			continue
		}
		slots[i].Actual = slots[i].Actual.Add(d.TotalAmount)
		slots[i].PerTicker[d.Ticker] = slots[i].PerTicker[d.Ticker].Add(d.TotalAmount)
	}

	windowEnd := firstSlot.AddDate(0, ChartWindowMonths, 0)
	for _, p := range projections {
		next, err := time.Parse(models.DateLayout, p.NextPayDate)
		if err != nil {
			return nil, fmt.Errorf("invalid projected pay date %q for ticker %s: %w", p.NextPayDate, p.Ticker, err)
		}
		for d := next; d.Before(windowEnd); d = nextPayDate(d, p.Cadence) {
			if !d.After(now) {
				continue
			}
			i, ok := index[[2]int{d.Year(), int(d.Month())}]
			if !ok {
				continue
			}
			slots[i].Projected = slots[i].Projected.Add(p.NextPayAmount)
			slots[i].PerTicker[p.Ticker] = slots[i].PerTicker[p.Ticker].Add(p.NextPayAmount)
		}
	}

	return slots, nil
}

// IncomeTrend compares projected annual income against trailing twelve
// month realized income. A zero TTM baseline reports a flat trend with a
// zero percentage, never a division error.
func IncomeTrend(projectedAnnual, ttmIncome decimal.Decimal) (string, float64) {
	if ttmIncome.IsZero() {
		return "flat", 0
	}
	diff := projectedAnnual.Sub(ttmIncome)
	pct, _ := diff.Div(ttmIncome).Float64()
	switch diff.Sign() {
	case 1:
		return "up", pct * 100
	case -1:
		return "down", pct * 100
	default:
		return "flat", 0
	}
}

// TTMIncome sums paid dividends whose pay date falls inside the twelve
// months ending at now.
func TTMIncome(divs []models.Dividend, now time.Time) (decimal.Decimal, error) {
	start := now.AddDate(-1, 0, 0)
	total := decimal.Zero
	for _, d := range divs {
		if d.Status != models.StatusPaid {
			continue
		}
		payDate, err := time.Parse(models.DateLayout, d.PayDate)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid pay date %q for dividend %s: %w", d.PayDate, d.ID, err)
		}
		if payDate.After(start) && !payDate.After(now) {
			total = total.Add(d.TotalAmount)
		}
	}
	return total, nil
}
