// backend/src/services/report_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/model"
	"github.com/username/divifolio/backend/src/models"
	"github.com/username/divifolio/backend/src/processors"
	"github.com/username/divifolio/backend/src/utils"
)

const (
	ckDividendSummary = "agg_dividend_summary_user_%d_pf_%s"
	ckTrailingIncome  = "agg_trailing_income_user_%d_pf_%s_m_%d"
	ckProjection      = "agg_projection_user_%d_pf_%s"
	ckHoldings        = "agg_holdings_user_%d_pf_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	// how many recent quarters the summary carries
	summaryQuarterCount = 8
)

type reportServiceImpl struct {
	db           *sql.DB
	priceService PriceService
	reportCache  *cache.Cache
	now          func() time.Time
}

func NewReportService(db *sql.DB, priceService PriceService, reportCache *cache.Cache) ReportService {
	return &reportServiceImpl{
		db:           db,
		priceService: priceService,
		reportCache:  reportCache,
		now:          time.Now,
	}
}

// checkPortfolio confirms the portfolio exists and belongs to the user
// before any report touches its data.
func (s *reportServiceImpl) checkPortfolio(userID int64, portfolioID string) error {
	_, err := model.GetPortfolioByID(s.db, portfolioID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPortfolioMissing
		}
		return err
	}
	return nil
}

func (s *reportServiceImpl) GetDividendSummary(userID int64, portfolioID string) (*models.DividendSummary, error) {
	cacheKey := fmt.Sprintf(ckDividendSummary, userID, portfolioID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.DividendSummary), nil
	}
	if err := s.checkPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	paid, err := model.GetPaidDividendsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}

	yearly, err := processors.AggregatePaidDividends(paid, processors.ByYear)
	if err != nil {
		return nil, err
	}
	quarterly, err := processors.AggregatePaidDividends(paid, processors.ByQuarter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &models.DividendSummary{
		Yearly:    yearly,
		Quarterly: processors.MostRecentPeriods(quarterly, summaryQuarterCount),
	}

	currentYear, _ := processors.FindPeriod(yearly, now.Year(), 0)
	previousYear, _ := processors.FindPeriod(yearly, now.Year()-1, 0)
	summary.YearOverYear = processors.CompareGrowth(currentYear.Total, previousYear.Total)

	if len(quarterly) > 0 {
		latest := quarterly[len(quarterly)-1]
		prevYear, prevQuarter := latest.Year, latest.Quarter-1
		if prevQuarter == 0 {
			prevYear, prevQuarter = latest.Year-1, 4
		}
		previous, _ := processors.FindPeriod(quarterly, prevYear, prevQuarter)
		summary.QuarterGrowth = processors.CompareGrowth(latest.Total, previous.Total)
	}

	summary.YearOverYear.GrowthPercent = utils.RoundFloat(summary.YearOverYear.GrowthPercent, 2)
	summary.QuarterGrowth.GrowthPercent = utils.RoundFloat(summary.QuarterGrowth.GrowthPercent, 2)
	summary.CAGRPercent = utils.RoundFloat(processors.AnnualCAGR(processors.YearTotalsFromPeriods(yearly)), 2)

	ttm, err := processors.TTMIncome(paid, now)
	if err != nil {
		return nil, err
	}
	summary.TTMIncome = ttm

	s.reportCache.Set(cacheKey, summary, DefaultCacheExpiration)
	return summary, nil
}

func (s *reportServiceImpl) GetTrailingIncome(userID int64, portfolioID string, months int) ([]models.TrailingMonth, error) {
	cacheKey := fmt.Sprintf(ckTrailingIncome, userID, portfolioID, months)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.TrailingMonth), nil
	}
	if err := s.checkPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	paid, err := model.GetPaidDividendsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	accountNames, err := model.GetAccountNamesByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}

	series, err := processors.BuildTrailingIncome(paid, accountNames, months, s.now())
	if err != nil {
		return nil, err
	}

	s.reportCache.Set(cacheKey, series, DefaultCacheExpiration)
	return series, nil
}

func (s *reportServiceImpl) GetProjection(userID int64, portfolioID string) (*models.ProjectionResult, error) {
	cacheKey := fmt.Sprintf(ckProjection, userID, portfolioID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.ProjectionResult), nil
	}
	if err := s.checkPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	holdings, err := model.GetHoldingsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	paid, err := model.GetPaidDividendsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	accountNames, err := model.GetAccountNamesByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}

	histories := buildHoldingHistories(holdings, paid, accountNames)

	projections, excluded, projectedAnnual, err := processors.ProjectHoldings(histories)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ttm, err := processors.TTMIncome(paid, now)
	if err != nil {
		return nil, err
	}
	trend, trendPct := processors.IncomeTrend(projectedAnnual, ttm)
	trendPct = utils.RoundFloat(trendPct, 2)
	for i := range projections {
		projections[i].PercentOfTotal = utils.RoundFloat(projections[i].PercentOfTotal, 2)
	}

	chart, err := processors.BuildChartMonths(paid, projections, now)
	if err != nil {
		return nil, err
	}

	result := &models.ProjectionResult{
		HoldingProjections: projections,
		Excluded:           excluded,
		TTMIncome:          ttm,
		ProjectedAnnual:    projectedAnnual,
		Trend:              trend,
		TrendPct:           trendPct,
		ChartData:          chart,
	}

	s.reportCache.Set(cacheKey, result, DefaultCacheExpiration)
	return result, nil
}

// buildHoldingHistories pairs each (account, ticker) position with its paid
// dividend history. Projection works per account because the same ticker
// can pay into several accounts with different share counts.
func buildHoldingHistories(holdings []models.Holding, paid []models.Dividend, accountNames map[string]string) []processors.HoldingHistory {
	type positionKey struct {
		accountID string
		ticker    string
	}

	positions := make(map[positionKey]*processors.HoldingHistory)
	order := make([]positionKey, 0)
	for _, h := range holdings {
		key := positionKey{accountID: h.AccountID, ticker: h.Ticker}
		pos, ok := positions[key]
		if !ok {
			pos = &processors.HoldingHistory{
				Ticker:      h.Ticker,
				AccountName: accountNames[h.AccountID],
			}
			positions[key] = pos
			order = append(order, key)
		}
		pos.Shares = pos.Shares.Add(h.Shares)
	}

	for _, d := range paid {
		key := positionKey{accountID: d.AccountID, ticker: d.Ticker}
		pos, ok := positions[key]
		if !ok {
			continue // dividend for a position no longer held
		}
		pos.Paid = append(pos.Paid, processors.PaidPayment{
			PayDate:        d.PayDate,
			AmountPerShare: d.AmountPerShare,
		})
	}

	histories := make([]processors.HoldingHistory, 0, len(order))
	for _, key := range order {
		histories = append(histories, *positions[key])
	}
	return histories
}

func (s *reportServiceImpl) GetAggregatedHoldings(userID int64, portfolioID string) ([]models.AggregatedHolding, error) {
	cacheKey := fmt.Sprintf(ckHoldings, userID, portfolioID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.AggregatedHolding), nil
	}
	if err := s.checkPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	holdings, err := model.GetHoldingsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	rows := processors.AggregateHoldings(holdings)

	s.reportCache.Set(cacheKey, rows, DefaultCacheExpiration)
	return rows, nil
}

func (s *reportServiceImpl) GetPortfolioValue(userID int64, portfolioID string) (*models.Valuation, error) {
	if err := s.checkPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	holdings, err := model.GetHoldingsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	tickers, err := model.DistinctTickersByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}

	prices, err := s.priceService.GetCurrentPrices(tickers)
	if err != nil {
		logger.L.Warn("Price fetch failed, valuation degrades to cost basis", "portfolioID", portfolioID, "error", err)
		prices = map[string]decimal.Decimal{}
	}

	valuation := processors.ValueHoldings(holdings, prices)
	return &valuation, nil
}

func (s *reportServiceImpl) GetValueHistory(userID int64, portfolioID string, from, to string) ([]models.ValuePoint, error) {
	if err := s.checkPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	snapshots, err := model.GetSnapshotsInRange(s.db, portfolioID, from, to)
	if err != nil {
		return nil, err
	}
	if len(snapshots) > 0 {
		points := make([]models.ValuePoint, 0, len(snapshots))
		for _, snap := range snapshots {
			points = append(points, models.ValuePoint{
				Date:       snap.Date,
				TotalValue: snap.TotalValue,
				CostBasis:  snap.CostBasis,
				IsPartial:  snap.IsPartial,
			})
		}
		return points, nil
	}

	// No stored snapshots: rebuild the series from cached price history.
	holdings, err := model.GetHoldingsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	tickers, err := model.DistinctTickersByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	pricesByDate, err := model.GetPricesInRange(s.db, tickers, from, to)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(pricesByDate))
	for date := range pricesByDate {
		dates = append(dates, date)
	}
	return processors.BuildValueSeries(holdings, pricesByDate, dates), nil
}

func (s *reportServiceImpl) RefreshSnapshot(userID int64, portfolioID string) (*models.ValueSnapshot, error) {
	if err := s.checkPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	holdings, err := model.GetHoldingsByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	tickers, err := model.DistinctTickersByPortfolio(s.db, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	prices, err := s.priceService.GetCurrentPrices(tickers)
	if err != nil {
		return nil, err
	}

	valuation := processors.ValueHoldings(holdings, prices)
	snapshot := models.ValueSnapshot{
		PortfolioID: portfolioID,
		Date:        s.now().Format(models.DateLayout),
		TotalValue:  valuation.TotalValue,
		CostBasis:   valuation.CostBasis,
		IsPartial:   valuation.IsPartial,
	}
	if err := model.UpsertSnapshot(s.db, snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// InvalidatePortfolio drops every cached report for the portfolio. Called
// after any holding or dividend mutation.
func (s *reportServiceImpl) InvalidatePortfolio(userID int64, portfolioID string) {
	prefixes := []string{
		fmt.Sprintf(ckDividendSummary, userID, portfolioID),
		fmt.Sprintf(ckProjection, userID, portfolioID),
		fmt.Sprintf(ckHoldings, userID, portfolioID),
		fmt.Sprintf("agg_trailing_income_user_%d_pf_%s_m_", userID, portfolioID),
	}
	for key := range s.reportCache.Items() {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				s.reportCache.Delete(key)
				break
			}
		}
	}
}
