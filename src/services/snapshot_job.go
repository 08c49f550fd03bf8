// backend/src/services/snapshot_job.go
package services

import (
	"database/sql"

	"github.com/robfig/cron/v3"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/model"
)

// SnapshotJob refreshes cached prices and writes a daily valuation
// snapshot for every portfolio on a cron schedule.
type SnapshotJob struct {
	db            *sql.DB
	reportService ReportService
	priceService  PriceService
	cron          *cron.Cron
}

func NewSnapshotJob(db *sql.DB, reportService ReportService, priceService PriceService) *SnapshotJob {
	return &SnapshotJob{
		db:            db,
		reportService: reportService,
		priceService:  priceService,
		cron:          cron.New(cron.WithSeconds()),
	}
}

// Start registers the job under the given schedule and starts the cron
// loop. Schedule uses six fields, e.g. "0 30 18 * * MON-FRI".
func (j *SnapshotJob) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		if err := j.Run(); err != nil {
			logger.L.Error("Snapshot job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	logger.L.Info("Snapshot job scheduled", "schedule", schedule)
	return nil
}

// Stop halts the cron loop, waiting for a running iteration to finish.
func (j *SnapshotJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	logger.L.Info("Snapshot job stopped")
}

// Run executes one snapshot pass over every portfolio. A failing
// portfolio is logged and skipped so one bad ticker cannot starve the
// rest of the run.
func (j *SnapshotJob) Run() error {
	portfolios, err := model.GetAllPortfolios(j.db)
	if err != nil {
		return err
	}
	logger.L.Info("Snapshot job run starting", "portfolios", len(portfolios))

	refreshed := make(map[string]bool)
	for _, p := range portfolios {
		tickers, err := model.DistinctTickersByPortfolio(j.db, p.ID, p.UserID)
		if err != nil {
			logger.L.Error("Snapshot job: failed to list tickers", "portfolioID", p.ID, "error", err)
			continue
		}
		for _, ticker := range tickers {
			if refreshed[ticker] {
				continue
			}
			if err := j.priceService.RefreshHistory(ticker); err != nil {
				logger.L.Warn("Snapshot job: history refresh failed", "ticker", ticker, "error", err)
			}
			refreshed[ticker] = true
		}

		snapshot, err := j.reportService.RefreshSnapshot(p.UserID, p.ID)
		if err != nil {
			logger.L.Error("Snapshot job: snapshot failed", "portfolioID", p.ID, "error", err)
			continue
		}
		logger.L.Debug("Snapshot written",
			"portfolioID", p.ID,
			"date", snapshot.Date,
			"totalValue", snapshot.TotalValue.String(),
			"isPartial", snapshot.IsPartial,
		)
	}
	return nil
}
