package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"customer-health/internal/domain/health"
	"customer-health/internal/event"
	"customer-health/internal/infrastructure/monitoring"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const defaultPublishConcurrency = 4

type HealthSweepJob struct {
	healthService health.Service
	publisher     event.EventPublisher
	concurrency   int
	now           func() time.Time
	logger        *slog.Logger
}

func NewHealthSweepJob(
	healthSvc health.Service,
	publisher event.EventPublisher,
	logger *slog.Logger,
) *HealthSweepJob {
	if healthSvc == nil || logger == nil {
		panic("HealthSweepJob dependencies cannot be nil")
	}
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	return &HealthSweepJob{
		healthService: healthSvc,
		publisher:     publisher,
		concurrency:   defaultPublishConcurrency,
		now:           time.Now,
		logger:        logger.With("job", "HealthSweep"),
	}
}

// Run scores the whole portfolio, refreshes the per-tier gauges and raises a risk
// alert for every customer at or below the critical threshold.
func (j *HealthSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer health sweep.")

	listing, err := j.healthService.ListCustomers(ctx, health.SortByHealthScore, health.Ascending)
	if err != nil {
		monitoring.Health.SweepRunsTotal.WithLabelValues("failed").Inc()
		j.logger.ErrorContext(ctx, "Failed to score customers, aborting sweep.", slog.Any("error", err))
		return fmt.Errorf("cannot run sweep, failed to score customers: %w", err)
	}

	byTier := lo.CountValuesBy(listing.Customers, func(r health.Report) health.Tier {
		return r.Tier
	})
	for _, tier := range []health.Tier{health.TierHealthy, health.TierModerateRisk, health.TierAtRisk} {
		monitoring.Health.CustomersByTier.WithLabelValues(string(tier)).Set(float64(byTier[tier]))
	}

	critical := lo.Filter(listing.Customers, func(r health.Report, _ int) bool {
		return health.IsCritical(r.Scores.Composite)
	})

	var published, errorCount atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, report := range critical {
		report := report
		g.Go(func() error {
			logCtx := j.logger.With(slog.Int64("customerID", report.Customer.ID))
			err := j.publisher.PublishRiskDetected(gctx, event.RiskDetectedEvent{
				Timestamp:   j.now().UTC(),
				CustomerID:  report.Customer.ID,
				Name:        report.Customer.Name,
				HealthScore: report.Scores.Composite,
				Tier:        string(report.Tier),
			})
			if err != nil {
				logCtx.ErrorContext(gctx, "Failed to publish risk alert", slog.Any("error", err))
				errorCount.Add(1)
				return nil
			}
			logCtx.DebugContext(gctx, "Risk alert published", slog.Float64("score", report.Scores.Composite))
			published.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers_scored", len(listing.Customers)),
		slog.Float64("average_health", listing.AverageHealth),
		slog.Int("healthy", byTier[health.TierHealthy]),
		slog.Int("moderate_risk", byTier[health.TierModerateRisk]),
		slog.Int("at_risk", byTier[health.TierAtRisk]),
		slog.Int("critical", len(critical)),
		slog.Int("alerts_published", int(published.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)

	if n := errorCount.Load(); n > 0 {
		monitoring.Health.SweepRunsTotal.WithLabelValues("partial").Inc()
		summaryLog.WarnContext(ctx, "Customer health sweep finished with errors.")
		return fmt.Errorf("sweep completed with %d errors", n)
	}

	monitoring.Health.SweepRunsTotal.WithLabelValues("success").Inc()
	summaryLog.InfoContext(ctx, "Customer health sweep finished successfully.")
	return nil
}
