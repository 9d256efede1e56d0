package health

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/infrastructure/monitoring"
	"customer-health/internal/pkg/apperrors"
	"customer-health/internal/storage"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	DefaultAtRiskThreshold = ModerateRiskThreshold
	DefaultLatestPerKind   = 5
)

type SortKey string

const (
	SortByName        SortKey = "name"
	SortByHealthScore SortKey = "health_score"
)

// ParseSortKey falls back to sorting by name for anything it does not recognize.
func ParseSortKey(s string) SortKey {
	if SortKey(strings.ToLower(strings.TrimSpace(s))) == SortByHealthScore {
		return SortByHealthScore
	}
	return SortByName
}

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

func ParseSortOrder(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == Descending {
		return Descending
	}
	return Ascending
}

type Report struct {
	Customer customer.Customer `json:"customer"`
	Scores   Scores            `json:"scores"`
	Tier     Tier              `json:"tier"`
}

type Listing struct {
	Customers     []Report `json:"customers"`
	AverageHealth float64  `json:"average_health"`
}

type Dashboard struct {
	Latest   map[engagement.Kind][]engagement.Event `json:"latest"`
	Critical []Report                               `json:"critical"`
}

type Service interface {
	GetHealth(ctx context.Context, customerID int64) (*Report, error)
	ListCustomers(ctx context.Context, key SortKey, order SortOrder) (*Listing, error)
	// ListAtRisk returns customers scoring strictly below threshold, lowest first.
	ListAtRisk(ctx context.Context, threshold float64) ([]Report, error)
	Dashboard(ctx context.Context, latestPerKind int) (*Dashboard, error)
}

type Option func(*serviceImpl)

func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCache(c Cache) Option {
	return func(s *serviceImpl) {
		s.cache = c
	}
}

type serviceImpl struct {
	router    storage.SessionRouter
	customers CustomerReader
	signals   SignalRepository
	activity  ActivityFeed
	cache     Cache
	now       func() time.Time
	logger    *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

func NewService(router storage.SessionRouter, customers CustomerReader, signals SignalRepository, activity ActivityFeed, logger *slog.Logger, opts ...Option) Service {
	if router == nil || customers == nil || signals == nil || activity == nil {
		panic("router and repositories cannot be nil for health service")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to health.NewService, using default stderr handler")
	}

	s := &serviceImpl{
		router:    router,
		customers: customers,
		signals:   signals,
		activity:  activity,
		now:       time.Now,
		logger:    logger.With("component", "HealthService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) GetHealth(ctx context.Context, customerID int64) (*Report, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))

	if cached := s.cached(ctx, customerID); cached != nil {
		return cached, nil
	}

	since := s.now().UTC().Add(-Window)
	var report Report
	err := s.router.ScopedRead(ctx, func(ctx context.Context, session storage.Session) error {
		c, err := s.customers.FindByID(ctx, session, customerID)
		if err != nil {
			return err
		}
		sig, err := s.signals.CollectSignals(ctx, session, customerID, since)
		if err != nil {
			return err
		}
		report = newReport(*c, sig)
		return nil
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Failed to compute customer health", slog.Any("error", err))
		return nil, fmt.Errorf("failed to compute health for customer %d: %w", customerID, err)
	}

	monitoring.Health.Score.Observe(report.Scores.Composite)
	logCtx.InfoContext(ctx, "Computed customer health", slog.Float64("score", report.Scores.Composite), slog.String("tier", string(report.Tier)))

	if s.cache != nil {
		if err := s.cache.Set(ctx, &report); err != nil {
			logCtx.WarnContext(ctx, "Failed to cache health report", slog.Any("error", err))
		}
	}
	return &report, nil
}

func (s *serviceImpl) ListCustomers(ctx context.Context, key SortKey, order SortOrder) (*Listing, error) {
	var reports []Report
	err := s.router.ScopedRead(ctx, func(ctx context.Context, session storage.Session) error {
		var err error
		reports, err = s.scoreAll(ctx, session)
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	sortReports(reports, key, order)

	return &Listing{
		Customers:     reports,
		AverageHealth: averageHealth(reports),
	}, nil
}

func (s *serviceImpl) ListAtRisk(ctx context.Context, threshold float64) ([]Report, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("%w: threshold must be between 0 and 100, got %v", apperrors.ErrInvalidArgument, threshold)
	}

	var reports []Report
	err := s.router.ScopedRead(ctx, func(ctx context.Context, session storage.Session) error {
		var err error
		reports, err = s.scoreAll(ctx, session)
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list at-risk customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list at-risk customers: %w", err)
	}

	atRisk := lo.Filter(reports, func(r Report, _ int) bool {
		return r.Scores.Composite < threshold
	})
	sortReports(atRisk, SortByHealthScore, Ascending)

	s.logger.InfoContext(ctx, "Listed at-risk customers", slog.Float64("threshold", threshold), slog.Int("count", len(atRisk)))
	return atRisk, nil
}

func (s *serviceImpl) Dashboard(ctx context.Context, latestPerKind int) (*Dashboard, error) {
	if latestPerKind <= 0 {
		latestPerKind = DefaultLatestPerKind
	}

	dash := &Dashboard{Latest: make(map[engagement.Kind][]engagement.Event, len(engagement.Kinds()))}
	err := s.router.ScopedRead(ctx, func(ctx context.Context, session storage.Session) error {
		for _, kind := range engagement.Kinds() {
			events, err := s.activity.Latest(ctx, session, kind, latestPerKind)
			if err != nil {
				return err
			}
			dash.Latest[kind] = events
		}

		reports, err := s.scoreAll(ctx, session)
		if err != nil {
			return err
		}
		dash.Critical = lo.Filter(reports, func(r Report, _ int) bool {
			return IsCritical(r.Scores.Composite)
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to build dashboard", slog.Any("error", err))
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	sortReports(dash.Critical, SortByHealthScore, Ascending)
	return dash, nil
}

// scoreAll must run inside a read scope so every customer is scored from one snapshot.
func (s *serviceImpl) scoreAll(ctx context.Context, session storage.Session) ([]Report, error) {
	since := s.now().UTC().Add(-Window)

	customers, err := s.customers.FindAll(ctx, session)
	if err != nil {
		return nil, err
	}
	signals, err := s.signals.CollectAllSignals(ctx, session, since)
	if err != nil {
		return nil, err
	}

	return lo.Map(customers, func(c *customer.Customer, _ int) Report {
		return newReport(*c, signals[c.ID])
	}), nil
}

func (s *serviceImpl) cached(ctx context.Context, customerID int64) *Report {
	if s.cache == nil {
		return nil
	}
	report, err := s.cache.Get(ctx, customerID)
	switch {
	case err != nil:
		monitoring.Health.CacheLookups.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "Health cache lookup failed", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil
	case report == nil:
		monitoring.Health.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	default:
		monitoring.Health.CacheLookups.WithLabelValues("hit").Inc()
		return report
	}
}

func newReport(c customer.Customer, sig Signals) Report {
	scores := Score(sig)
	return Report{
		Customer: c,
		Scores:   scores,
		Tier:     Classify(scores.Composite),
	}
}

func sortReports(reports []Report, key SortKey, order SortOrder) {
	slices.SortStableFunc(reports, func(a, b Report) int {
		var c int
		if key == SortByHealthScore {
			c = cmp.Compare(a.Scores.Composite, b.Scores.Composite)
		} else {
			c = cmp.Compare(strings.ToLower(a.Customer.Name), strings.ToLower(b.Customer.Name))
		}
		if order == Descending {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.Customer.ID, b.Customer.ID)
		}
		return c
	})
}

func averageHealth(reports []Report) float64 {
	if len(reports) == 0 {
		return 0
	}
	total := lo.Reduce(reports, func(acc decimal.Decimal, r Report, _ int) decimal.Decimal {
		return acc.Add(decimal.NewFromFloat(r.Scores.Composite))
	}, decimal.Zero)
	return total.Div(decimal.NewFromInt(int64(len(reports)))).Round(2).InexactFloat64()
}
