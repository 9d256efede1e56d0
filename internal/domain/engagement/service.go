package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-health/internal/event"
	"customer-health/internal/infrastructure/monitoring"
	"customer-health/internal/pkg/apperrors"
	"customer-health/internal/storage"
)

const (
	DefaultPerPage = 5
	MaxPerPage     = 100
)

type Service interface {
	// SubmitEvent validates the payload and persists it for customerID in one write session.
	SubmitEvent(ctx context.Context, customerID int64, kind string, fields Fields) (Event, error)

	ListEvents(ctx context.Context, customerID int64, kind Kind, page, perPage int) (*Page, error)
}

type Page struct {
	Kind       Kind
	Events     []Event
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
}

type Option func(*serviceImpl)

// WithClock overrides the reference instant used for future-timestamp checks.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

func WithPublisher(p event.EventPublisher) Option {
	return func(s *serviceImpl) {
		if p != nil {
			s.publisher = p
		}
	}
}

// Invalidator drops derived state for a customer once a new event lands.
type Invalidator interface {
	Invalidate(ctx context.Context, customerID int64) error
}

// WithInvalidator registers a hook run after each committed event.
func WithInvalidator(inv Invalidator) Option {
	return func(s *serviceImpl) {
		s.invalidator = inv
	}
}

type serviceImpl struct {
	router      storage.SessionRouter
	repo        Repository
	customers   CustomerLookup
	publisher   event.EventPublisher
	invalidator Invalidator
	now         func() time.Time
	logger      *slog.Logger
}

func NewService(router storage.SessionRouter, repo Repository, customers CustomerLookup, logger *slog.Logger, opts ...Option) Service {
	if router == nil || repo == nil || customers == nil {
		panic("router, repository and customer lookup cannot be nil for engagement service")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to engagement.NewService, using default stderr handler")
	}

	s := &serviceImpl{
		router:    router,
		repo:      repo,
		customers: customers,
		publisher: event.NoopPublisher{},
		now:       time.Now,
		logger:    logger.With("component", "EngagementService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) SubmitEvent(ctx context.Context, customerID int64, kind string, fields Fields) (Event, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID), slog.String("kind", kind))

	ev, err := Parse(kind, fields, s.now())
	if err != nil {
		monitoring.Engagement.RejectedTotal.WithLabelValues(kindLabel(kind), rejectionReason(err)).Inc()
		logCtx.WarnContext(ctx, "Event rejected by validation", slog.Any("error", err))
		return nil, err
	}
	ev.Metadata().CustomerID = customerID

	err = s.router.ScopedWrite(ctx, func(ctx context.Context, session storage.Session) error {
		exists, err := s.customers.Exists(ctx, session, customerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		return s.repo.Insert(ctx, session, ev)
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Failed to record event", slog.Any("error", err))
		return nil, err
	}

	monitoring.Engagement.RecordedTotal.WithLabelValues(string(ev.Kind())).Inc()
	logCtx.InfoContext(ctx, "Event recorded", slog.Int64("eventID", ev.Metadata().ID))

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, customerID); err != nil {
			logCtx.WarnContext(ctx, "Failed to invalidate cached health report", slog.Any("error", err))
		}
	}

	if err := s.publisher.PublishEngagementRecorded(ctx, event.EngagementRecordedEvent{
		Timestamp:  s.now().UTC(),
		CustomerID: customerID,
		EventID:    ev.Metadata().ID,
		Kind:       string(ev.Kind()),
		OccurredAt: ev.OccurredAt(),
	}); err != nil {
		logCtx.WarnContext(ctx, "Failed to publish engagement event", slog.Any("error", err))
	}

	return ev, nil
}

func (s *serviceImpl) ListEvents(ctx context.Context, customerID int64, kind Kind, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	perPage = min(perPage, MaxPerPage)

	result := &Page{Kind: kind, Page: page, PerPage: perPage}
	err := s.router.ScopedRead(ctx, func(ctx context.Context, session storage.Session) error {
		exists, err := s.customers.Exists(ctx, session, customerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}

		total, err := s.repo.CountByKind(ctx, session, customerID, kind)
		if err != nil {
			return err
		}
		events, err := s.repo.ListByKind(ctx, session, customerID, kind, perPage, (page-1)*perPage)
		if err != nil {
			return err
		}
		result.Total = total
		result.Events = events
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.TotalPages = int((result.Total + int64(perPage) - 1) / int64(perPage))
	return result, nil
}

func kindLabel(kind string) string {
	k, err := ParseKind(kind)
	if err != nil {
		return "unknown"
	}
	return string(k)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, ErrFutureTimestamp):
		return "future_timestamp"
	case errors.Is(err, ErrTemporalOrder):
		return "temporal_order"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNegativeAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	default:
		return "other"
	}
}
