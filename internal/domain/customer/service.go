package customer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-health/internal/event"
	"customer-health/internal/storage"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, name, segment string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Details, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	router storage.SessionRouter
	repo   Repository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(router storage.SessionRouter, repo Repository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if router == nil {
		panic("session router cannot be nil")
	}
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		logger.Warn("Warning: No event publisher provided to NewCustomerService, customer events will be dropped")
		eventPublisher = event.NoopPublisher{}
	}

	return &customerService{
		router: router,
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, name, segment string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	customer, err := New(name, segment)
	if err != nil {
		s.logger.WarnContext(ctx, "Validation failed", slog.Any("error", err))
		return nil, err
	}

	err = s.router.ScopedWrite(ctx, func(ctx context.Context, session storage.Session) error {
		return s.repo.Create(ctx, session, customer)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	logCtx := s.logger.With(slog.Int64("customerID", customer.ID))
	logCtx.InfoContext(ctx, "Successfully created new customer, publishing creation event")

	createdEvent := event.CustomerCreatedEvent{
		Timestamp:  time.Now().UTC(),
		CustomerID: customer.ID,
		Name:       customer.Name,
		Segment:    customer.Segment,
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, createdEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Details, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to get customer by ID")

	var details Details
	err := s.router.ScopedRead(ctx, func(ctx context.Context, session storage.Session) error {
		customer, err := s.repo.FindByID(ctx, session, customerID)
		if err != nil {
			return err
		}
		totals, err := s.repo.EventTotals(ctx, session, customerID)
		if err != nil {
			return err
		}
		details = Details{Customer: *customer, EventTotals: totals}
		return nil
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Failed to get customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved customer")
	return &details, nil
}
