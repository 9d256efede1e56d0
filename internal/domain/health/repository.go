package health

import (
	"context"
	"time"

	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/storage"
)

type SignalRepository interface {
	// CollectSignals reads one customer's counts. Logins and API calls are counted from since.
	CollectSignals(ctx context.Context, s storage.Session, customerID int64, since time.Time) (Signals, error)

	// CollectAllSignals reads counts for every customer, keyed by customer ID.
	CollectAllSignals(ctx context.Context, s storage.Session, since time.Time) (map[int64]Signals, error)
}

type CustomerReader interface {
	FindByID(ctx context.Context, s storage.Session, customerID int64) (*customer.Customer, error)
	FindAll(ctx context.Context, s storage.Session) ([]*customer.Customer, error)
}

type ActivityFeed interface {
	Latest(ctx context.Context, s storage.Session, kind engagement.Kind, limit int) ([]engagement.Event, error)
}

// Cache stores computed reports for a short time. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, customerID int64) (*Report, error)
	Set(ctx context.Context, report *Report) error
}
