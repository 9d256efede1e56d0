package engagement

import (
	"context"

	"customer-health/internal/storage"
)

// Repository persists and reads events inside a session handed out by the router.
type Repository interface {
	// Insert stores ev and sets its ID.
	Insert(ctx context.Context, s storage.Session, ev Event) error

	ListByKind(ctx context.Context, s storage.Session, customerID int64, kind Kind, limit, offset int) ([]Event, error)

	CountByKind(ctx context.Context, s storage.Session, customerID int64, kind Kind) (int64, error)

	// Latest returns the most recent events of one kind across all customers.
	Latest(ctx context.Context, s storage.Session, kind Kind, limit int) ([]Event, error)
}

type CustomerLookup interface {
	Exists(ctx context.Context, s storage.Session, customerID int64) (bool, error)
}
