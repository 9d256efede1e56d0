package customer

import (
	"context"

	"customer-health/internal/storage"
)

type Repository interface {
	// Create inserts c and sets its ID.
	Create(ctx context.Context, s storage.Session, c *Customer) error

	FindByID(ctx context.Context, s storage.Session, customerID int64) (*Customer, error)

	FindAll(ctx context.Context, s storage.Session) ([]*Customer, error)

	Exists(ctx context.Context, s storage.Session, customerID int64) (bool, error)

	// EventTotals counts the customer's events per kind. Every kind is present, zero included.
	EventTotals(ctx context.Context, s storage.Session, customerID int64) (map[string]int64, error)
}
