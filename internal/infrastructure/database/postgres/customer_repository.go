package postgres

import (
	"context"
	"log/slog"
	"os"

	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/domain/health"
	"customer-health/internal/storage"
)

const (
	insertCustomerQuery = `
        INSERT INTO customers (name, segment)
        VALUES ($1, $2)
        RETURNING id`

	findCustomerByIDQuery = `
        SELECT id, name, segment
        FROM customers
        WHERE id = $1`

	findAllCustomersQuery = `
        SELECT id, name, segment
        FROM customers
        ORDER BY id ASC`

	customerExistsQuery = `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`

	customerEventTotalsQuery = `
        SELECT
            (SELECT COUNT(*) FROM logins WHERE customer_id = $1),
            (SELECT COUNT(*) FROM feature_usage WHERE customer_id = $1),
            (SELECT COUNT(*) FROM support_tickets WHERE customer_id = $1),
            (SELECT COUNT(*) FROM invoices WHERE customer_id = $1),
            (SELECT COUNT(*) FROM api_usage WHERE customer_id = $1)`
)

type CustomerRepository struct {
	logger *slog.Logger
}

var (
	_ customer.Repository       = (*CustomerRepository)(nil)
	_ engagement.CustomerLookup = (*CustomerRepository)(nil)
	_ health.CustomerReader     = (*CustomerRepository)(nil)
)

func NewCustomerRepository(logger *slog.Logger) *CustomerRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, s storage.Session, cust *customer.Customer) error {
	r.logger.DebugContext(ctx, "Attempting to insert new customer", slog.String("name", cust.Name))

	if err := s.QueryRow(ctx, insertCustomerQuery, cust.Name, cust.Segment).Scan(&cust.ID); err != nil {
		return translateDBError(err, r.logger, "failed to insert customer")
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, s storage.Session, customerID int64) (*customer.Customer, error) {
	var cust customer.Customer
	err := s.QueryRow(ctx, findCustomerByIDQuery, customerID).Scan(
		&cust.ID,
		&cust.Name,
		&cust.Segment,
	)
	if err != nil {
		return nil, translateDBError(err, r.logger, "failed to get customer by ID")
	}
	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, s storage.Session) ([]*customer.Customer, error) {
	rows, err := s.Query(ctx, findAllCustomersQuery)
	if err != nil {
		return nil, translateDBError(err, r.logger, "failed to query customers")
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		var cust customer.Customer
		if err := rows.Scan(&cust.ID, &cust.Name, &cust.Segment); err != nil {
			return nil, translateDBError(err, r.logger, "failed to scan customer row")
		}
		customers = append(customers, &cust)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBError(err, r.logger, "error iterating customer rows")
	}

	r.logger.DebugContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) Exists(ctx context.Context, s storage.Session, customerID int64) (bool, error) {
	var exists bool
	if err := s.QueryRow(ctx, customerExistsQuery, customerID).Scan(&exists); err != nil {
		return false, translateDBError(err, r.logger, "failed to check customer existence")
	}
	return exists, nil
}

func (r *CustomerRepository) EventTotals(ctx context.Context, s storage.Session, customerID int64) (map[string]int64, error) {
	var logins, features, tickets, invoices, apiCalls int64
	err := s.QueryRow(ctx, customerEventTotalsQuery, customerID).Scan(&logins, &features, &tickets, &invoices, &apiCalls)
	if err != nil {
		return nil, translateDBError(err, r.logger, "failed to count customer events")
	}
	return map[string]int64{
		string(engagement.KindLogin):   logins,
		string(engagement.KindFeature): features,
		string(engagement.KindTicket):  tickets,
		string(engagement.KindInvoice): invoices,
		string(engagement.KindAPI):     apiCalls,
	}, nil
}
