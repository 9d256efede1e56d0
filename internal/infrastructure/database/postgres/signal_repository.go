package postgres

import (
	"context"
	"log/slog"
	"os"
	"time"

	"customer-health/internal/domain/engagement"
	"customer-health/internal/domain/health"
	"customer-health/internal/storage"
)

// Both queries read every count in one statement so the numbers come from the same
// snapshot. Invoices count as good unless they are unpaid or late.
const (
	collectSignalsQuery = `
        SELECT
            (SELECT COUNT(*) FROM logins WHERE customer_id = $1 AND timestamp >= $2),
            (SELECT COUNT(DISTINCT feature_name) FROM feature_usage WHERE customer_id = $1),
            (SELECT COUNT(DISTINCT feature_name) FROM feature_usage),
            (SELECT COUNT(*) FROM support_tickets WHERE customer_id = $1 AND status = $3),
            (SELECT COUNT(*) FROM invoices WHERE customer_id = $1),
            (SELECT COUNT(*) FROM invoices WHERE customer_id = $1 AND status NOT IN ($4, $5)),
            (SELECT COUNT(*) FROM api_usage WHERE customer_id = $1 AND timestamp >= $2)`

	collectAllSignalsQuery = `
        WITH system_features AS (
            SELECT COUNT(DISTINCT feature_name) AS total FROM feature_usage
        )
        SELECT
            c.id,
            (SELECT COUNT(*) FROM logins l WHERE l.customer_id = c.id AND l.timestamp >= $1),
            (SELECT COUNT(DISTINCT f.feature_name) FROM feature_usage f WHERE f.customer_id = c.id),
            sf.total,
            (SELECT COUNT(*) FROM support_tickets t WHERE t.customer_id = c.id AND t.status = $2),
            (SELECT COUNT(*) FROM invoices i WHERE i.customer_id = c.id),
            (SELECT COUNT(*) FROM invoices i WHERE i.customer_id = c.id AND i.status NOT IN ($3, $4)),
            (SELECT COUNT(*) FROM api_usage a WHERE a.customer_id = c.id AND a.timestamp >= $1)
        FROM customers c
        CROSS JOIN system_features sf
        ORDER BY c.id ASC`
)

type SignalRepository struct {
	logger *slog.Logger
}

var _ health.SignalRepository = (*SignalRepository)(nil)

func NewSignalRepository(logger *slog.Logger) *SignalRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewSignalRepository, using default stderr handler")
	}
	return &SignalRepository{
		logger: logger.With("component", "SignalRepository"),
	}
}

func (r *SignalRepository) CollectSignals(ctx context.Context, s storage.Session, customerID int64, since time.Time) (health.Signals, error) {
	var sig health.Signals
	err := s.QueryRow(ctx, collectSignalsQuery,
		customerID,
		since,
		string(engagement.TicketOpen),
		string(engagement.InvoiceUnpaid),
		string(engagement.InvoiceLate),
	).Scan(
		&sig.LoginsInWindow,
		&sig.CustomerFeatures,
		&sig.SystemFeatures,
		&sig.OpenTickets,
		&sig.InvoicesTotal,
		&sig.InvoicesGood,
		&sig.APICallsInWindow,
	)
	if err != nil {
		return health.Signals{}, translateDBError(err, r.logger.With(slog.Int64("customerID", customerID)), "failed to collect health signals")
	}
	return sig, nil
}

func (r *SignalRepository) CollectAllSignals(ctx context.Context, s storage.Session, since time.Time) (map[int64]health.Signals, error) {
	rows, err := s.Query(ctx, collectAllSignalsQuery,
		since,
		string(engagement.TicketOpen),
		string(engagement.InvoiceUnpaid),
		string(engagement.InvoiceLate),
	)
	if err != nil {
		return nil, translateDBError(err, r.logger, "failed to collect portfolio signals")
	}
	defer rows.Close()

	signals := make(map[int64]health.Signals)
	for rows.Next() {
		var (
			customerID int64
			sig        health.Signals
		)
		err := rows.Scan(
			&customerID,
			&sig.LoginsInWindow,
			&sig.CustomerFeatures,
			&sig.SystemFeatures,
			&sig.OpenTickets,
			&sig.InvoicesTotal,
			&sig.InvoicesGood,
			&sig.APICallsInWindow,
		)
		if err != nil {
			return nil, translateDBError(err, r.logger, "failed to scan signal row")
		}
		signals[customerID] = sig
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBError(err, r.logger, "error iterating signal rows")
	}

	r.logger.DebugContext(ctx, "Collected portfolio signals", slog.Int("customers", len(signals)))
	return signals, nil
}
