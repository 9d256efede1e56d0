package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-health/internal/domain/engagement"
	"customer-health/internal/domain/health"
	"customer-health/internal/pkg/apperrors"
	"customer-health/internal/storage"

	"github.com/jackc/pgx/v5"
)

const (
	insertLoginQuery = `
        INSERT INTO logins (customer_id, timestamp)
        VALUES ($1, $2)
        RETURNING id`

	insertFeatureUsageQuery = `
        INSERT INTO feature_usage (customer_id, feature_name, timestamp)
        VALUES ($1, $2, $3)
        RETURNING id`

	insertTicketQuery = `
        INSERT INTO support_tickets (customer_id, status, created_at, closed_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	insertInvoiceQuery = `
        INSERT INTO invoices (customer_id, issued_at, due_date, amount, status, paid_date)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	insertAPIUsageQuery = `
        INSERT INTO api_usage (customer_id, api_endpoint, timestamp)
        VALUES ($1, $2, $3)
        RETURNING id`
)

// eventTable describes where one kind lives and how its rows scan back into events.
type eventTable struct {
	name    string
	columns string
	orderBy string
	scan    func(rows pgx.Rows) (engagement.Event, error)
}

func (t eventTable) listQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE customer_id = $1 ORDER BY %s LIMIT $2 OFFSET $3", t.columns, t.name, t.orderBy)
}

func (t eventTable) latestQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT $1", t.columns, t.name, t.orderBy)
}

func (t eventTable) countQuery() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE customer_id = $1", t.name)
}

var eventTables = map[engagement.Kind]eventTable{
	engagement.KindLogin: {
		name:    "logins",
		columns: "id, customer_id, timestamp",
		orderBy: "timestamp DESC, id DESC",
		scan: func(rows pgx.Rows) (engagement.Event, error) {
			var e engagement.Login
			err := rows.Scan(&e.ID, &e.CustomerID, &e.Timestamp)
			e.Timestamp = e.Timestamp.UTC()
			return &e, err
		},
	},
	engagement.KindFeature: {
		name:    "feature_usage",
		columns: "id, customer_id, feature_name, timestamp",
		orderBy: "timestamp DESC, id DESC",
		scan: func(rows pgx.Rows) (engagement.Event, error) {
			var e engagement.FeatureUse
			err := rows.Scan(&e.ID, &e.CustomerID, &e.FeatureName, &e.Timestamp)
			e.Timestamp = e.Timestamp.UTC()
			return &e, err
		},
	},
	engagement.KindTicket: {
		name:    "support_tickets",
		columns: "id, customer_id, status, created_at, closed_at",
		orderBy: "created_at DESC, id DESC",
		scan: func(rows pgx.Rows) (engagement.Event, error) {
			var (
				e      engagement.Ticket
				status string
			)
			err := rows.Scan(&e.ID, &e.CustomerID, &status, &e.CreatedAt, &e.ClosedAt)
			e.Status = engagement.TicketStatus(status)
			e.CreatedAt = e.CreatedAt.UTC()
			e.ClosedAt = utcPtr(e.ClosedAt)
			return &e, err
		},
	},
	engagement.KindInvoice: {
		name:    "invoices",
		columns: "id, customer_id, issued_at, due_date, amount, status, paid_date",
		orderBy: "issued_at DESC, id DESC",
		scan: func(rows pgx.Rows) (engagement.Event, error) {
			var (
				e      engagement.Invoice
				status string
			)
			err := rows.Scan(&e.ID, &e.CustomerID, &e.IssuedAt, &e.DueDate, &e.Amount, &status, &e.PaidDate)
			e.Status = engagement.InvoiceStatus(status)
			e.IssuedAt = e.IssuedAt.UTC()
			e.DueDate = e.DueDate.UTC()
			e.PaidDate = utcPtr(e.PaidDate)
			return &e, err
		},
	},
	engagement.KindAPI: {
		name:    "api_usage",
		columns: "id, customer_id, api_endpoint, timestamp",
		orderBy: "timestamp DESC, id DESC",
		scan: func(rows pgx.Rows) (engagement.Event, error) {
			var e engagement.APICall
			err := rows.Scan(&e.ID, &e.CustomerID, &e.Endpoint, &e.Timestamp)
			e.Timestamp = e.Timestamp.UTC()
			return &e, err
		},
	},
}

type EventRepository struct {
	logger *slog.Logger
}

var (
	_ engagement.Repository = (*EventRepository)(nil)
	_ health.ActivityFeed   = (*EventRepository)(nil)
)

func NewEventRepository(logger *slog.Logger) *EventRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewEventRepository, using default stderr handler")
	}
	return &EventRepository{
		logger: logger.With("component", "EventRepository"),
	}
}

func (r *EventRepository) Insert(ctx context.Context, s storage.Session, ev engagement.Event) error {
	meta := ev.Metadata()
	logCtx := r.logger.With(slog.Int64("customerID", meta.CustomerID), slog.String("kind", string(ev.Kind())))

	var row pgx.Row
	switch e := ev.(type) {
	case *engagement.Login:
		row = s.QueryRow(ctx, insertLoginQuery, e.CustomerID, e.Timestamp)
	case *engagement.FeatureUse:
		row = s.QueryRow(ctx, insertFeatureUsageQuery, e.CustomerID, e.FeatureName, e.Timestamp)
	case *engagement.Ticket:
		row = s.QueryRow(ctx, insertTicketQuery, e.CustomerID, string(e.Status), e.CreatedAt, e.ClosedAt)
	case *engagement.Invoice:
		row = s.QueryRow(ctx, insertInvoiceQuery, e.CustomerID, e.IssuedAt, e.DueDate, e.Amount, string(e.Status), e.PaidDate)
	case *engagement.APICall:
		row = s.QueryRow(ctx, insertAPIUsageQuery, e.CustomerID, e.Endpoint, e.Timestamp)
	default:
		return fmt.Errorf("%w: unsupported event type %T", apperrors.ErrInvalidArgument, ev)
	}

	if err := row.Scan(&meta.ID); err != nil {
		return translateDBError(err, logCtx, "failed to insert event")
	}

	logCtx.DebugContext(ctx, "Event inserted", slog.Int64("eventID", meta.ID))
	return nil
}

func (r *EventRepository) ListByKind(ctx context.Context, s storage.Session, customerID int64, kind engagement.Kind, limit, offset int) ([]engagement.Event, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.Query(ctx, table.listQuery(), customerID, limit, offset)
	if err != nil {
		return nil, translateDBError(err, r.logger, "failed to list events")
	}
	return r.collect(rows, table)
}

func (r *EventRepository) CountByKind(ctx context.Context, s storage.Session, customerID int64, kind engagement.Kind) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.QueryRow(ctx, table.countQuery(), customerID).Scan(&count); err != nil {
		return 0, translateDBError(err, r.logger, "failed to count events")
	}
	return count, nil
}

func (r *EventRepository) Latest(ctx context.Context, s storage.Session, kind engagement.Kind, limit int) ([]engagement.Event, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.Query(ctx, table.latestQuery(), limit)
	if err != nil {
		return nil, translateDBError(err, r.logger, "failed to read latest events")
	}
	return r.collect(rows, table)
}

func (r *EventRepository) collect(rows pgx.Rows, table eventTable) ([]engagement.Event, error) {
	defer rows.Close()

	events := make([]engagement.Event, 0)
	for rows.Next() {
		ev, err := table.scan(rows)
		if err != nil {
			return nil, translateDBError(err, r.logger, "failed to scan "+table.name+" row")
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBError(err, r.logger, "error iterating "+table.name+" rows")
	}
	return events, nil
}

func tableFor(kind engagement.Kind) (eventTable, error) {
	table, ok := eventTables[kind]
	if !ok {
		return eventTable{}, fmt.Errorf("%w: unknown event kind %q", apperrors.ErrInvalidArgument, kind)
	}
	return table, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
