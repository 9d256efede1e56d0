package engagement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"customer-health/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownKind        = errors.New("unknown event kind")
	ErrMissingField       = errors.New("required field missing")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrFutureTimestamp    = errors.New("timestamp in the future")
	ErrTemporalOrder      = errors.New("timestamps out of order")
	ErrInvalidAmount      = errors.New("amount is not a number")
	ErrNegativeAmount     = errors.New("amount is negative")
	ErrInvalidStatus      = errors.New("invalid status")
)

const (
	FieldEventType   = "event_type"
	FieldTimestamp   = "timestamp"
	FieldFeatureName = "feature_name"
	FieldStatus      = "status"
	FieldCreatedAt   = "created_at"
	FieldClosedAt    = "closed_at"
	FieldIssuedAt    = "issued_at"
	FieldDueDate     = "due_date"
	FieldAmount      = "amount"
	FieldPaidDate    = "paid_date"
	FieldEndpoint    = "endpoint"
)

// Fields is the raw submission payload keyed by field name. Blank values count as absent.
type Fields map[string]string

func (f Fields) Get(name string) (string, bool) {
	v := strings.TrimSpace(f[name])
	return v, v != ""
}

// Parse validates a raw submission against the rules for its kind and builds the
// typed event. It performs no I/O; now is the reference instant for future checks.
// The returned event has no customer or ID set.
func Parse(kind string, fields Fields, now time.Time) (Event, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	now = now.UTC()

	switch k {
	case KindLogin:
		return parseLogin(fields, now)
	case KindFeature:
		return parseFeature(fields, now)
	case KindTicket:
		return parseTicket(fields, now)
	case KindInvoice:
		return parseInvoice(fields, now)
	default:
		return parseAPICall(fields, now)
	}
}

func parseLogin(f Fields, now time.Time) (Event, error) {
	if err := f.require(FieldTimestamp); err != nil {
		return nil, err
	}
	ts, err := f.timestamp(FieldTimestamp)
	if err != nil {
		return nil, err
	}
	if err := notAfter(FieldTimestamp, ts, now); err != nil {
		return nil, err
	}
	return &Login{Timestamp: ts}, nil
}

func parseFeature(f Fields, now time.Time) (Event, error) {
	if err := f.require(FieldFeatureName, FieldTimestamp); err != nil {
		return nil, err
	}
	ts, err := f.timestamp(FieldTimestamp)
	if err != nil {
		return nil, err
	}
	if err := notAfter(FieldTimestamp, ts, now); err != nil {
		return nil, err
	}
	name, _ := f.Get(FieldFeatureName)
	return &FeatureUse{FeatureName: name, Timestamp: ts}, nil
}

func parseTicket(f Fields, now time.Time) (Event, error) {
	if err := f.require(FieldCreatedAt); err != nil {
		return nil, err
	}
	createdAt, err := f.timestamp(FieldCreatedAt)
	if err != nil {
		return nil, err
	}
	closedAt, err := f.optionalTimestamp(FieldClosedAt)
	if err != nil {
		return nil, err
	}

	if closedAt != nil && closedAt.Before(createdAt) {
		return nil, apperrors.NewValidationErrorWithCause(FieldClosedAt, "closed_at cannot be before created_at", ErrTemporalOrder)
	}
	if err := notAfter(FieldCreatedAt, createdAt, now); err != nil {
		return nil, err
	}
	if closedAt != nil {
		if err := notAfter(FieldClosedAt, *closedAt, now); err != nil {
			return nil, err
		}
	}

	status := TicketOpen
	if closedAt != nil {
		status = TicketClosed
	}
	if raw, ok := f.Get(FieldStatus); ok {
		switch TicketStatus(strings.ToLower(raw)) {
		case TicketOpen:
			if closedAt != nil {
				return nil, apperrors.NewValidationErrorWithCause(FieldStatus, "an open ticket cannot have closed_at", ErrInvalidStatus)
			}
			status = TicketOpen
		case TicketClosed:
			status = TicketClosed
		default:
			return nil, apperrors.NewValidationErrorWithCause(FieldStatus, fmt.Sprintf("status must be one of open, closed; got %q", raw), ErrInvalidStatus)
		}
	}

	return &Ticket{Status: status, CreatedAt: createdAt, ClosedAt: closedAt}, nil
}

func parseInvoice(f Fields, now time.Time) (Event, error) {
	if err := f.require(FieldIssuedAt, FieldDueDate, FieldAmount); err != nil {
		return nil, err
	}
	issuedAt, err := f.timestamp(FieldIssuedAt)
	if err != nil {
		return nil, err
	}
	dueDate, err := f.timestamp(FieldDueDate)
	if err != nil {
		return nil, err
	}
	paidDate, err := f.optionalTimestamp(FieldPaidDate)
	if err != nil {
		return nil, err
	}

	if err := notAfter(FieldIssuedAt, issuedAt, now); err != nil {
		return nil, err
	}
	if dueDate.Before(issuedAt) {
		return nil, apperrors.NewValidationErrorWithCause(FieldDueDate, "due_date cannot be before issued_at", ErrTemporalOrder)
	}
	if paidDate != nil {
		if err := notAfter(FieldPaidDate, *paidDate, now); err != nil {
			return nil, err
		}
	}

	raw, _ := f.Get(FieldAmount)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.NewValidationErrorWithCause(FieldAmount, fmt.Sprintf("amount must be a valid number; got %q", raw), ErrInvalidAmount)
	}
	if amount.IsNegative() {
		return nil, apperrors.NewValidationErrorWithCause(FieldAmount, "amount cannot be negative", ErrNegativeAmount)
	}

	status := InvoiceUnpaid
	if rawStatus, ok := f.Get(FieldStatus); ok {
		switch s := InvoiceStatus(strings.ToLower(rawStatus)); s {
		case InvoiceUnpaid, InvoicePaid, InvoiceLate:
			status = s
		default:
			return nil, apperrors.NewValidationErrorWithCause(FieldStatus, fmt.Sprintf("status must be one of unpaid, paid, late; got %q", rawStatus), ErrInvalidStatus)
		}
	}

	return &Invoice{
		IssuedAt: issuedAt,
		DueDate:  dueDate,
		Amount:   amount,
		Status:   status,
		PaidDate: paidDate,
	}, nil
}

func parseAPICall(f Fields, now time.Time) (Event, error) {
	if err := f.require(FieldEndpoint, FieldTimestamp); err != nil {
		return nil, err
	}
	ts, err := f.timestamp(FieldTimestamp)
	if err != nil {
		return nil, err
	}
	if err := notAfter(FieldTimestamp, ts, now); err != nil {
		return nil, err
	}
	endpoint, _ := f.Get(FieldEndpoint)
	return &APICall{Endpoint: endpoint, Timestamp: ts}, nil
}

// require reports the first missing field in the order given.
func (f Fields) require(names ...string) error {
	for _, name := range names {
		if _, ok := f.Get(name); !ok {
			return apperrors.NewValidationErrorWithCause(name, fmt.Sprintf("%s is required", name), ErrMissingField)
		}
	}
	return nil
}

func (f Fields) timestamp(name string) (time.Time, error) {
	raw, _ := f.Get(name)
	ts, ok := ParseTimestamp(raw)
	if !ok {
		return time.Time{}, apperrors.NewValidationErrorWithCause(name, fmt.Sprintf("%q is not a valid ISO 8601 datetime", raw), ErrMalformedTimestamp)
	}
	// Storage keeps microseconds; anything finer would not read back unchanged.
	if ts.Nanosecond()%int(time.Microsecond) != 0 {
		return time.Time{}, apperrors.NewValidationErrorWithCause(name, fmt.Sprintf("%q has more than 6 fractional second digits", raw), ErrMalformedTimestamp)
	}
	return ts, nil
}

func (f Fields) optionalTimestamp(name string) (*time.Time, error) {
	if _, ok := f.Get(name); !ok {
		return nil, nil
	}
	ts, err := f.timestamp(name)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func notAfter(name string, ts, now time.Time) error {
	if ts.After(now) {
		return apperrors.NewValidationErrorWithCause(name, fmt.Sprintf("%s cannot be in the future", name), ErrFutureTimestamp)
	}
	return nil
}
