package engagement

import (
	"testing"
	"time"

	"customer-health/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func iso(t time.Time) string {
	return t.Format(time.RFC3339)
}

func requireRejected(t *testing.T, err error, field string, cause error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.ErrorIs(t, err, cause)

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, field, vErr.Field)
}

func TestParseUnknownKind(t *testing.T) {
	_, err := Parse("purchase", Fields{"timestamp": iso(now)}, now)
	requireRejected(t, err, FieldEventType, ErrUnknownKind)
}

func TestParseKindIsCaseInsensitive(t *testing.T) {
	k, err := ParseKind(" Login ")
	require.NoError(t, err)
	assert.Equal(t, KindLogin, k)
}

func TestParseLoginBoundaryAroundNow(t *testing.T) {
	t.Run("one second in the past is accepted", func(t *testing.T) {
		ev, err := Parse("login", Fields{"timestamp": iso(now.Add(-time.Second))}, now)
		require.NoError(t, err)
		login, ok := ev.(*Login)
		require.True(t, ok)
		assert.Equal(t, now.Add(-time.Second), login.Timestamp)
	})

	t.Run("exactly now is accepted", func(t *testing.T) {
		_, err := Parse("login", Fields{"timestamp": iso(now)}, now)
		assert.NoError(t, err)
	})

	t.Run("one second in the future is rejected", func(t *testing.T) {
		_, err := Parse("login", Fields{"timestamp": iso(now.Add(time.Second))}, now)
		requireRejected(t, err, FieldTimestamp, ErrFutureTimestamp)
	})
}

func TestParseMalformedAndFutureAreDistinct(t *testing.T) {
	_, malformed := Parse("login", Fields{"timestamp": "yesterday-ish"}, now)
	_, future := Parse("login", Fields{"timestamp": iso(now.Add(time.Hour))}, now)

	assert.ErrorIs(t, malformed, ErrMalformedTimestamp)
	assert.NotErrorIs(t, malformed, ErrFutureTimestamp)
	assert.ErrorIs(t, future, ErrFutureTimestamp)
	assert.NotErrorIs(t, future, ErrMalformedTimestamp)
}

func TestParseFractionalSecondsPrecision(t *testing.T) {
	t.Run("microseconds accepted", func(t *testing.T) {
		ev, err := Parse("login", Fields{"timestamp": "2024-06-01T10:00:00.123456Z"}, now)
		require.NoError(t, err)
		assert.Equal(t, 123456000, ev.OccurredAt().Nanosecond())
	})

	t.Run("nanoseconds rejected", func(t *testing.T) {
		_, err := Parse("login", Fields{"timestamp": "2024-06-01T10:00:00.123456789Z"}, now)
		requireRejected(t, err, FieldTimestamp, ErrMalformedTimestamp)
	})

	t.Run("optional field checked too", func(t *testing.T) {
		_, err := Parse("ticket", Fields{
			"created_at": "2024-06-01T10:00:00Z",
			"closed_at":  "2024-06-02T10:00:00.0000001Z",
			"status":     "closed",
		}, now)
		requireRejected(t, err, FieldClosedAt, ErrMalformedTimestamp)
	})
}

func TestParseMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		field string
		in    Fields
	}{
		{"login without timestamp", "login", FieldTimestamp, Fields{}},
		{"feature with blank name", "feature", FieldFeatureName, Fields{"feature_name": "  ", "timestamp": iso(now)}},
		{"feature without timestamp", "feature", FieldTimestamp, Fields{"feature_name": "reports"}},
		{"ticket without created_at", "ticket", FieldCreatedAt, Fields{"status": "open"}},
		{"invoice without amount", "invoice", FieldAmount, Fields{"issued_at": iso(now), "due_date": iso(now)}},
		{"api without endpoint", "api", FieldEndpoint, Fields{"timestamp": iso(now)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.kind, tt.in, now)
			requireRejected(t, err, tt.field, ErrMissingField)
		})
	}
}

func TestParseFeature(t *testing.T) {
	ev, err := Parse("feature", Fields{"feature_name": " dashboards ", "timestamp": "2025-06-01T08:30:00Z"}, now)
	require.NoError(t, err)

	fu := ev.(*FeatureUse)
	assert.Equal(t, KindFeature, fu.Kind())
	assert.Equal(t, "dashboards", fu.FeatureName)
	assert.Equal(t, time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC), fu.OccurredAt())
}

func TestParseTicket(t *testing.T) {
	created := now.Add(-48 * time.Hour)

	t.Run("defaults to open", func(t *testing.T) {
		ev, err := Parse("ticket", Fields{"created_at": iso(created)}, now)
		require.NoError(t, err)
		ticket := ev.(*Ticket)
		assert.Equal(t, TicketOpen, ticket.Status)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("closed_at implies closed", func(t *testing.T) {
		ev, err := Parse("ticket", Fields{"created_at": iso(created), "closed_at": iso(created.Add(time.Hour))}, now)
		require.NoError(t, err)
		ticket := ev.(*Ticket)
		assert.Equal(t, TicketClosed, ticket.Status)
		require.NotNil(t, ticket.ClosedAt)
		assert.Equal(t, created.Add(time.Hour), *ticket.ClosedAt)
	})

	t.Run("closed before created is rejected", func(t *testing.T) {
		_, err := Parse("ticket", Fields{"created_at": iso(created), "closed_at": iso(created.Add(-time.Minute))}, now)
		requireRejected(t, err, FieldClosedAt, ErrTemporalOrder)
	})

	t.Run("closed in the future is rejected", func(t *testing.T) {
		_, err := Parse("ticket", Fields{"created_at": iso(created), "closed_at": iso(now.Add(time.Minute))}, now)
		requireRejected(t, err, FieldClosedAt, ErrFutureTimestamp)
	})

	t.Run("open ticket cannot carry closed_at", func(t *testing.T) {
		_, err := Parse("ticket", Fields{"created_at": iso(created), "closed_at": iso(created.Add(time.Hour)), "status": "open"}, now)
		requireRejected(t, err, FieldStatus, ErrInvalidStatus)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := Parse("ticket", Fields{"created_at": iso(created), "status": "pending"}, now)
		requireRejected(t, err, FieldStatus, ErrInvalidStatus)
	})
}

func TestParseInvoice(t *testing.T) {
	issued := now.Add(-10 * 24 * time.Hour)

	t.Run("valid invoice keeps the exact amount", func(t *testing.T) {
		ev, err := Parse("invoice", Fields{
			"issued_at": iso(issued),
			"due_date":  iso(issued.Add(30 * 24 * time.Hour)),
			"amount":    "1234.5600",
			"status":    "PAID",
			"paid_date": iso(issued.Add(24 * time.Hour)),
		}, now)
		require.NoError(t, err)

		inv := ev.(*Invoice)
		assert.True(t, decimal.RequireFromString("1234.56").Equal(inv.Amount))
		assert.Equal(t, int32(-4), inv.Amount.Exponent())
		assert.Equal(t, InvoicePaid, inv.Status)
		require.NotNil(t, inv.PaidDate)
	})

	t.Run("status defaults to unpaid", func(t *testing.T) {
		ev, err := Parse("invoice", Fields{"issued_at": iso(issued), "due_date": iso(issued), "amount": "0"}, now)
		require.NoError(t, err)
		assert.Equal(t, InvoiceUnpaid, ev.(*Invoice).Status)
	})

	t.Run("due before issued is rejected regardless of amount", func(t *testing.T) {
		for _, amount := range []string{"100", "-5", "not-a-number"} {
			_, err := Parse("invoice", Fields{
				"issued_at": iso(issued),
				"due_date":  iso(issued.Add(-time.Hour)),
				"amount":    amount,
			}, now)
			requireRejected(t, err, FieldDueDate, ErrTemporalOrder)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := Parse("invoice", Fields{"issued_at": iso(issued), "due_date": iso(issued), "amount": "-0.01"}, now)
		requireRejected(t, err, FieldAmount, ErrNegativeAmount)
	})

	t.Run("non numeric amount", func(t *testing.T) {
		_, err := Parse("invoice", Fields{"issued_at": iso(issued), "due_date": iso(issued), "amount": "ten"}, now)
		requireRejected(t, err, FieldAmount, ErrInvalidAmount)
	})

	t.Run("issued in the future", func(t *testing.T) {
		_, err := Parse("invoice", Fields{"issued_at": iso(now.Add(time.Second)), "due_date": iso(now.Add(time.Hour)), "amount": "1"}, now)
		requireRejected(t, err, FieldIssuedAt, ErrFutureTimestamp)
	})

	t.Run("malformed paid_date", func(t *testing.T) {
		_, err := Parse("invoice", Fields{"issued_at": iso(issued), "due_date": iso(issued), "amount": "1", "paid_date": "soon"}, now)
		requireRejected(t, err, FieldPaidDate, ErrMalformedTimestamp)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := Parse("invoice", Fields{"issued_at": iso(issued), "due_date": iso(issued), "amount": "1", "status": "overdue"}, now)
		requireRejected(t, err, FieldStatus, ErrInvalidStatus)
	})
}

func TestParseAPICall(t *testing.T) {
	ev, err := Parse("api", Fields{"endpoint": "/v1/orders", "timestamp": "2025-06-15 11:59:59"}, now)
	require.NoError(t, err)

	call := ev.(*APICall)
	assert.Equal(t, "/v1/orders", call.Endpoint)
	assert.Equal(t, now.Add(-time.Second), call.Timestamp)
	assert.Zero(t, call.Metadata().ID)
}
