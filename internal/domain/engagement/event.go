package engagement

import (
	"fmt"
	"strings"
	"time"

	"customer-health/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindLogin   Kind = "login"
	KindFeature Kind = "feature"
	KindTicket  Kind = "ticket"
	KindInvoice Kind = "invoice"
	KindAPI     Kind = "api"
)

// Kinds lists every event kind in display order.
func Kinds() []Kind {
	return []Kind{KindLogin, KindFeature, KindTicket, KindInvoice, KindAPI}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindLogin, KindFeature, KindTicket, KindInvoice, KindAPI:
		return k, nil
	}
	return "", apperrors.NewValidationErrorWithCause(FieldEventType, fmt.Sprintf("unknown event type %q", s), ErrUnknownKind)
}

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceLate   InvoiceStatus = "late"
)

// Good reports whether the invoice counts toward the invoice sub-score.
func (s InvoiceStatus) Good() bool {
	return s != InvoiceUnpaid && s != InvoiceLate
}

// Event is one validated engagement record. The set of implementations is closed.
type Event interface {
	Kind() Kind
	Metadata() *Meta
	OccurredAt() time.Time
	sealed()
}

// Meta carries the identity fields shared by every event. ID is zero until persisted.
type Meta struct {
	ID         int64 `json:"id"`
	CustomerID int64 `json:"customer_id"`
}

func (m *Meta) Metadata() *Meta { return m }

type Login struct {
	Meta
	Timestamp time.Time `json:"timestamp"`
}

type FeatureUse struct {
	Meta
	FeatureName string    `json:"feature_name"`
	Timestamp   time.Time `json:"timestamp"`
}

type Ticket struct {
	Meta
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
}

type Invoice struct {
	Meta
	IssuedAt time.Time       `json:"issued_at"`
	DueDate  time.Time       `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
	Status   InvoiceStatus   `json:"status"`
	PaidDate *time.Time      `json:"paid_date,omitempty"`
}

type APICall struct {
	Meta
	Endpoint  string    `json:"endpoint"`
	Timestamp time.Time `json:"timestamp"`
}

func (*Login) Kind() Kind      { return KindLogin }
func (*FeatureUse) Kind() Kind { return KindFeature }
func (*Ticket) Kind() Kind     { return KindTicket }
func (*Invoice) Kind() Kind    { return KindInvoice }
func (*APICall) Kind() Kind    { return KindAPI }

func (e *Login) OccurredAt() time.Time      { return e.Timestamp }
func (e *FeatureUse) OccurredAt() time.Time { return e.Timestamp }
func (e *Ticket) OccurredAt() time.Time     { return e.CreatedAt }
func (e *Invoice) OccurredAt() time.Time    { return e.IssuedAt }
func (e *APICall) OccurredAt() time.Time    { return e.Timestamp }

func (*Login) sealed()      {}
func (*FeatureUse) sealed() {}
func (*Ticket) sealed()     {}
func (*Invoice) sealed()    {}
func (*APICall) sealed()    {}
