package customer

import (
	"strings"

	"customer-health/internal/pkg/apperrors"
)

type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Segment string `json:"segment"`
}

// Details is a customer together with how many events of each kind it owns.
type Details struct {
	Customer
	EventTotals map[string]int64 `json:"event_totals"`
}

// New trims its inputs and requires a non-empty name. The segment is a free-form label.
func New(name, segment string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "customer name cannot be empty")
	}
	return &Customer{
		Name:    name,
		Segment: strings.TrimSpace(segment),
	}, nil
}
