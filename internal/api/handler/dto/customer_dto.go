package dto

import (
	"fmt"
	"strings"

	"customer-health/internal/domain/customer"
)

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Segment string `json:"segment"`
}

func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

type CustomerResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Segment string `json:"segment"`
}

type CustomerDetailResponse struct {
	CustomerResponse
	EventTotals map[string]int64 `json:"event_totals"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:      cust.ID,
		Name:    cust.Name,
		Segment: cust.Segment,
	}
}

func NewCustomerDetailResponse(details *customer.Details) CustomerDetailResponse {
	if details == nil {
		return CustomerDetailResponse{}
	}
	totals := details.EventTotals
	if totals == nil {
		totals = map[string]int64{}
	}
	return CustomerDetailResponse{
		CustomerResponse: NewCustomerResponse(&details.Customer),
		EventTotals:      totals,
	}
}
