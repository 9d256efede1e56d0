package dto

import (
	"customer-health/internal/domain/health"

	"github.com/samber/lo"
)

type SubScoresResponse struct {
	Logins          int `json:"logins"`
	FeatureAdoption int `json:"feature_adoption"`
	SupportTickets  int `json:"support_tickets"`
	Invoices        int `json:"invoices"`
	APIUsage        int `json:"api_usage"`
}

type HealthResponse struct {
	CustomerID  int64             `json:"customer_id"`
	Name        string            `json:"name"`
	Segment     string            `json:"segment"`
	HealthScore float64           `json:"health_score"`
	Tier        string            `json:"tier"`
	Scores      SubScoresResponse `json:"scores"`
}

// CustomerHealthResponse is one row of a customer listing.
type CustomerHealthResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Segment     string  `json:"segment"`
	HealthScore float64 `json:"health_score"`
	Tier        string  `json:"tier"`
}

type CustomerListResponse struct {
	TotalCustomers int                      `json:"total_customers"`
	AverageHealth  float64                  `json:"average_health"`
	SortBy         string                   `json:"sort_by"`
	Order          string                   `json:"order"`
	Customers      []CustomerHealthResponse `json:"customers"`
}

type AtRiskResponse struct {
	Threshold float64                  `json:"threshold"`
	Count     int                      `json:"count"`
	Customers []CustomerHealthResponse `json:"customers"`
}

type DashboardResponse struct {
	Latest            map[string][]EventResponse `json:"latest"`
	CriticalThreshold float64                    `json:"critical_threshold"`
	Critical          []CustomerHealthResponse   `json:"critical"`
}

func NewHealthResponse(r *health.Report) HealthResponse {
	return HealthResponse{
		CustomerID:  r.Customer.ID,
		Name:        r.Customer.Name,
		Segment:     r.Customer.Segment,
		HealthScore: r.Scores.Composite,
		Tier:        string(r.Tier),
		Scores: SubScoresResponse{
			Logins:          r.Scores.Login,
			FeatureAdoption: r.Scores.Adoption,
			SupportTickets:  r.Scores.Ticket,
			Invoices:        r.Scores.Invoice,
			APIUsage:        r.Scores.API,
		},
	}
}

func NewCustomerHealthResponses(reports []health.Report) []CustomerHealthResponse {
	return lo.Map(reports, func(r health.Report, _ int) CustomerHealthResponse {
		return CustomerHealthResponse{
			ID:          r.Customer.ID,
			Name:        r.Customer.Name,
			Segment:     r.Customer.Segment,
			HealthScore: r.Scores.Composite,
			Tier:        string(r.Tier),
		}
	})
}

func NewCustomerListResponse(l *health.Listing, key health.SortKey, order health.SortOrder) CustomerListResponse {
	return CustomerListResponse{
		TotalCustomers: len(l.Customers),
		AverageHealth:  l.AverageHealth,
		SortBy:         string(key),
		Order:          string(order),
		Customers:      NewCustomerHealthResponses(l.Customers),
	}
}

func NewAtRiskResponse(threshold float64, reports []health.Report) AtRiskResponse {
	return AtRiskResponse{
		Threshold: threshold,
		Count:     len(reports),
		Customers: NewCustomerHealthResponses(reports),
	}
}

func NewDashboardResponse(d *health.Dashboard) DashboardResponse {
	latest := make(map[string][]EventResponse, len(d.Latest))
	for kind, events := range d.Latest {
		latest[string(kind)] = NewEventResponses(events)
	}
	return DashboardResponse{
		Latest:            latest,
		CriticalThreshold: health.CriticalThreshold,
		Critical:          NewCustomerHealthResponses(d.Critical),
	}
}
