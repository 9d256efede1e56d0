package handler_test

import (
	"context"
	"io"
	"log/slog"

	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/domain/health"

	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) CreateCustomer(ctx context.Context, name, segment string) (*customer.Customer, error) {
	ret := _m.Called(ctx, name, segment)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Details, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Details
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Details)
	}
	return r0, ret.Error(1)
}

type MockHealthService struct {
	mock.Mock
}

func (_m *MockHealthService) GetHealth(ctx context.Context, customerID int64) (*health.Report, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *health.Report
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*health.Report)
	}
	return r0, ret.Error(1)
}

func (_m *MockHealthService) ListCustomers(ctx context.Context, key health.SortKey, order health.SortOrder) (*health.Listing, error) {
	ret := _m.Called(ctx, key, order)

	var r0 *health.Listing
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*health.Listing)
	}
	return r0, ret.Error(1)
}

func (_m *MockHealthService) ListAtRisk(ctx context.Context, threshold float64) ([]health.Report, error) {
	ret := _m.Called(ctx, threshold)

	var r0 []health.Report
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]health.Report)
	}
	return r0, ret.Error(1)
}

func (_m *MockHealthService) Dashboard(ctx context.Context, latestPerKind int) (*health.Dashboard, error) {
	ret := _m.Called(ctx, latestPerKind)

	var r0 *health.Dashboard
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*health.Dashboard)
	}
	return r0, ret.Error(1)
}

type MockEngagementService struct {
	mock.Mock
}

func (_m *MockEngagementService) SubmitEvent(ctx context.Context, customerID int64, kind string, fields engagement.Fields) (engagement.Event, error) {
	ret := _m.Called(ctx, customerID, kind, fields)

	var r0 engagement.Event
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(engagement.Event)
	}
	return r0, ret.Error(1)
}

func (_m *MockEngagementService) ListEvents(ctx context.Context, customerID int64, kind engagement.Kind, page, perPage int) (*engagement.Page, error) {
	ret := _m.Called(ctx, customerID, kind, page, perPage)

	var r0 *engagement.Page
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*engagement.Page)
	}
	return r0, ret.Error(1)
}

func report(id int64, name string, score float64) health.Report {
	return health.Report{
		Customer: customer.Customer{ID: id, Name: name, Segment: "smb"},
		Scores:   health.Scores{Login: 10, Adoption: 50, Ticket: 80, Invoice: 100, API: 20, Composite: score},
		Tier:     health.Classify(score),
	}
}
