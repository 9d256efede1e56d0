package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"customer-health/internal/api/handler"
	"customer-health/internal/api/handler/dto"
	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/health"
	"customer-health/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCustomerRouter(customers *MockCustomerService, healthSvc *MockHealthService) http.Handler {
	h := handler.NewCustomerHandler(customers, healthSvc, logger)
	r := chi.NewRouter()
	r.Post("/customers", h.CreateCustomer)
	r.Get("/customers", h.ListCustomers)
	r.Get("/customers/at-risk", h.ListAtRisk)
	r.Get("/customers/{customerID}", h.GetCustomer)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestCreateCustomer(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		customers := new(MockCustomerService)
		customers.On("CreateCustomer", mock.Anything, "Acme", "enterprise").
			Return(&customer.Customer{ID: 7, Name: "Acme", Segment: "enterprise"}, nil)

		body, _ := json.Marshal(dto.CreateCustomerRequest{Name: "Acme", Segment: "enterprise"})
		rec := httptest.NewRecorder()
		newCustomerRouter(customers, new(MockHealthService)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CustomerResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, dto.CustomerResponse{ID: 7, Name: "Acme", Segment: "enterprise"}, resp)
		customers.AssertExpectations(t)
	})

	t.Run("empty name never reaches the service", func(t *testing.T) {
		customers := new(MockCustomerService)
		rec := httptest.NewRecorder()
		newCustomerRouter(customers, new(MockHealthService)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(`{"name":"  "}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Error.Code)
		customers.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newCustomerRouter(new(MockCustomerService), new(MockHealthService)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(`{"name":"Acme","tier":"gold"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage unavailable maps to 503", func(t *testing.T) {
		customers := new(MockCustomerService)
		customers.On("CreateCustomer", mock.Anything, "Acme", "").
			Return(nil, fmt.Errorf("%w: pool exhausted", apperrors.ErrStorageUnavailable))

		rec := httptest.NewRecorder()
		newCustomerRouter(customers, new(MockHealthService)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(`{"name":"Acme"}`)))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		body := decodeError(t, rec)
		assert.Equal(t, "STORAGE_UNAVAILABLE", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "pool exhausted")
	})
}

func TestGetCustomer(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(m *MockCustomerService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "found with totals",
			path: "/customers/3",
			setup: func(m *MockCustomerService) {
				m.On("GetCustomer", mock.Anything, int64(3)).Return(&customer.Details{
					Customer:    customer.Customer{ID: 3, Name: "Beta", Segment: "smb"},
					EventTotals: map[string]int64{"login": 4, "invoice": 1},
				}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/customers/99",
			setup: func(m *MockCustomerService) {
				m.On("GetCustomer", mock.Anything, int64(99)).Return(nil, fmt.Errorf("customer 99: %w", apperrors.ErrNotFound))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "non numeric id",
			path:       "/customers/abc",
			setup:      func(m *MockCustomerService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "zero id",
			path:       "/customers/0",
			setup:      func(m *MockCustomerService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name: "unexpected database failure hides details",
			path: "/customers/5",
			setup: func(m *MockCustomerService) {
				m.On("GetCustomer", mock.Anything, int64(5)).Return(nil, apperrors.WrapDatabaseError(errors.New("syntax error at or near"), "query failed"))
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			customers := new(MockCustomerService)
			tc.setup(customers)

			rec := httptest.NewRecorder()
			newCustomerRouter(customers, new(MockHealthService)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantCode != "" {
				body := decodeError(t, rec)
				assert.Equal(t, tc.wantCode, body.Error.Code)
				assert.NotContains(t, body.Error.Message, "syntax error")
				return
			}
			var resp dto.CustomerDetailResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, int64(3), resp.ID)
			assert.Equal(t, int64(4), resp.EventTotals["login"])
			customers.AssertExpectations(t)
		})
	}
}

func TestListCustomers(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantKey   health.SortKey
		wantOrder health.SortOrder
	}{
		{name: "defaults", query: "", wantKey: health.SortByName, wantOrder: health.Ascending},
		{name: "health descending", query: "?sort_by=health_score&order=desc", wantKey: health.SortByHealthScore, wantOrder: health.Descending},
		{name: "unknown values fall back", query: "?sort_by=revenue&order=sideways", wantKey: health.SortByName, wantOrder: health.Ascending},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			healthSvc := new(MockHealthService)
			healthSvc.On("ListCustomers", mock.Anything, tc.wantKey, tc.wantOrder).Return(&health.Listing{
				Customers:     []health.Report{report(1, "Acme", 92.5), report(2, "Beta", 41)},
				AverageHealth: 66.75,
			}, nil)

			rec := httptest.NewRecorder()
			newCustomerRouter(new(MockCustomerService), healthSvc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers"+tc.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var resp dto.CustomerListResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, 2, resp.TotalCustomers)
			assert.Equal(t, 66.75, resp.AverageHealth)
			assert.Equal(t, string(tc.wantKey), resp.SortBy)
			assert.Equal(t, string(tc.wantOrder), resp.Order)
			assert.Equal(t, "healthy", resp.Customers[0].Tier)
			healthSvc.AssertExpectations(t)
		})
	}
}

func TestListAtRisk(t *testing.T) {
	t.Run("default threshold", func(t *testing.T) {
		healthSvc := new(MockHealthService)
		healthSvc.On("ListAtRisk", mock.Anything, 70.0).Return([]health.Report{report(4, "Delta", 35), report(2, "Beta", 55)}, nil)

		rec := httptest.NewRecorder()
		newCustomerRouter(new(MockCustomerService), healthSvc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/at-risk", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.AtRiskResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 70.0, resp.Threshold)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, int64(4), resp.Customers[0].ID)
		assert.Equal(t, "at_risk", resp.Customers[0].Tier)
	})

	t.Run("explicit threshold", func(t *testing.T) {
		healthSvc := new(MockHealthService)
		healthSvc.On("ListAtRisk", mock.Anything, 45.5).Return([]health.Report{}, nil)

		rec := httptest.NewRecorder()
		newCustomerRouter(new(MockCustomerService), healthSvc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/at-risk?threshold=45.5", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"threshold":45.5,"count":0,"customers":[]}`, rec.Body.String())
	})

	t.Run("non numeric threshold", func(t *testing.T) {
		healthSvc := new(MockHealthService)
		rec := httptest.NewRecorder()
		newCustomerRouter(new(MockCustomerService), healthSvc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/at-risk?threshold=high", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		healthSvc.AssertNotCalled(t, "ListAtRisk", mock.Anything, mock.Anything)
	})

	t.Run("out of range threshold from service", func(t *testing.T) {
		healthSvc := new(MockHealthService)
		healthSvc.On("ListAtRisk", mock.Anything, 150.0).Return(nil, fmt.Errorf("%w: threshold must be between 0 and 100", apperrors.ErrInvalidArgument))

		rec := httptest.NewRecorder()
		newCustomerRouter(new(MockCustomerService), healthSvc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/at-risk?threshold=150", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Error.Code)
	})

	t.Run("deadline exceeded maps to 503", func(t *testing.T) {
		healthSvc := new(MockHealthService)
		healthSvc.On("ListAtRisk", mock.Anything, 70.0).Return(nil, context.DeadlineExceeded)

		rec := httptest.NewRecorder()
		newCustomerRouter(new(MockCustomerService), healthSvc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/at-risk", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestNewCustomerHandlerPanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { handler.NewCustomerHandler(nil, new(MockHealthService), logger) })
	assert.Panics(t, func() { handler.NewCustomerHandler(new(MockCustomerService), nil, logger) })
	assert.Panics(t, func() { handler.NewCustomerHandler(new(MockCustomerService), new(MockHealthService), nil) })
}
