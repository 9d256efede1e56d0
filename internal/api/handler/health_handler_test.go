package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"customer-health/internal/api/handler"
	"customer-health/internal/api/handler/dto"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/domain/health"
	"customer-health/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newHealthRouter(svc *MockHealthService) http.Handler {
	h := handler.NewHealthHandler(svc, logger)
	r := chi.NewRouter()
	r.Get("/customers/{customerID}/health", h.GetHealth)
	r.Get("/dashboard", h.Dashboard)
	return r
}

func TestGetHealth(t *testing.T) {
	t.Run("breakdown", func(t *testing.T) {
		svc := new(MockHealthService)
		r := report(8, "Gamma", 64)
		svc.On("GetHealth", mock.Anything, int64(8)).Return(&r, nil)

		rec := httptest.NewRecorder()
		newHealthRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/8/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, dto.HealthResponse{
			CustomerID:  8,
			Name:        "Gamma",
			Segment:     "smb",
			HealthScore: 64,
			Tier:        "at_risk",
			Scores:      dto.SubScoresResponse{Logins: 10, FeatureAdoption: 50, SupportTickets: 80, Invoices: 100, APIUsage: 20},
		}, resp)
	})

	t.Run("unknown customer", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("GetHealth", mock.Anything, int64(404)).Return(nil, fmt.Errorf("customer 404: %w", apperrors.ErrNotFound))

		rec := httptest.NewRecorder()
		newHealthRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/404/health", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockHealthService)
		rec := httptest.NewRecorder()
		newHealthRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/-1/health", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "GetHealth", mock.Anything, mock.Anything)
	})
}

func TestDashboard(t *testing.T) {
	t.Run("latest and critical", func(t *testing.T) {
		svc := new(MockHealthService)
		at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
		svc.On("Dashboard", mock.Anything, health.DefaultLatestPerKind).Return(&health.Dashboard{
			Latest: map[engagement.Kind][]engagement.Event{
				engagement.KindLogin: {&engagement.Login{Meta: engagement.Meta{ID: 1, CustomerID: 2}, Timestamp: at}},
				engagement.KindAPI:   {},
			},
			Critical: []health.Report{report(2, "Beta", 31)},
		}, nil)

		rec := httptest.NewRecorder()
		newHealthRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Latest map[string][]struct {
				EventType string `json:"event_type"`
			} `json:"latest"`
			CriticalThreshold float64                      `json:"critical_threshold"`
			Critical          []dto.CustomerHealthResponse `json:"critical"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, health.CriticalThreshold, resp.CriticalThreshold)
		require.Len(t, resp.Latest["login"], 1)
		assert.Equal(t, "login", resp.Latest["login"][0].EventType)
		assert.Empty(t, resp.Latest["api"])
		require.Len(t, resp.Critical, 1)
		assert.Equal(t, 31.0, resp.Critical[0].HealthScore)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("Dashboard", mock.Anything, health.DefaultLatestPerKind).Return(nil, apperrors.ErrStorageUnavailable)

		rec := httptest.NewRecorder()
		newHealthRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
