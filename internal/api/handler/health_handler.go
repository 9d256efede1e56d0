package handler

import (
	"log/slog"
	"net/http"

	"customer-health/internal/api/handler/dto"
	"customer-health/internal/domain/health"
)

type HealthHandler struct {
	service health.Service
	logger  *slog.Logger
}

func NewHealthHandler(s health.Service, l *slog.Logger) *HealthHandler {
	if s == nil {
		panic("health service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &HealthHandler{
		service: s,
		logger:  l.With("component", "HealthHandler"),
	}
}

// GetHealth handles GET /customers/{customerID}/health
// @Summary Customer health breakdown
// @Description Returns the five sub-scores, the weighted composite and the risk tier.
// @Tags Health
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.HealthResponse "Health breakdown"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /customers/{customerID}/health [get]
// @Security BearerAuth
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := h.service.GetHealth(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to compute health", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewHealthResponse(report))
}

// Dashboard handles GET /dashboard
// @Summary Portfolio dashboard
// @Description Latest five events of each kind plus every customer at or below the critical score.
// @Tags Health
// @Produce json
// @Success 200 {object} dto.DashboardResponse "Dashboard"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /dashboard [get]
// @Security BearerAuth
func (h *HealthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context(), health.DefaultLatestPerKind)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to build dashboard", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewDashboardResponse(dash))
}
