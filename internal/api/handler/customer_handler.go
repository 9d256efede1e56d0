package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"customer-health/internal/api/handler/dto"
	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/health"
	"customer-health/internal/pkg/apperrors"
)

type CustomerHandler struct {
	customers customer.CustomerService
	health    health.Service
	logger    *slog.Logger
}

func NewCustomerHandler(customers customer.CustomerService, healthSvc health.Service, l *slog.Logger) *CustomerHandler {
	if customers == nil || healthSvc == nil {
		panic("customer and health services cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		customers: customers,
		health:    healthSvc,
		logger:    l.With("component", "CustomerHandler"),
	}
}

// CreateCustomer handles POST /customers
// @Summary Create a new customer
// @Description Creates a customer with a name and an optional segment label.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer creation request"
// @Success 201 {object} dto.CustomerResponse "Customer successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload (e.g., empty name)"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /customers [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.customers.CreateCustomer(r.Context(), req.Name, req.Segment)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to create customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer created successfully", slog.Int64("customerID", created.ID))
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// GetCustomer handles GET /customers/{customerID}
// @Summary Retrieve customer details
// @Description Returns the customer and how many events of each kind are recorded for it.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerDetailResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	details, err := h.customers.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to get customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerDetailResponse(details))
}

// ListCustomers handles GET /customers
// @Summary List customers with their health scores
// @Description Scores every customer from one snapshot. Unknown sort keys fall back to name and unknown orders to ascending.
// @Tags Customers
// @Produce json
// @Param sort_by query string false "Sort key" Enums(name, health_score)
// @Param order query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} dto.CustomerListResponse "Customers with health scores"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	key := health.ParseSortKey(r.URL.Query().Get("sort_by"))
	order := health.ParseSortOrder(r.URL.Query().Get("order"))

	listing, err := h.health.ListCustomers(r.Context(), key, order)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to list customers", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customers listed successfully", slog.Int("count", len(listing.Customers)))
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(listing, key, order))
}

// ListAtRisk handles GET /customers/at-risk
// @Summary List at-risk customers
// @Description Returns customers whose health score is strictly below the threshold, lowest first.
// @Tags Customers
// @Produce json
// @Param threshold query number false "Score threshold between 0 and 100" default(70)
// @Success 200 {object} dto.AtRiskResponse "At-risk customers"
// @Failure 400 {object} dto.ErrorResponse "Invalid threshold"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /customers/at-risk [get]
// @Security BearerAuth
func (h *CustomerHandler) ListAtRisk(w http.ResponseWriter, r *http.Request) {
	threshold := health.DefaultAtRiskThreshold
	if raw := strings.TrimSpace(r.URL.Query().Get("threshold")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.logger.WarnContext(r.Context(), "Invalid threshold query parameter", slog.String("threshold", raw))
			respondError(w, fmt.Errorf("%w: threshold must be a number, got %q", apperrors.ErrInvalidArgument, raw))
			return
		}
		threshold = parsed
	}

	reports, err := h.health.ListAtRisk(r.Context(), threshold)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to list at-risk customers", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAtRiskResponse(threshold, reports))
}
