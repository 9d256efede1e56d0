package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"customer-health/internal/api/handler/dto"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/pkg/apperrors"
)

type EventHandler struct {
	service engagement.Service
	logger  *slog.Logger
}

func NewEventHandler(s engagement.Service, l *slog.Logger) *EventHandler {
	if s == nil {
		panic("engagement service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &EventHandler{
		service: s,
		logger:  l.With("component", "EventHandler"),
	}
}

// SubmitEvent handles POST /customers/{customerID}/events
// @Summary Record an engagement event
// @Description Validates and stores one login, feature, ticket, invoice or api event. Fields may sit beside event_type or under "data".
// @Tags Events
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body object true "Event payload, e.g. {\"event_type\":\"login\",\"timestamp\":\"2024-05-01T10:00:00Z\"}"
// @Success 201 {object} dto.EventResponse "Event recorded"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 409 {object} dto.ErrorResponse "Integrity violation"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /customers/{customerID}/events [post]
// @Security BearerAuth
func (h *EventHandler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	var req dto.SubmitEventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, apperrors.NewValidationErrorWithCause(engagement.FieldEventType, err.Error(), engagement.ErrMissingField))
		return
	}

	ev, err := h.service.SubmitEvent(r.Context(), customerID, req.EventType, req.Fields)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to record event",
			slog.Int64("customerID", customerID), slog.String("eventType", req.EventType), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewEventResponse(ev))
}

// ListEvents handles GET /customers/{customerID}/events
// @Summary Page through a customer's events of one kind
// @Description Newest first. per_page defaults to 5 and is capped at 100.
// @Tags Events
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param kind query string true "Event kind" Enums(login, feature, ticket, invoice, api)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(5)
// @Success 200 {object} dto.EventPageResponse "One page of events"
// @Failure 400 {object} dto.ErrorResponse "Invalid kind or paging parameters"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 503 {object} dto.ErrorResponse "Storage temporarily unavailable"
// @Router /customers/{customerID}/events [get]
// @Security BearerAuth
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	kind, err := engagement.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		respondError(w, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondError(w, err)
		return
	}
	perPage, err := queryInt(r, "per_page", engagement.DefaultPerPage)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.ListEvents(r.Context(), customerID, kind, page, perPage)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to list events", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewEventPageResponse(customerID, result))
}
