package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"customer-health/internal/domain/engagement"

	"github.com/samber/lo"
)

const (
	eventTypeKey = "event_type"
	dataKey      = "data"
)

// SubmitEventRequest accepts the event fields either flat beside event_type or nested
// under "data". Nested values win when both are present. Every field must be a JSON
// scalar; null counts as absent.
type SubmitEventRequest struct {
	EventType string
	Fields    engagement.Fields
}

func (r *SubmitEventRequest) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return err
	}
	if body == nil {
		return errors.New("request body must be a JSON object")
	}

	r.Fields = make(engagement.Fields, len(body))
	for key, value := range body {
		switch key {
		case eventTypeKey:
			if value == nil {
				continue
			}
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("%s must be a string", eventTypeKey)
			}
			r.EventType = s
		case dataKey:
		default:
			if err := r.setField(key, value); err != nil {
				return err
			}
		}
	}

	if nested, ok := body[dataKey]; ok && nested != nil {
		obj, ok := nested.(map[string]any)
		if !ok {
			return fmt.Errorf("%s must be an object", dataKey)
		}
		for key, value := range obj {
			if err := r.setField(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *SubmitEventRequest) setField(key string, value any) error {
	switch v := value.(type) {
	case nil:
		delete(r.Fields, key)
	case string:
		r.Fields[key] = v
	case json.Number:
		r.Fields[key] = v.String()
	case bool:
		r.Fields[key] = strconv.FormatBool(v)
	default:
		return fmt.Errorf("field %q must be a scalar value", key)
	}
	return nil
}

func (r *SubmitEventRequest) Validate() error {
	if r.EventType == "" {
		return fmt.Errorf("%s is required", eventTypeKey)
	}
	return nil
}

type EventResponse struct {
	ID         int64            `json:"id"`
	CustomerID int64            `json:"customer_id"`
	EventType  string           `json:"event_type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Data       engagement.Event `json:"data" swaggertype:"object"`
}

type EventPageResponse struct {
	CustomerID int64           `json:"customer_id"`
	EventType  string          `json:"event_type"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
	Events     []EventResponse `json:"events"`
}

func NewEventResponse(ev engagement.Event) EventResponse {
	meta := ev.Metadata()
	return EventResponse{
		ID:         meta.ID,
		CustomerID: meta.CustomerID,
		EventType:  string(ev.Kind()),
		OccurredAt: ev.OccurredAt(),
		Data:       ev,
	}
}

func NewEventResponses(events []engagement.Event) []EventResponse {
	return lo.Map(events, func(ev engagement.Event, _ int) EventResponse {
		return NewEventResponse(ev)
	})
}

func NewEventPageResponse(customerID int64, p *engagement.Page) EventPageResponse {
	return EventPageResponse{
		CustomerID: customerID,
		EventType:  string(p.Kind),
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
		Events:     NewEventResponses(p.Events),
	}
}
