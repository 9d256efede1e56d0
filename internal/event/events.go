package event

import (
	"context"
	"time"
)

type CustomerCreatedEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	CustomerID int64     `json:"customerId"`
	Name       string    `json:"name"`
	Segment    string    `json:"segment"`
}

type EngagementRecordedEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	CustomerID int64     `json:"customerId"`
	EventID    int64     `json:"eventId"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurredAt"`
}

type RiskDetectedEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	CustomerID  int64     `json:"customerId"`
	Name        string    `json:"name"`
	HealthScore float64   `json:"healthScore"`
	Tier        string    `json:"tier"`
}

// NoopPublisher drops every event. It stands in when RabbitMQ is disabled.
type NoopPublisher struct{}

var _ EventPublisher = NoopPublisher{}

func (NoopPublisher) PublishCustomerCreated(context.Context, CustomerCreatedEvent) error {
	return nil
}

func (NoopPublisher) PublishEngagementRecorded(context.Context, EngagementRecordedEvent) error {
	return nil
}

func (NoopPublisher) PublishRiskDetected(context.Context, RiskDetectedEvent) error {
	return nil
}
