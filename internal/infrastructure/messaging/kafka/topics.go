// Package kafka publishes and consumes the valuation event stream.  The HTTP
// layer answers synchronously; events exist so downstream consumers (market
// analytics, alerting) can observe valuations without coupling to the API.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// Topics carrying valuation lifecycle events.
const (
	// TopicValuationRequested carries queued valuation requests picked up
	// by the background worker.
	TopicValuationRequested = "valuation.requested"

	// TopicValuationCompleted carries finished estimates.
	TopicValuationCompleted = "valuation.completed"

	// TopicValuationFailed carries requests that ended in an error,
	// insufficient market data included.
	TopicValuationFailed = "valuation.failed"

	// TopicDeadLetter receives messages that exhausted their retries.
	TopicDeadLetter = "valuation.dead_letter"
)

// EventEnvelope is the standard wire frame for every event this service
// emits or consumes.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ValuationRequestedPayload describes a valuation queued for the worker.
type ValuationRequestedPayload struct {
	RequestID   string    `json:"request_id"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Year        int       `json:"year"`
	Condition   string    `json:"condition"`
	HoursUsed   *float64  `json:"hours_used,omitempty"`
	Description string    `json:"description,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// ValuationCompletedPayload summarises a finished estimate.
type ValuationCompletedPayload struct {
	RequestID       string    `json:"request_id"`
	Make            string    `json:"make"`
	Model           string    `json:"model"`
	FairMarketValue float64   `json:"fair_market_value"`
	Confidence      string    `json:"confidence_level"`
	SampleSize      int       `json:"sample_size"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ValuationFailedPayload records why a request produced no estimate.
type ValuationFailedPayload struct {
	RequestID string    `json:"request_id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	ErrorCode string    `json:"error_code"`
	Message   string    `json:"message"`
	FailedAt  time.Time `json:"failed_at"`
}

// NewEventEnvelope wraps payload in a fresh envelope with a generated event
// ID and the current UTC timestamp.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "event envelope carries no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}
