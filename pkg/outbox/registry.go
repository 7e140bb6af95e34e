package outbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/enums"
)

// EventDescriptor links an event type to its aggregate and topic.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   PayloadEnvelope
	Payload    BookingEvent
}

// NonRetryableError signals the publisher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NewEventRegistry routes every booking event to bookingsTopic.
func NewEventRegistry(bookingsTopic string) (*EventRegistry, error) {
	topic := strings.TrimSpace(bookingsTopic)
	if topic == "" {
		return nil, fmt.Errorf("bookings topic is required")
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for _, eventType := range []enums.OutboxEventType{
		enums.EventBookingCreated,
		enums.EventBookingApproved,
		enums.EventBookingRejected,
		enums.EventBookingCanceled,
	} {
		reg.entries[eventType] = EventDescriptor{
			EventType:     eventType,
			AggregateType: enums.AggregateBooking,
			Topic:         topic,
		}
	}
	return reg, nil
}

// Resolve decodes the row envelope and checks it against its descriptor.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[row.EventType]
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("event type %s not registered", row.EventType)}
	}
	if desc.AggregateType != row.AggregateType {
		return nil, NonRetryableError{Err: fmt.Errorf("event %s expects aggregate %s, got %s", row.EventType, desc.AggregateType, row.AggregateType)}
	}
	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode envelope: %w", err)}
	}
	var payload BookingEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode payload: %w", err)}
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
