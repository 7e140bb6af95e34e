package main

import (
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/outbox"
)

// orderingKey keeps every event of one booking on a single ordered stream,
// so subscribers see CREATED before APPROVED or CANCELED.
func orderingKey(event models.OutboxEvent) string {
	return "booking-" + strconv.FormatInt(event.AggregateID, 10)
}

// bookingMessage wraps the stored envelope with attributes subscribers can
// filter on without decoding the body.
func bookingMessage(event models.OutboxEvent, resolved *outbox.ResolvedEvent) *gcppubsub.Message {
	booking := resolved.Payload
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"booking_id":     strconv.FormatInt(event.AggregateID, 10),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if booking.Status != "" {
		attrs["booking_status"] = booking.Status
	}
	if booking.ItemID != 0 {
		attrs["item_id"] = strconv.FormatInt(booking.ItemID, 10)
	}
	if booking.BookerID != 0 {
		attrs["booker_id"] = strconv.FormatInt(booking.BookerID, 10)
	}
	if booking.OwnerID != 0 {
		attrs["owner_id"] = strconv.FormatInt(booking.OwnerID, 10)
	}
	if !resolved.Envelope.OccurredAt.IsZero() {
		attrs["occurred_at"] = resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano)
	}
	return &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  attrs,
		OrderingKey: orderingKey(event),
	}
}

// logFields describes a row for publisher log entries.
func logFields(event models.OutboxEvent, resolved *outbox.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"booking_id":    event.AggregateID,
		"attempt_count": event.AttemptCount,
	}
	if resolved != nil {
		fields["event_id"] = resolved.Envelope.EventID
		fields["topic"] = resolved.Descriptor.Topic
		if resolved.Payload.Status != "" {
			fields["booking_status"] = resolved.Payload.Status
		}
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}
