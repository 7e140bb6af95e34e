package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/pkg/db/dbtest"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/enums"
)

func TestEmitStoresEnvelope(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	start := time.Now().Add(time.Hour).UTC()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   7,
			Actor:         &ActorRef{UserID: 3},
			Data:          BookingEvent{BookingID: 7, ItemID: 2, BookerID: 3, OwnerID: 1, Status: "WAITING", Start: start, End: start.Add(time.Hour)},
		})
	})
	require.NoError(t, err)

	rows := dbtest.OutboxEvents(t, db, string(enums.AggregateBooking), 7)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventBookingCreated, rows[0].EventType)
	assert.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, currentVersion, envelope.Version)
	assert.Equal(t, int64(3), envelope.Actor.UserID)
	assert.NotEmpty(t, envelope.EventID)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(dbtest.New(t)), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventBookingCreated, AggregateType: enums.AggregateBooking})
	assert.Error(t, err)
}

func TestFetchSkipsExhaustedAndPublishedRows(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)

	fresh := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventBookingCreated, AggregateType: enums.AggregateBooking, AggregateID: 1, Payload: json.RawMessage(`{}`)}
	exhausted := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventBookingCreated, AggregateType: enums.AggregateBooking, AggregateID: 2, Payload: json.RawMessage(`{}`), AttemptCount: 3}
	published := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventBookingCreated, AggregateType: enums.AggregateBooking, AggregateID: 3, Payload: json.RawMessage(`{}`)}
	for _, row := range []models.OutboxEvent{fresh, exhausted, published} {
		require.NoError(t, repo.Insert(db, row))
	}
	require.NoError(t, repo.MarkPublishedTx(db, published.ID))
	require.NoError(t, repo.MarkFailedTx(db, fresh.ID, errors.New("transient")))

	rows, err := repo.FetchUnpublishedForPublish(nil, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fresh.ID, rows[0].ID)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "transient", *rows[0].LastError)
}

func TestRegistryResolve(t *testing.T) {
	_, err := NewEventRegistry(" ")
	require.Error(t, err)

	reg, err := NewEventRegistry("bookings")
	require.NoError(t, err)

	data, _ := json.Marshal(BookingEvent{BookingID: 9, Status: "APPROVED"})
	envelope, _ := json.Marshal(PayloadEnvelope{Version: 1, EventID: "evt-1", Data: data})
	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventBookingApproved,
		AggregateType: enums.AggregateBooking,
		Payload:       envelope,
	})
	require.NoError(t, err)
	assert.Equal(t, "bookings", resolved.Descriptor.Topic)
	assert.Equal(t, int64(9), resolved.Payload.BookingID)
	assert.Equal(t, "evt-1", resolved.Envelope.EventID)

	_, err = reg.Resolve(models.OutboxEvent{EventType: "unknown", AggregateType: enums.AggregateBooking})
	var nonRetry NonRetryableError
	assert.True(t, errors.As(err, &nonRetry))

	_, err = reg.Resolve(models.OutboxEvent{EventType: enums.EventBookingApproved, AggregateType: enums.AggregateBooking, Payload: json.RawMessage(`not-json`)})
	assert.True(t, errors.As(err, &nonRetry))
}

func TestDeletePublishedBefore(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	old := time.Now().Add(-60 * 24 * time.Hour).UTC()

	newRow := func(aggregateID int64, createdAt time.Time, attempts int) models.OutboxEvent {
		return models.OutboxEvent{
			ID:            uuid.New(),
			EventType:     enums.EventBookingApproved,
			AggregateType: enums.AggregateBooking,
			AggregateID:   aggregateID,
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     createdAt,
			AttemptCount:  attempts,
		}
	}
	oldPublished := newRow(1, old, 0)
	oldParked := newRow(2, old, 5)
	oldPending := newRow(3, old, 1)
	recentPublished := newRow(4, time.Now().UTC(), 0)
	for _, row := range []models.OutboxEvent{oldPublished, oldParked, oldPending, recentPublished} {
		require.NoError(t, repo.Insert(db, row))
	}
	require.NoError(t, repo.MarkPublishedTx(db, oldPublished.ID))
	require.NoError(t, repo.MarkPublishedTx(db, recentPublished.ID))

	deleted, err := repo.DeletePublishedBefore(context.Background(), nil, time.Now().Add(-30*24*time.Hour), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Order("aggregate_id").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, int64(3), remaining[0].AggregateID)
	assert.Equal(t, int64(4), remaining[1].AggregateID)
}
