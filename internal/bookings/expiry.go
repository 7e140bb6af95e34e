package bookings

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/enums"
)

const defaultExpiryBatch = 500

type staleBookingsRepository interface {
	ListStaleWaiting(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]models.Booking, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, id int64, from, to enums.BookingStatus) (bool, error)
}

type ExpirerParams struct {
	Repo      staleBookingsRepository
	Tx        txRunner
	Outbox    outboxPublisher
	BatchSize int
	Now       func() time.Time
}

// Expirer cancels WAITING bookings the owner never decided on before the
// booking started.
type Expirer struct {
	repo   staleBookingsRepository
	tx     txRunner
	outbox outboxPublisher
	batch  int
	now    func() time.Time
}

func NewExpirer(params ExpirerParams) (*Expirer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Expirer{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		batch:  batch,
		now:    now,
	}, nil
}

// ExpireStale cancels one batch of stale bookings and emits booking_canceled
// for each. It returns how many bookings changed.
func (e *Expirer) ExpireStale(ctx context.Context) (int, error) {
	now := e.now()
	canceled := 0
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		canceled = 0
		rows, err := e.repo.ListStaleWaiting(ctx, tx, now, e.batch)
		if err != nil {
			return err
		}
		for i := range rows {
			booking := &rows[i]
			changed, err := e.repo.TransitionStatus(ctx, tx, booking.ID, enums.BookingStatusWaiting, enums.BookingStatusCanceled)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			booking.Status = enums.BookingStatusCanceled
			var ownerID int64
			if booking.Item != nil {
				ownerID = booking.Item.OwnerID
			}
			if err := e.outbox.Emit(ctx, tx, bookingEvent(enums.EventBookingCanceled, 0, booking, ownerID, now)); err != nil {
				return err
			}
			canceled++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("expire stale bookings: %w", err)
	}
	return canceled, nil
}
