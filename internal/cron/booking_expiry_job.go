package cron

import (
	"context"
	"errors"
)

// BookingExpiryJobName is the lock and metric name of the expiry job.
const BookingExpiryJobName = "booking-expiry"

type bookingExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// NewBookingExpiryJob cancels WAITING bookings whose start already passed.
func NewBookingExpiryJob(expirer bookingExpirer) (Job, error) {
	if expirer == nil {
		return nil, errors.New("booking expirer required")
	}
	return &bookingExpiryJob{expirer: expirer}, nil
}

type bookingExpiryJob struct {
	expirer bookingExpirer
}

func (j *bookingExpiryJob) Name() string { return BookingExpiryJobName }

func (j *bookingExpiryJob) Run(ctx context.Context) (int64, error) {
	canceled, err := j.expirer.ExpireStale(ctx)
	return int64(canceled), err
}
