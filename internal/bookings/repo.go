package bookings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/internal/repo"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/enums"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

// Repository exposes booking persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a bookings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the booking inside tx when one is given.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) (*models.Booking, error) {
	if err := r.Conn(ctx, tx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// FindByID loads a booking with its item and booker.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.DB(ctx).
		Preload("Item").
		Preload("Booker").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByBooker returns the booker's bookings in the state window, newest start first.
func (r *Repository) ListByBooker(ctx context.Context, bookerID int64, state enums.BookingState, now time.Time, page *pagination.Page) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.DB(ctx).
		Preload("Item").
		Preload("Booker").
		Where("bookings.booker_id = ?", bookerID).
		Scopes(stateScope(state, now), pagination.Apply(page)).
		Order("bookings.start_date DESC").
		Find(&rows).Error
	return rows, err
}

// ListByOwner returns bookings of every item the owner lists, newest start first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64, state enums.BookingState, now time.Time, page *pagination.Page) ([]models.Booking, error) {
	db := r.DB(ctx)
	owned := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Item{}).
		Select("id").
		Where("owner_id = ?", ownerID)

	var rows []models.Booking
	err := db.
		Preload("Item").
		Preload("Booker").
		Where("bookings.item_id IN (?)", owned).
		Scopes(stateScope(state, now), pagination.Apply(page)).
		Order("bookings.start_date DESC").
		Find(&rows).Error
	return rows, err
}

// FindLast returns the latest non-rejected booking of the item that started
// before now, or nil.
// inactiveStatuses never count as an item's last or next booking.
var inactiveStatuses = []enums.BookingStatus{enums.BookingStatusRejected, enums.BookingStatusCanceled}

func (r *Repository) FindLast(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := r.DB(ctx).
		Where("item_id = ? AND status NOT IN ? AND start_date < ?", itemID, inactiveStatuses, now.UTC()).
		Order("start_date DESC").
		First(&booking).Error
	return optional(&booking, err)
}

// FindNext returns the earliest non-rejected booking of the item that starts
// after now, or nil.
func (r *Repository) FindNext(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := r.DB(ctx).
		Where("item_id = ? AND status NOT IN ? AND start_date > ?", itemID, inactiveStatuses, now.UTC()).
		Order("start_date ASC").
		First(&booking).Error
	return optional(&booking, err)
}

// HasFinishedApproved reports whether the booker holds an approved booking of
// the item that ended before now.
func (r *Repository) HasFinishedApproved(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Booking{}).
		Where("item_id = ? AND booker_id = ? AND status = ? AND end_date < ?", itemID, bookerID, enums.BookingStatusApproved, now.UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListStaleWaiting returns WAITING bookings whose start already passed, oldest
// first, with their item loaded.
func (r *Repository) ListStaleWaiting(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]models.Booking, error) {
	var rows []models.Booking
	q := r.Conn(ctx, tx).
		Preload("Item").
		Where("status = ? AND start_date < ?", enums.BookingStatusWaiting, now.UTC()).
		Order("start_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// TransitionStatus moves the booking to status only while it still holds from.
// It reports false when another writer changed the status first.
func (r *Repository) TransitionStatus(ctx context.Context, tx *gorm.DB, id int64, from, to enums.BookingStatus) (bool, error) {
	res := r.Conn(ctx, tx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func stateScope(state enums.BookingState, now time.Time) func(*gorm.DB) *gorm.DB {
	now = now.UTC()
	return func(db *gorm.DB) *gorm.DB {
		switch state {
		case enums.BookingStateCurrent:
			return db.Where("bookings.start_date < ? AND bookings.end_date > ?", now, now)
		case enums.BookingStatePast:
			return db.Where("bookings.end_date < ?", now)
		case enums.BookingStateFuture:
			return db.Where("bookings.start_date > ?", now)
		case enums.BookingStateWaiting:
			return db.Where("bookings.status = ?", enums.BookingStatusWaiting)
		case enums.BookingStateRejected:
			return db.Where("bookings.status = ?", enums.BookingStatusRejected)
		default:
			return db
		}
	}
}

func optional(b *models.Booking, err error) (*models.Booking, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
