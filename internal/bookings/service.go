package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/enums"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/outbox"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

const (
	msgUserNotFound     = "User not found"
	msgItemNotFound     = "Item not found"
	msgBookingNotFound  = "Booking not found"
	msgItemUnavailable  = "Item is not available"
	msgSelfBooking      = "Owner can not booking self item"
	msgInvalidDateRange = "Date end must be after date start"
	msgDatesRequired    = "Booking start and end are required"
	msgPermissionDenied = "User permission denied"
	msgNoAccess         = "User has not access to this booking"
	msgStatusTransition = "Can not change status after %s"
)

var errStatusChanged = errors.New("booking status changed")

// Role selects whose bookings a list call returns.
type Role int

const (
	RoleBooker Role = iota
	RoleOwner
)

type bookingsRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) (*models.Booking, error)
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, id int64, from, to enums.BookingStatus) (bool, error)
	ListByBooker(ctx context.Context, bookerID int64, state enums.BookingState, now time.Time, page *pagination.Page) ([]models.Booking, error)
	ListByOwner(ctx context.Context, ownerID int64, state enums.BookingState, now time.Time, page *pagination.Page) ([]models.Booking, error)
}

type usersLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type itemsLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Item, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ListQuery filters a booking list.
type ListQuery struct {
	State string
	Page  *pagination.Page
}

// Service exposes booking lifecycle operations.
type Service interface {
	Create(ctx context.Context, bookerID int64, input CreateBookingInput) (*BookingDTO, error)
	Decide(ctx context.Context, ownerID, bookingID int64, approved bool) (*BookingDTO, error)
	Get(ctx context.Context, userID, bookingID int64) (*BookingDTO, error)
	List(ctx context.Context, userID int64, role Role, query ListQuery) ([]BookingDTO, error)
}

type ServiceParams struct {
	Repo   bookingsRepository
	Users  usersLookup
	Items  itemsLookup
	Tx     txRunner
	Outbox outboxPublisher
	Now    func() time.Time
}

type service struct {
	repo   bookingsRepository
	users  usersLookup
	items  itemsLookup
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a booking service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("items lookup required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		items:  params.Items,
		tx:     params.Tx,
		outbox: params.Outbox,
		now:    now,
	}, nil
}

func (s *service) Create(ctx context.Context, bookerID int64, input CreateBookingInput) (*BookingDTO, error) {
	booker, err := s.users.FindByID(ctx, bookerID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "load user")
	}
	if input.ItemID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}

	item, err := s.items.FindByID(ctx, *input.ItemID)
	if err != nil {
		return nil, notFoundOr(err, msgItemNotFound, "load item")
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgItemUnavailable)
	}
	if item.OwnerID == bookerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgSelfBooking)
	}
	if input.Start.IsZero() || input.End.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgDatesRequired)
	}
	if !input.Start.Before(input.End.Time) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidDateRange)
	}

	booking := &models.Booking{
		ItemID:    item.ID,
		BookerID:  bookerID,
		StartDate: input.Start.UTC(),
		EndDate:   input.End.UTC(),
		Status:    enums.BookingStatusWaiting,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Create(ctx, tx, booking); err != nil {
			return err
		}
		return s.emit(ctx, tx, enums.EventBookingCreated, bookerID, booking, item.OwnerID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}

	booking.Item = item
	booking.Booker = booker
	return FromModel(booking), nil
}

// Decide approves or rejects a waiting booking on behalf of the item owner.
func (s *service) Decide(ctx context.Context, ownerID, bookingID int64, approved bool) (*BookingDTO, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, notFoundOr(err, msgBookingNotFound, "load booking")
	}
	if !PermissionOwner.Allows(booking, ownerID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgPermissionDenied)
	}
	if booking.Status != enums.BookingStatusWaiting {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, msgStatusTransition, booking.Status)
	}

	status, eventType := enums.BookingStatusRejected, enums.EventBookingRejected
	if approved {
		status, eventType = enums.BookingStatusApproved, enums.EventBookingApproved
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		changed, err := s.repo.TransitionStatus(ctx, tx, booking.ID, enums.BookingStatusWaiting, status)
		if err != nil {
			return err
		}
		if !changed {
			return errStatusChanged
		}
		booking.Status = status
		return s.emit(ctx, tx, eventType, ownerID, booking, ownerID)
	})
	if errors.Is(err, errStatusChanged) {
		// Another decision or the expiry job moved the row after it was read.
		current, loadErr := s.repo.FindByID(ctx, booking.ID)
		if loadErr != nil {
			return nil, notFoundOr(loadErr, msgBookingNotFound, "reload booking")
		}
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, msgStatusTransition, current.Status)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
	}
	return FromModel(booking), nil
}

func (s *service) Get(ctx context.Context, userID, bookingID int64) (*BookingDTO, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, notFoundOr(err, msgBookingNotFound, "load booking")
	}
	if !PermissionBookerOrOwner.Allows(booking, userID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNoAccess)
	}
	return FromModel(booking), nil
}

func (s *service) List(ctx context.Context, userID int64, role Role, query ListQuery) ([]BookingDTO, error) {
	state, err := enums.ParseBookingState(query.State)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	var rows []models.Booking
	switch role {
	case RoleOwner:
		rows, err = s.repo.ListByOwner(ctx, userID, state, s.now(), query.Page)
	default:
		rows, err = s.repo.ListByBooker(ctx, userID, state, s.now(), query.Page)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return FromModels(rows), nil
}

func (s *service) ensureUser(ctx context.Context, id int64) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, actorID int64, booking *models.Booking, ownerID int64) error {
	return s.outbox.Emit(ctx, tx, bookingEvent(eventType, actorID, booking, ownerID, s.now()))
}

func bookingEvent(eventType enums.OutboxEventType, actorID int64, booking *models.Booking, ownerID int64, now time.Time) outbox.DomainEvent {
	var actor *outbox.ActorRef
	if actorID > 0 {
		actor = &outbox.ActorRef{UserID: actorID}
	}
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Actor:         actor,
		Data: outbox.BookingEvent{
			BookingID: booking.ID,
			ItemID:    booking.ItemID,
			BookerID:  booking.BookerID,
			OwnerID:   ownerID,
			Status:    booking.Status.String(),
			Start:     booking.StartDate,
			End:       booking.EndDate,
		},
		OccurredAt: now.UTC(),
	}
}

func notFoundOr(err error, notFound, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
