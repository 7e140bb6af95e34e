package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/internal/users"
	"github.com/shareit/shareit-backend/pkg/db"
	"github.com/shareit/shareit-backend/pkg/db/dbtest"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/enums"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/outbox"
	"github.com/shareit/shareit-backend/pkg/pagination"
	"github.com/shareit/shareit-backend/pkg/types"
)

type gormItems struct {
	db *gorm.DB
}

func (g gormItems) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := g.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

type fixture struct {
	db     *gorm.DB
	svc    Service
	outbox *outbox.Repository
	now    time.Time
	owner  models.User
	booker models.User
	item   models.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	outboxRepo := outbox.NewRepository(conn)

	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Users:  users.NewRepository(conn),
		Items:  gormItems{db: conn},
		Tx:     db.NewFromGorm(conn),
		Outbox: outbox.NewService(outboxRepo, nil),
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)

	owner := dbtest.SeedUser(t, conn, "owner")
	booker := dbtest.SeedUser(t, conn, "booker")
	item := dbtest.SeedItem(t, conn, owner.ID, "drill", true)

	return &fixture{db: conn, svc: svc, outbox: outboxRepo, now: now, owner: owner, booker: booker, item: item}
}

func (f *fixture) seed(t *testing.T, start, end time.Time, status enums.BookingStatus) models.Booking {
	t.Helper()
	return dbtest.SeedBooking(t, f.db, models.Booking{
		ItemID:    f.item.ID,
		BookerID:  f.booker.ID,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		Status:    status,
	})
}

func input(itemID int64, start, end time.Time) CreateBookingInput {
	return CreateBookingInput{
		ItemID: &itemID,
		Start:  types.NewLocalDateTime(start),
		End:    types.NewLocalDateTime(end),
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
	assert.Equal(t, msg, typed.Message())
}

func TestCreateThenGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.booker.ID, input(f.item.ID, f.now.Add(time.Hour), f.now.Add(2*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusWaiting, created.Status)
	require.NotNil(t, created.Item)
	assert.Equal(t, "drill", created.Item.Name)
	assert.Equal(t, "drill description", created.Item.Description)
	assert.True(t, created.Item.Available)
	require.NotNil(t, created.Booker)
	assert.Equal(t, f.booker.ID, created.Booker.ID)
	assert.Equal(t, "booker", created.Booker.Name)
	assert.Equal(t, "booker@example.com", created.Booker.Email)

	fetched, err := f.svc.Get(ctx, f.owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.True(t, created.Start.Equal(fetched.Start.Time))
	assert.True(t, created.End.Equal(fetched.End.Time))
	require.NotNil(t, fetched.Booker)
	assert.Equal(t, "booker@example.com", fetched.Booker.Email)

	events := dbtest.OutboxEvents(t, f.db, string(enums.AggregateBooking), created.ID)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventBookingCreated, events[0].EventType)
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.now.Add(time.Hour), f.now.Add(2*time.Hour)

	_, err := f.svc.Create(ctx, 999, input(f.item.ID, start, end))
	assertCode(t, err, pkgerrors.CodeNotFound, "User not found")

	_, err = f.svc.Create(ctx, f.booker.ID, input(999, start, end))
	assertCode(t, err, pkgerrors.CodeNotFound, "Item not found")

	_, err = f.svc.Create(ctx, f.owner.ID, input(f.item.ID, start, end))
	assertCode(t, err, pkgerrors.CodeNotFound, "Owner can not booking self item")

	_, err = f.svc.Create(ctx, f.booker.ID, input(f.item.ID, end, start))
	assertCode(t, err, pkgerrors.CodeValidation, "Date end must be after date start")

	_, err = f.svc.Create(ctx, f.booker.ID, input(f.item.ID, start, start))
	assertCode(t, err, pkgerrors.CodeValidation, "Date end must be after date start")

	unavailable := dbtest.SeedItem(t, f.db, f.owner.ID, "saw", false)
	_, err = f.svc.Create(ctx, f.booker.ID, input(unavailable.ID, start, end))
	assertCode(t, err, pkgerrors.CodeValidation, "Item is not available")
}

func TestDecideApproveThenSecondTransitionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.seed(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), enums.BookingStatusWaiting)

	approved, err := f.svc.Decide(ctx, f.owner.ID, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusApproved, approved.Status)

	_, err = f.svc.Decide(ctx, f.owner.ID, b.ID, false)
	assertCode(t, err, pkgerrors.CodeValidation, "Can not change status after APPROVED")

	events := dbtest.OutboxEvents(t, f.db, string(enums.AggregateBooking), b.ID)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventBookingApproved, events[0].EventType)
}

func TestDecideRejectedIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.seed(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), enums.BookingStatusWaiting)

	rejected, err := f.svc.Decide(ctx, f.owner.ID, b.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusRejected, rejected.Status)

	_, err = f.svc.Decide(ctx, f.owner.ID, b.ID, true)
	assertCode(t, err, pkgerrors.CodeValidation, "Can not change status after REJECTED")
}

func TestDecidePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.seed(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), enums.BookingStatusWaiting)

	_, err := f.svc.Decide(ctx, f.booker.ID, b.ID, true)
	assertCode(t, err, pkgerrors.CodeNotFound, "User permission denied")

	_, err = f.svc.Decide(ctx, f.owner.ID, 999, true)
	assertCode(t, err, pkgerrors.CodeNotFound, "Booking not found")
}

func TestGetRequiresBookerOrOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.seed(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), enums.BookingStatusWaiting)
	stranger := dbtest.SeedUser(t, f.db, "stranger")

	_, err := f.svc.Get(ctx, f.booker.ID, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, stranger.ID, b.ID)
	assertCode(t, err, pkgerrors.CodeNotFound, "User has not access to this booking")
}

func TestListFiltersByState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := time.Hour

	past := f.seed(t, f.now.Add(-48*h), f.now.Add(-24*h), enums.BookingStatusApproved)
	current := f.seed(t, f.now.Add(-h), f.now.Add(h), enums.BookingStatusApproved)
	future := f.seed(t, f.now.Add(24*h), f.now.Add(48*h), enums.BookingStatusWaiting)
	rejected := f.seed(t, f.now.Add(72*h), f.now.Add(96*h), enums.BookingStatusRejected)

	cases := []struct {
		state string
		want  []int64
	}{
		{"", []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{"ALL", []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{"current", []int64{current.ID}},
		{"PAST", []int64{past.ID}},
		{"FUTURE", []int64{rejected.ID, future.ID}},
		{"WAITING", []int64{future.ID}},
		{"REJECTED", []int64{rejected.ID}},
	}

	for _, role := range []Role{RoleBooker, RoleOwner} {
		userID := f.booker.ID
		if role == RoleOwner {
			userID = f.owner.ID
		}
		for _, tc := range cases {
			got, err := f.svc.List(ctx, userID, role, ListQuery{State: tc.state})
			require.NoError(t, err, tc.state)
			ids := make([]int64, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tc.want, ids, "role=%d state=%s", role, tc.state)
		}
	}
}

func TestListOwnerExcludesOtherOwnersItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.SeedUser(t, f.db, "other")
	otherItem := dbtest.SeedItem(t, f.db, other.ID, "ladder", true)
	f.seed(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), enums.BookingStatusWaiting)
	dbtest.SeedBooking(t, f.db, models.Booking{
		ItemID: otherItem.ID, BookerID: f.booker.ID,
		StartDate: f.now.Add(time.Hour), EndDate: f.now.Add(2 * time.Hour),
		Status: enums.BookingStatusWaiting,
	})

	got, err := f.svc.List(ctx, f.owner.ID, RoleOwner, ListQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.item.ID, got[0].ItemID)
}

func TestListUnknownStateAndMissingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, f.booker.ID, RoleBooker, ListQuery{State: "SOMETIME"})
	assertCode(t, err, pkgerrors.CodeValidation, "Unknown state: SOMETIME")

	_, err = f.svc.List(ctx, 999, RoleBooker, ListQuery{})
	assertCode(t, err, pkgerrors.CodeNotFound, "User not found")
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		f.seed(t, f.now.Add(time.Duration(i)*time.Hour), f.now.Add(time.Duration(i+1)*time.Hour), enums.BookingStatusWaiting)
	}

	got, err := f.svc.List(ctx, f.booker.ID, RoleBooker, ListQuery{Page: &pagination.Page{From: 2, Size: 2}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := f.svc.List(ctx, f.booker.ID, RoleBooker, ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, all[2].ID, got[0].ID)
}
