package requests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/internal/users"
	"github.com/shareit/shareit-backend/pkg/db/dbtest"
	"github.com/shareit/shareit-backend/pkg/db/models"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

type itemsByRequest struct {
	db *gorm.DB
}

func (i itemsByRequest) ListByRequestIDs(ctx context.Context, ids []int64) ([]models.Item, error) {
	var rows []models.Item
	err := i.db.WithContext(ctx).Where("request_id IN ?", ids).Order("id ASC").Find(&rows).Error
	return rows, err
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), users.NewRepository(conn), itemsByRequest{db: conn})
	require.NoError(t, err)
	return svc, conn
}

func seedRequest(t *testing.T, conn *gorm.DB, requestorID int64, description string, created time.Time) models.ItemRequest {
	t.Helper()
	request := models.ItemRequest{Description: description, RequestorID: requestorID, CreatedAt: created}
	require.NoError(t, conn.Create(&request).Error)
	return request
}

func TestCreateThenGetWithAnswers(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "alice")
	bob := dbtest.SeedUser(t, conn, "bob")

	created, err := svc.Create(ctx, alice.ID, CreateRequestInput{Description: "  need a tent "})
	require.NoError(t, err)
	assert.Equal(t, "need a tent", created.Description)
	assert.Empty(t, created.Items)

	answer := models.Item{Name: "tent", Description: "4 person", Available: true, OwnerID: bob.ID, RequestID: &created.ID}
	require.NoError(t, conn.Create(&answer).Error)

	fetched, err := svc.Get(ctx, bob.ID, created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, answer.ID, fetched.Items[0].ID)
	assert.Equal(t, created.ID, fetched.Items[0].RequestID)
	assert.Equal(t, bob.ID, fetched.Items[0].OwnerID)
}

func TestUnknownUserAndRequest(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "alice")

	_, err := svc.Create(ctx, 999, CreateRequestInput{Description: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "User not found", pkgerrors.As(err).Message())

	_, err = svc.Get(ctx, alice.ID, 999)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "ItemRequest not found", pkgerrors.As(err).Message())

	_, err = svc.ListOwn(ctx, 999)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListOwnAndOthersOrderedNewestFirst(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "alice")
	bob := dbtest.SeedUser(t, conn, "bob")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a1 := seedRequest(t, conn, alice.ID, "a1", base)
	a2 := seedRequest(t, conn, alice.ID, "a2", base.Add(time.Hour))
	b1 := seedRequest(t, conn, bob.ID, "b1", base.Add(2*time.Hour))
	b2 := seedRequest(t, conn, bob.ID, "b2", base.Add(3*time.Hour))
	b3 := seedRequest(t, conn, bob.ID, "b3", base.Add(4*time.Hour))

	own, err := svc.ListOwn(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, a2.ID, own[0].ID)
	assert.Equal(t, a1.ID, own[1].ID)

	others, err := svc.ListOthers(ctx, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, others, 3)
	assert.Equal(t, []int64{b3.ID, b2.ID, b1.ID}, []int64{others[0].ID, others[1].ID, others[2].ID})

	paged, err := svc.ListOthers(ctx, alice.ID, &pagination.Page{From: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, b1.ID, paged[0].ID)
}
