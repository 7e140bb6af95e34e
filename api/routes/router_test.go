package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/internal/bookings"
	"github.com/shareit/shareit-backend/internal/items"
	"github.com/shareit/shareit-backend/internal/requests"
	"github.com/shareit/shareit-backend/internal/users"
	"github.com/shareit/shareit-backend/pkg/config"
	"github.com/shareit/shareit-backend/pkg/db"
	"github.com/shareit/shareit-backend/pkg/db/dbtest"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/metrics"
	"github.com/shareit/shareit-backend/pkg/outbox"
	pkgredis "github.com/shareit/shareit-backend/pkg/redis"
	"github.com/shareit/shareit-backend/pkg/types"
)

type serverHarness struct {
	db      *gorm.DB
	handler http.Handler
}

func newServerHarness(t *testing.T, redisClient *pkgredis.Client) *serverHarness {
	t.Helper()
	conn := dbtest.New(t)
	client := db.NewFromGorm(conn)

	usersRepo := users.NewRepository(conn)
	itemsRepo := items.NewRepository(conn)
	bookingsRepo := bookings.NewRepository(conn)
	requestsRepo := requests.NewRepository(conn)

	usersSvc, err := users.NewService(usersRepo)
	require.NoError(t, err)
	itemsSvc, err := items.NewService(items.ServiceParams{Repo: itemsRepo, Users: usersRepo, Bookings: bookingsRepo, Requests: requestsRepo})
	require.NoError(t, err)
	bookingsSvc, err := bookings.NewService(bookings.ServiceParams{
		Repo:   bookingsRepo,
		Users:  usersRepo,
		Items:  itemsRepo,
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
	})
	require.NoError(t, err)
	requestsSvc, err := requests.NewService(requestsRepo, usersRepo, itemsRepo)
	require.NoError(t, err)

	cfg := &config.Config{
		App:         config.AppConfig{Env: "test"},
		Idempotency: config.IdempotencyConfig{Enabled: redisClient != nil, TTL: time.Hour},
	}
	reg := prometheus.NewRegistry()
	handler := NewServerRouter(ServerDeps{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "server-test", Output: io.Discard}),
		DB:       client,
		Redis:    redisClient,
		Metrics:  metrics.NewHTTPMetrics(reg, "server"),
		Gatherer: reg,
		Users:    usersSvc,
		Items:    itemsSvc,
		Bookings: bookingsSvc,
		Requests: requestsSvc,
	})
	return &serverHarness{db: conn, handler: handler}
}

func call(t *testing.T, h http.Handler, method, path, body string, userID int64, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set("X-Sharer-User-Id", strconv.FormatInt(userID, 10))
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func createUser(t *testing.T, h http.Handler, name string) int64 {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/users", fmt.Sprintf(`{"name":%q,"email":"%s@example.com"}`, name, name), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &user)
	return user.ID
}

func localTime(t time.Time) string {
	return t.In(time.Local).Format(types.LocalDateTimeLayout)
}

func TestServerBookingFlow(t *testing.T) {
	s := newServerHarness(t, nil)
	h := s.handler

	owner := createUser(t, h, "owner")
	booker := createUser(t, h, "booker")

	rec := call(t, h, http.MethodPost, "/users", `{"name":"dup","email":"owner@example.com"}`, 0, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h, http.MethodPost, "/items", `{"name":"Drill","description":"Cordless","available":true}`, 0, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/items", `{"name":"Drill","description":"Cordless","available":true}`, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var item struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &item)

	start := time.Now().Add(time.Hour)
	body := fmt.Sprintf(`{"itemId":%d,"start":%q,"end":%q}`, item.ID, localTime(start), localTime(start.Add(24*time.Hour)))

	rec = call(t, h, http.MethodPost, "/bookings", body, owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, http.MethodPost, "/bookings", body, booker, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var booking struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		Booker struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"booker"`
		Item struct {
			ID          int64  `json:"id"`
			Description string `json:"description"`
			Available   bool   `json:"available"`
		} `json:"item"`
	}
	decode(t, rec, &booking)
	assert.Equal(t, "WAITING", booking.Status)
	assert.Equal(t, booker, booking.Booker.ID)
	assert.Equal(t, "booker@example.com", booking.Booker.Email)
	assert.Equal(t, "Cordless", booking.Item.Description)
	assert.True(t, booking.Item.Available)

	rec = call(t, h, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), "", booker, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), "", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &booking)
	assert.Equal(t, "APPROVED", booking.Status)

	rec = call(t, h, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=false", booking.ID), "", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Can not change status after APPROVED")

	var list []map[string]any
	rec = call(t, h, http.MethodGet, "/bookings?state=future", "", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = call(t, h, http.MethodGet, "/bookings/owner?state=WAITING", "", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Empty(t, list)

	rec = call(t, h, http.MethodGet, "/bookings?state=SOON", "", booker, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown state: SOON")

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), "", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var owned struct {
		NextBooking *struct {
			ID       int64 `json:"id"`
			BookerID int64 `json:"bookerId"`
		} `json:"nextBooking"`
	}
	decode(t, rec, &owned)
	require.NotNil(t, owned.NextBooking)
	assert.Equal(t, booking.ID, owned.NextBooking.ID)
	assert.Equal(t, booker, owned.NextBooking.BookerID)

	rec = call(t, h, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), `{"text":"great drill"}`, booker, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var events int64
	require.NoError(t, s.db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Equal(t, int64(2), events)
}

func TestServerDeleteUserReturnsEmptyBody(t *testing.T) {
	h := newServerHarness(t, nil).handler
	id := createUser(t, h, "ann")

	rec := call(t, h, http.MethodDelete, fmt.Sprintf("/users/%d", id), "", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/users/%d", id), "", 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerRequestsFlow(t *testing.T) {
	h := newServerHarness(t, nil).handler
	asker := createUser(t, h, "asker")
	other := createUser(t, h, "other")

	rec := call(t, h, http.MethodPost, "/requests", `{"description":"need a ladder"}`, asker, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &created)

	rec = call(t, h, http.MethodPost, "/items", fmt.Sprintf(`{"name":"Ladder","description":"3m","available":true,"requestId":%d}`, created.ID), other, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fetched struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	rec = call(t, h, http.MethodGet, fmt.Sprintf("/requests/%d", created.ID), "", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &fetched)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "Ladder", fetched.Items[0].Name)

	var all []map[string]any
	rec = call(t, h, http.MethodGet, "/requests/all?from=0&size=10", "", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &all)
	assert.Len(t, all, 1)

	rec = call(t, h, http.MethodGet, "/requests/all?from=0&size=10", "", asker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &all)
	assert.Empty(t, all)
}

func TestServerIdempotentUserCreate(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient, err := pkgredis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	s := newServerHarness(t, redisClient)
	key := map[string]string{"Idempotency-Key": "signup-1"}
	body := `{"name":"ann","email":"ann@example.com"}`

	first := call(t, s.handler, http.MethodPost, "/users", body, 0, key)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	second := call(t, s.handler, http.MethodPost, "/users", body, 0, key)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestServerOperationalEndpoints(t *testing.T) {
	h := newServerHarness(t, nil).handler

	rec := call(t, h, http.MethodGet, "/health/live", "", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-ShareIt-Env"))

	rec = call(t, h, http.MethodGet, "/health/ready", "", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_ = call(t, h, http.MethodGet, "/users", "", 0, nil)
	rec = call(t, h, http.MethodGet, "/metrics", "", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shareit_http_requests_total{method="GET",route="/users",service="server",status="200"}`)
}
