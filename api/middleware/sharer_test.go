package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharerUserSetsContext(t *testing.T) {
	var got int64
	var ok bool
	h := SharerUser(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set(SharerUserHeader, " 42 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ok)
	assert.Equal(t, int64(42), got)
}

func TestSharerUserRejectsMissingOrInvalidHeader(t *testing.T) {
	called := false
	h := SharerUser(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, value := range []string{"", "abc", "1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		if value != "" {
			req.Header.Set(SharerUserHeader, value)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "value %q", value)
		assert.Contains(t, rec.Body.String(), SharerUserHeader)
	}
	assert.False(t, called)
}
