package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shareit/shareit-backend/api/responses"
	"github.com/shareit/shareit-backend/api/validators"
	"github.com/shareit/shareit-backend/pkg/enums"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/logger"
)

// BookingCreate checks the date window against now before forwarding.
func BookingCreate(fwd Forwarder, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var input bookingInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := input.checkDates(now()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodPost, path: "/bookings", body: input, user: true})
	}
}

func BookingDecide(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		approved, err := validators.ParseQueryBool(r, "approved")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := url.Values{"approved": {strconv.FormatBool(approved)}}
		relay(w, r, fwd, logg, call{method: http.MethodPatch, path: fmt.Sprintf("/bookings/%d", id), query: query, user: true})
	}
}

func BookingGet(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: fmt.Sprintf("/bookings/%d", id), user: true})
	}
}

// BookingList validates the state keyword and page, then forwards to path
// (either /bookings or /bookings/owner).
func BookingList(fwd Forwarder, path string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := enums.ParseBookingState(r.URL.Query().Get("state"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := pageQuery(page)
		query.Set("state", state.String())
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: path, query: query, user: true})
	}
}
