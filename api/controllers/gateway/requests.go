package gateway

import (
	"fmt"
	"net/http"

	"github.com/shareit/shareit-backend/api/responses"
	"github.com/shareit/shareit-backend/api/validators"
	"github.com/shareit/shareit-backend/pkg/logger"
)

func RequestCreate(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input requestInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodPost, path: "/requests", body: input, user: true})
	}
}

func RequestListOwn(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: "/requests", user: true})
	}
}

func RequestListOthers(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: "/requests/all", query: pageQuery(page), user: true})
	}
}

func RequestGet(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: fmt.Sprintf("/requests/%d", id), user: true})
	}
}
