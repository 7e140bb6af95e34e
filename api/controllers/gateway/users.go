package gateway

import (
	"fmt"
	"net/http"

	"github.com/shareit/shareit-backend/api/responses"
	"github.com/shareit/shareit-backend/api/validators"
	"github.com/shareit/shareit-backend/pkg/logger"
)

func UserList(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: "/users"})
	}
}

func UserGet(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: fmt.Sprintf("/users/%d", id)})
	}
}

func UserCreate(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input userInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodPost, path: "/users", body: input})
	}
}

func UserUpdate(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input userPatch
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodPatch, path: fmt.Sprintf("/users/%d", id), body: input})
	}
}

func UserDelete(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodDelete, path: fmt.Sprintf("/users/%d", id)})
	}
}
