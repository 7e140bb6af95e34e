package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shareit/shareit-backend/api/responses"
	"github.com/shareit/shareit-backend/api/validators"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

const (
	searchDefaultFrom = 0
	searchDefaultSize = 20
)

func ItemListOwned(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: "/items", query: pageQuery(page), user: true})
	}
}

func ItemGet(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: fmt.Sprintf("/items/%d", id), user: true})
	}
}

// ItemSearch answers a blank text with an empty list without calling the
// server.
func ItemSearch(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingUser(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePageWithDefaults(r, searchDefaultFrom, searchDefaultSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		text := strings.TrimSpace(r.URL.Query().Get("text"))
		if text == "" {
			responses.WriteSuccess(w, []struct{}{})
			return
		}
		query := pageQuery(page)
		query.Set("text", text)
		relay(w, r, fwd, logg, call{method: http.MethodGet, path: "/items/search", query: query, user: true})
	}
}

func ItemCreate(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input itemInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodPost, path: "/items", body: input, user: true})
	}
}

func ItemUpdate(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input itemPatch
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodPatch, path: fmt.Sprintf("/items/%d", id), body: input, user: true})
	}
}

func ItemDelete(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodDelete, path: fmt.Sprintf("/items/%d", id), user: true})
	}
}

func ItemComment(fwd Forwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input commentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relay(w, r, fwd, logg, call{method: http.MethodPost, path: fmt.Sprintf("/items/%d/comment", id), body: input, user: true})
	}
}

func pageQuery(page *pagination.Page) url.Values {
	query := url.Values{}
	if page != nil {
		query.Set("from", strconv.Itoa(page.From))
		query.Set("size", strconv.Itoa(page.Size))
	}
	return query
}
