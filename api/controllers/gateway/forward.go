// Package gateway holds the public-facing handlers. Each one validates the
// inbound call and relays it to the server, passing the server's status and
// body through untouched.
package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shareit/shareit-backend/api/middleware"
	"github.com/shareit/shareit-backend/api/responses"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/upstream"
)

// Forwarder sends a validated call to the server.
type Forwarder interface {
	Forward(ctx context.Context, req upstream.Request) (*upstream.Response, error)
}

type call struct {
	method string
	path   string
	query  url.Values
	user   bool
	body   any
}

func relay(w http.ResponseWriter, r *http.Request, fwd Forwarder, logg *logger.Logger, c call) {
	req := upstream.Request{
		Method: c.method,
		Path:   c.path,
		Query:  c.query,
		Body:   c.body,
		Header: r.Header,
	}
	if c.user {
		userID, err := actingUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.UserID = &userID
	}

	resp, err := fwd.Forward(r.Context(), req)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if logg != nil && resp.Status >= http.StatusInternalServerError {
		ctx := logg.WithFields(r.Context(), map[string]any{
			"upstream_status": resp.Status,
			"upstream_path":   c.path,
		})
		logg.Warn(ctx, "gateway.upstream_error")
	}
	responses.WriteRaw(w, resp.Status, resp.ContentType, resp.Body)
}

func actingUser(r *http.Request) (int64, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "Required request header '%s' is not present", middleware.SharerUserHeader)
	}
	return id, nil
}
