package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shareit/shareit-backend/api/responses"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/logger"
)

// SharerUserHeader carries the acting user id on every item, booking and
// request call.
const SharerUserHeader = "X-Sharer-User-Id"

// SharerUser parses the acting user header into the request context.
func SharerUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(SharerUserHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "Required request header '%s' is not present", SharerUserHeader))
				return
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("Invalid %s header: %s", SharerUserHeader, raw)))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
