package controllers

import (
	"net/http"

	"github.com/shareit/shareit-backend/api/middleware"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
)

func actingUser(r *http.Request) (int64, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "Required request header '%s' is not present", middleware.SharerUserHeader)
	}
	return id, nil
}
