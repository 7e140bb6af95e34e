package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

// ParseQueryInt reads an integer query parameter, applying defaultVal when it
// is absent and enforcing [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	value, err := ParseOptionalQueryInt(r, key)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return defaultVal, nil
	}
	if *value < min || *value > max {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "query parameter %s out of range", key)
	}
	return *value, nil
}

// ParseOptionalQueryInt returns nil when the parameter is absent.
func ParseOptionalQueryInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "query parameter %s must be numeric", key)
	}
	return &value, nil
}

// ParsePage reads the optional from/size pair.
func ParsePage(r *http.Request) (*pagination.Page, error) {
	from, err := ParseOptionalQueryInt(r, "from")
	if err != nil {
		return nil, err
	}
	size, err := ParseOptionalQueryInt(r, "size")
	if err != nil {
		return nil, err
	}
	page, err := pagination.New(from, size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return page, nil
}

// ParsePageWithDefaults is ParsePage with fallbacks for missing values.
func ParsePageWithDefaults(r *http.Request, defaultFrom, defaultSize int) (*pagination.Page, error) {
	from, err := ParseQueryInt(r, "from", defaultFrom, minInt, maxInt)
	if err != nil {
		return nil, err
	}
	size, err := ParseQueryInt(r, "size", defaultSize, minInt, maxInt)
	if err != nil {
		return nil, err
	}
	page, err := pagination.New(&from, &size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return page, nil
}

// ParseQueryBool reads a required boolean query parameter.
func ParseQueryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation, "Required request parameter '%s' is not present", key)
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation, "query parameter %s must be true or false", key)
	}
	return value, nil
}

// ParsePathID reads a positive numeric chi URL parameter.
func ParsePathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid %s", key)
	}
	return id, nil
}

const (
	minInt = -1 << 31
	maxInt = 1<<31 - 1
)
