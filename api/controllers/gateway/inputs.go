package gateway

import (
	"time"

	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/types"
)

type userInput struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
}

type userPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type itemInput struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId,omitempty" validate:"omitempty,gt=0"`
}

type itemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

type commentInput struct {
	Text string `json:"text" validate:"required,notblank"`
}

type requestInput struct {
	Description string `json:"description" validate:"required,notblank"`
}

type bookingInput struct {
	ItemID *int64              `json:"itemId" validate:"required,gt=0"`
	Start  types.LocalDateTime `json:"start"`
	End    types.LocalDateTime `json:"end"`
}

// checkDates enforces a start that is not in the past, an end in the future
// and start strictly before end. Precision is one second, matching the wire
// format.
func (b bookingInput) checkDates(now time.Time) error {
	if b.Start.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start is required")
	}
	if b.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "end is required")
	}
	now = now.Truncate(time.Second)
	if b.Start.Before(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "start must be a date in the present or in the future")
	}
	if !b.End.After(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be a future date")
	}
	if !b.Start.Before(b.End.Time) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Date end must be after date start")
	}
	return nil
}
