package bookings

import (
	"github.com/shareit/shareit-backend/internal/users"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/enums"
	"github.com/shareit/shareit-backend/pkg/types"
)

// CreateBookingInput is the booking request body.
type CreateBookingInput struct {
	ItemID *int64              `json:"itemId" validate:"required"`
	Start  types.LocalDateTime `json:"start"`
	End    types.LocalDateTime `json:"end"`
}

// ItemRef is the item embedded in a booking.
type ItemRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// BookingDTO is the wire shape of a booking.
type BookingDTO struct {
	ID     int64               `json:"id"`
	ItemID int64               `json:"itemId,omitempty"`
	Item   *ItemRef            `json:"item,omitempty"`
	Booker *users.UserDTO      `json:"booker,omitempty"`
	Start  types.LocalDateTime `json:"start"`
	End    types.LocalDateTime `json:"end"`
	Status enums.BookingStatus `json:"status"`
}

// ShortBookingDTO is the last/next booking summary attached to items.
type ShortBookingDTO struct {
	ID       int64               `json:"id"`
	BookerID int64               `json:"bookerId"`
	Start    types.LocalDateTime `json:"start"`
	End      types.LocalDateTime `json:"end"`
}

func FromModel(b *models.Booking) *BookingDTO {
	if b == nil {
		return nil
	}
	dto := &BookingDTO{
		ID:     b.ID,
		ItemID: b.ItemID,
		Booker: &users.UserDTO{ID: b.BookerID},
		Start:  types.NewLocalDateTime(b.StartDate),
		End:    types.NewLocalDateTime(b.EndDate),
		Status: b.Status,
	}
	if b.Booker != nil {
		dto.Booker = users.FromModel(b.Booker)
	}
	if b.Item != nil {
		dto.Item = &ItemRef{
			ID:          b.Item.ID,
			Name:        b.Item.Name,
			Description: b.Item.Description,
			Available:   b.Item.Available,
			RequestID:   b.Item.RequestID,
		}
	}
	return dto
}

func FromModels(rows []models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func ShortFromModel(b *models.Booking) *ShortBookingDTO {
	if b == nil {
		return nil
	}
	return &ShortBookingDTO{
		ID:       b.ID,
		BookerID: b.BookerID,
		Start:    types.NewLocalDateTime(b.StartDate),
		End:      types.NewLocalDateTime(b.EndDate),
	}
}
