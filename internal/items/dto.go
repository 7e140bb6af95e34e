package items

import (
	"github.com/shareit/shareit-backend/internal/bookings"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/types"
)

// CreateItemInput is the payload for listing a new item.
type CreateItemInput struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// UpdateItemInput is a partial patch; nil or blank fields are left unchanged.
type UpdateItemInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

// CreateCommentInput is the payload for commenting on an item.
type CreateCommentInput struct {
	Text string `json:"text" validate:"required,notblank"`
}

type CommentDTO struct {
	ID         int64               `json:"id"`
	Text       string              `json:"text"`
	AuthorName string              `json:"authorName"`
	Created    types.LocalDateTime `json:"created"`
}

// ItemDTO is the wire shape of an item. Booking summaries are only filled in
// for the owner.
type ItemDTO struct {
	ID          int64                     `json:"id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Available   bool                      `json:"available"`
	RequestID   *int64                    `json:"requestId,omitempty"`
	LastBooking *bookings.ShortBookingDTO `json:"lastBooking,omitempty"`
	NextBooking *bookings.ShortBookingDTO `json:"nextBooking,omitempty"`
	Comments    []CommentDTO              `json:"comments"`
}

func FromModel(item *models.Item) *ItemDTO {
	if item == nil {
		return nil
	}
	return &ItemDTO{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		RequestID:   item.RequestID,
		Comments:    []CommentDTO{},
	}
}

func CommentFromModel(c *models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:      c.ID,
		Text:    c.Text,
		Created: types.NewLocalDateTime(c.CreatedAt),
	}
	if c.Author != nil {
		dto.AuthorName = c.Author.Name
	}
	return dto
}

func (c CreateItemInput) ToModel(ownerID int64) *models.Item {
	item := &models.Item{
		Name:        c.Name,
		Description: c.Description,
		OwnerID:     ownerID,
		RequestID:   c.RequestID,
	}
	if c.Available != nil {
		item.Available = *c.Available
	}
	return item
}
