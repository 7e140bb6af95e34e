package requests

import (
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/types"
)

// CreateRequestInput is the payload for asking for an item.
type CreateRequestInput struct {
	Description string `json:"description" validate:"required,notblank"`
}

// AnswerDTO is an item listed in response to a request.
type AnswerDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   int64  `json:"requestId"`
	OwnerID     int64  `json:"ownerId"`
}

type RequestDTO struct {
	ID          int64               `json:"id"`
	Description string              `json:"description"`
	Created     types.LocalDateTime `json:"created"`
	Items       []AnswerDTO         `json:"items"`
}

func FromModel(r *models.ItemRequest, answers []models.Item) *RequestDTO {
	if r == nil {
		return nil
	}
	dto := &RequestDTO{
		ID:          r.ID,
		Description: r.Description,
		Created:     types.NewLocalDateTime(r.CreatedAt),
		Items:       make([]AnswerDTO, 0, len(answers)),
	}
	for _, item := range answers {
		dto.Items = append(dto.Items, AnswerDTO{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Available:   item.Available,
			RequestID:   r.ID,
			OwnerID:     item.OwnerID,
		})
	}
	return dto
}
