package requests

import (
	"context"

	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/internal/repo"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

// Repository exposes item request persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a requests repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, request *models.ItemRequest) (*models.ItemRequest, error) {
	if err := r.DB(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var request models.ItemRequest
	if err := r.DB(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.ItemRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByRequestor returns the user's own requests, newest first.
func (r *Repository) ListByRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error) {
	var rows []models.ItemRequest
	err := r.DB(ctx).
		Where("requestor_id = ?", requestorID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListOthers returns requests made by everyone except userID, newest first.
func (r *Repository) ListOthers(ctx context.Context, userID int64, page *pagination.Page) ([]models.ItemRequest, error) {
	var rows []models.ItemRequest
	err := r.DB(ctx).
		Where("requestor_id <> ?", userID).
		Scopes(pagination.Apply(page)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}
