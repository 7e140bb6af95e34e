package items

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/internal/repo"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

// Repository exposes item and comment persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs an items repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByOwner returns the owner's items ordered by id.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64, page *pagination.Page) ([]models.Item, error) {
	var rows []models.Item
	err := r.DB(ctx).
		Where("owner_id = ?", ownerID).
		Scopes(pagination.Apply(page)).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListByRequestIDs returns items created in answer to any of the requests.
func (r *Repository) ListByRequestIDs(ctx context.Context, requestIDs []int64) ([]models.Item, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}
	var rows []models.Item
	err := r.DB(ctx).
		Where("request_id IN ?", requestIDs).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// Search matches available items whose name or description contains text,
// ignoring case.
func (r *Repository) Search(ctx context.Context, text string, page *pagination.Page) ([]models.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	var rows []models.Item
	err := r.DB(ctx).
		Where("available = ?", true).
		Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern).
		Scopes(pagination.Apply(page)).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// Update writes the given columns.
func (r *Repository) Update(ctx context.Context, id int64, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.DB(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.DB(ctx).Delete(&models.Item{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if err := r.DB(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the comments of the items with their authors, keyed by item id.
func (r *Repository) ListComments(ctx context.Context, itemIDs []int64) (map[int64][]models.Comment, error) {
	out := make(map[int64][]models.Comment, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	var rows []models.Comment
	err := r.DB(ctx).
		Preload("Author").
		Where("item_id IN ?", itemIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ItemID] = append(out[row.ItemID], row)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
