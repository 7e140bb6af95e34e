package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/internal/bookings"
	"github.com/shareit/shareit-backend/pkg/db/models"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

const (
	msgUserNotFound    = "User not found"
	msgItemNotFound    = "Item not found"
	msgRequestNotFound = "ItemRequest not found"
	msgInvalidOwner    = "Invalid owner for this item"
	msgNotEligible     = "User haven't booking for item"
	msgBlankComment    = "Comment text must not be blank"
)

type itemsRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	FindByID(ctx context.Context, id int64) (*models.Item, error)
	ListByOwner(ctx context.Context, ownerID int64, page *pagination.Page) ([]models.Item, error)
	Search(ctx context.Context, text string, page *pagination.Page) ([]models.Item, error)
	Update(ctx context.Context, id int64, columns map[string]any) error
	Delete(ctx context.Context, id int64) error
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListComments(ctx context.Context, itemIDs []int64) (map[int64][]models.Comment, error)
}

type usersLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type bookingsLookup interface {
	FindLast(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	FindNext(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasFinishedApproved(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error)
}

type requestsLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service exposes item listing, search and comment operations.
type Service interface {
	Create(ctx context.Context, ownerID int64, input CreateItemInput) (*ItemDTO, error)
	Update(ctx context.Context, ownerID, itemID int64, input UpdateItemInput) (*ItemDTO, error)
	Get(ctx context.Context, userID, itemID int64) (*ItemDTO, error)
	ListOwned(ctx context.Context, ownerID int64, page *pagination.Page) ([]ItemDTO, error)
	Search(ctx context.Context, userID int64, text string, page *pagination.Page) ([]ItemDTO, error)
	Delete(ctx context.Context, ownerID, itemID int64) error
	AddComment(ctx context.Context, authorID, itemID int64, input CreateCommentInput) (*CommentDTO, error)
}

type ServiceParams struct {
	Repo     itemsRepository
	Users    usersLookup
	Bookings bookingsLookup
	Requests requestsLookup
	Now      func() time.Time
}

type service struct {
	repo     itemsRepository
	users    usersLookup
	bookings bookingsLookup
	requests requestsLookup
	now      func() time.Time
}

// NewService builds an item service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings lookup required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("requests lookup required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		bookings: params.Bookings,
		requests: params.Requests,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID int64, input CreateItemInput) (*ItemDTO, error) {
	if _, err := s.loadUser(ctx, ownerID); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if input.Name == "" || input.Description == "" || input.Available == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, description and available are required")
	}
	if input.RequestID != nil {
		ok, err := s.requests.Exists(ctx, *input.RequestID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item request")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgRequestNotFound)
		}
	}

	item, err := s.repo.Create(ctx, input.ToModel(ownerID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return FromModel(item), nil
}

// Update applies a partial patch on behalf of the owner.
func (s *service) Update(ctx context.Context, ownerID, itemID int64, input UpdateItemInput) (*ItemDTO, error) {
	if _, err := s.loadUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if _, err := s.loadOwned(ctx, ownerID, itemID); err != nil {
		return nil, err
	}

	columns := map[string]any{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		columns["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		columns["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Available != nil {
		columns["available"] = *input.Available
	}
	if err := s.repo.Update(ctx, itemID, columns); err != nil {
		return nil, notFoundOr(err, msgItemNotFound, "update item")
	}

	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, msgItemNotFound, "load item")
	}
	return s.decorateOne(ctx, ownerID, item)
}

func (s *service) Get(ctx context.Context, userID, itemID int64) (*ItemDTO, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, msgItemNotFound, "load item")
	}
	return s.decorateOne(ctx, userID, item)
}

func (s *service) ListOwned(ctx context.Context, ownerID int64, page *pagination.Page) ([]ItemDTO, error) {
	if _, err := s.loadUser(ctx, ownerID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return s.decorate(ctx, ownerID, rows)
}

// Search returns available items matching text. Blank text matches nothing.
func (s *service) Search(ctx context.Context, userID int64, text string, page *pagination.Page) ([]ItemDTO, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []ItemDTO{}, nil
	}
	rows, err := s.repo.Search(ctx, text, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search items")
	}
	return s.decorate(ctx, userID, rows)
}

func (s *service) Delete(ctx context.Context, ownerID, itemID int64) error {
	if _, err := s.loadUser(ctx, ownerID); err != nil {
		return err
	}
	if _, err := s.loadOwned(ctx, ownerID, itemID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return notFoundOr(err, msgItemNotFound, "delete item")
	}
	return nil
}

// AddComment stores a comment from a user who finished an approved booking of the item.
func (s *service) AddComment(ctx context.Context, authorID, itemID int64, input CreateCommentInput) (*CommentDTO, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgBlankComment)
	}
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, itemID); err != nil {
		return nil, notFoundOr(err, msgItemNotFound, "load item")
	}

	eligible, err := s.bookings.HasFinishedApproved(ctx, itemID, authorID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check booking history")
	}
	if !eligible {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNotEligible)
	}

	comment, err := s.repo.CreateComment(ctx, &models.Comment{
		Text:     text,
		ItemID:   itemID,
		AuthorID: authorID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}
	comment.Author = author
	dto := CommentFromModel(comment)
	return &dto, nil
}

func (s *service) loadUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "load user")
	}
	return user, nil
}

func (s *service) loadOwned(ctx context.Context, ownerID, itemID int64) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, msgItemNotFound, "load item")
	}
	if item.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgInvalidOwner)
	}
	return item, nil
}

func (s *service) decorateOne(ctx context.Context, userID int64, item *models.Item) (*ItemDTO, error) {
	out, err := s.decorate(ctx, userID, []models.Item{*item})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// decorate attaches comments to every item and booking summaries to the
// items userID owns.
func (s *service) decorate(ctx context.Context, userID int64, rows []models.Item) ([]ItemDTO, error) {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	comments, err := s.repo.ListComments(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load comments")
	}

	now := s.now()
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		dto := FromModel(&rows[i])
		for j := range comments[rows[i].ID] {
			dto.Comments = append(dto.Comments, CommentFromModel(&comments[rows[i].ID][j]))
		}
		if rows[i].OwnerID == userID {
			last, err := s.bookings.FindLast(ctx, rows[i].ID, now)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last booking")
			}
			next, err := s.bookings.FindNext(ctx, rows[i].ID, now)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load next booking")
			}
			dto.LastBooking = bookings.ShortFromModel(last)
			dto.NextBooking = bookings.ShortFromModel(next)
		}
		out = append(out, *dto)
	}
	return out, nil
}

func notFoundOr(err error, notFound, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
