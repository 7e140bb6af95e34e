package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/pkg/db/models"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/pagination"
)

const (
	msgUserNotFound    = "User not found"
	msgRequestNotFound = "ItemRequest not found"
)

type requestsRepository interface {
	Create(ctx context.Context, request *models.ItemRequest) (*models.ItemRequest, error)
	FindByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	ListByRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error)
	ListOthers(ctx context.Context, userID int64, page *pagination.Page) ([]models.ItemRequest, error)
}

type usersLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type answersLookup interface {
	ListByRequestIDs(ctx context.Context, requestIDs []int64) ([]models.Item, error)
}

// Service exposes item request operations.
type Service interface {
	Create(ctx context.Context, userID int64, input CreateRequestInput) (*RequestDTO, error)
	ListOwn(ctx context.Context, userID int64) ([]RequestDTO, error)
	ListOthers(ctx context.Context, userID int64, page *pagination.Page) ([]RequestDTO, error)
	Get(ctx context.Context, userID, requestID int64) (*RequestDTO, error)
}

type service struct {
	repo    requestsRepository
	users   usersLookup
	answers answersLookup
}

// NewService builds an item request service.
func NewService(repo requestsRepository, users usersLookup, answers answersLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if answers == nil {
		return nil, fmt.Errorf("items lookup required")
	}
	return &service{repo: repo, users: users, answers: answers}, nil
}

func (s *service) Create(ctx context.Context, userID int64, input CreateRequestInput) (*RequestDTO, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must not be blank")
	}
	request, err := s.repo.Create(ctx, &models.ItemRequest{
		Description: description,
		RequestorID: userID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item request")
	}
	return FromModel(request, nil), nil
}

func (s *service) ListOwn(ctx context.Context, userID int64) ([]RequestDTO, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByRequestor(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list item requests")
	}
	return s.withAnswers(ctx, rows)
}

func (s *service) ListOthers(ctx context.Context, userID int64, page *pagination.Page) ([]RequestDTO, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListOthers(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list item requests")
	}
	return s.withAnswers(ctx, rows)
}

func (s *service) Get(ctx context.Context, userID, requestID int64) (*RequestDTO, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msgRequestNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item request")
	}
	out, err := s.withAnswers(ctx, []models.ItemRequest{*request})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) withAnswers(ctx context.Context, rows []models.ItemRequest) ([]RequestDTO, error) {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	answers, err := s.answers.ListByRequestIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request answers")
	}
	byRequest := make(map[int64][]models.Item, len(rows))
	for _, item := range answers {
		if item.RequestID != nil {
			byRequest[*item.RequestID] = append(byRequest[*item.RequestID], item)
		}
	}

	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i], byRequest[rows[i].ID]))
	}
	return out, nil
}

func (s *service) ensureUser(ctx context.Context, id int64) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
	}
	return nil
}
