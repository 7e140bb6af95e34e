package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shareit/shareit-backend/pkg/db"
	"github.com/shareit/shareit-backend/pkg/db/models"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	msgUserNotFound = "User not found"
	msgEmailTaken   = "User email already exist"
)

type usersRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, columns map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// Service exposes user account operations.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*UserDTO, error)
	Get(ctx context.Context, id int64) (*UserDTO, error)
	List(ctx context.Context) ([]UserDTO, error)
	Update(ctx context.Context, id int64, input UpdateUserInput) (*UserDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo usersRepository
}

// NewService builds a user service on top of the repository.
func NewService(repo usersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid user name")
	}
	if input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid user email")
	}

	user, err := s.repo.Create(ctx, input.ToModel())
	if err != nil {
		return nil, classifyWriteError(err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, id int64) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classifyReadError(err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Update applies a partial patch. Blank names and emails are ignored.
func (s *service) Update(ctx context.Context, id int64, input UpdateUserInput) (*UserDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, classifyReadError(err, "load user")
	}

	columns := map[string]any{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		columns["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		columns["email"] = strings.TrimSpace(*input.Email)
	}
	if err := s.repo.Update(ctx, id, columns); err != nil {
		return nil, classifyWriteError(err, "update user")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return classifyReadError(err, "delete user")
	}
	return nil
}

func classifyReadError(err error, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msgUserNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}

func classifyWriteError(err error, step string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgEmailTaken)
	}
	return classifyReadError(err, step)
}
