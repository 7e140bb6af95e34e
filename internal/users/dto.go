package users

import "github.com/shareit/shareit-backend/pkg/db/models"

// UserDTO is the wire shape of a user.
type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateUserInput is the signup payload.
type CreateUserInput struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
}

// UpdateUserInput is a partial patch; nil fields are left unchanged.
type UpdateUserInput struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

func (c CreateUserInput) ToModel() *models.User {
	return &models.User{
		Name:  c.Name,
		Email: c.Email,
	}
}
