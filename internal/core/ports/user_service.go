package ports

import (
	"context"

	"github.com/docflow/approvals/internal/core/domain"
)

// CreateUserInput carries the account form.
type CreateUserInput struct {
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=6"`
	FirstName string      `json:"firstName" validate:"required"`
	LastName  string      `json:"lastName" validate:"required"`
	Company   string      `json:"company"`
	Role      domain.Role `json:"role" validate:"required,oneof=admin user bot"`
	Codes     []string    `json:"codes"`
}

// UpdateUserInput is a partial account update; nil fields are left unchanged.
// Email, password and verification state are not editable here.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Company   *string
	Role      *domain.Role
	Codes     *[]string
}

// UserService defines the account management screen. Mutations are offered
// to administrators only and return the re-fetched list.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, viewer Viewer, input CreateUserInput) ([]domain.User, error)
	Update(ctx context.Context, viewer Viewer, id string, input UpdateUserInput) ([]domain.User, error)
	Delete(ctx context.Context, viewer Viewer, id string) ([]domain.User, error)
}
