package ports

import (
	"context"
	"time"

	"github.com/docflow/approvals/internal/core/domain"
)

// TokenCheck reports whether a stored token can still authenticate a request at now.
type TokenCheck func(token string, now time.Time) bool

// Viewer is the signed-in user as the screens see it.
type Viewer struct {
	User          domain.User
	HasValidToken bool
}

func (v Viewer) Role() domain.Role { return v.User.Role }

// UpdateProfileInput is the self-service subset of a user update. Role and
// codes are managed by administrators only.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Company   *string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
	// Viewer combines the current profile with the local token check.
	Viewer(ctx context.Context) (*Viewer, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error)
	HasValidToken(ctx context.Context) (bool, error)
}

// PhoneAuthService drives the two-step phone sign-in.
type PhoneAuthService interface {
	SendCode(ctx context.Context, phone string) error
	// Confirm returns the identity token issued for the verified number.
	Confirm(ctx context.Context, code string) (string, error)
	State() domain.VerificationState
	Reset()
}
