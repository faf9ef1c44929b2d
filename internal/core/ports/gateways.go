package ports

import (
	"context"

	"github.com/docflow/approvals/internal/core/domain"
)

// ItemGateway is the backend surface for items.
type ItemGateway interface {
	// FetchItems lists items. An empty filterCode lists everything visible to the caller.
	FetchItems(ctx context.Context, filterCode string) ([]domain.Item, error)
	CreateItem(ctx context.Context, item domain.NewItem) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ApproveItem(ctx context.Context, id string) error
}

// UserGateway is the backend surface for user accounts.
type UserGateway interface {
	FetchUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, user domain.NewUser) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AuthGateway is the backend surface for the current session.
// Login stores the returned token; Logout clears it.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context) error
	FetchCurrentUserProfile(ctx context.Context) (*domain.User, error)
	UpdateCurrentUserProfile(ctx context.Context, update domain.UserUpdate) (*domain.User, error)
}

// Resource is a binary payload such as a photo or a PDF.
type Resource struct {
	Data        []byte
	ContentType string
}

// ResourceFetcher retrieves binary resources with the session's bearer token.
type ResourceFetcher interface {
	// ResolveURL turns a server-relative path into an absolute URL on the API host.
	ResolveURL(relative string) (string, error)
	FetchResource(ctx context.Context, absoluteURL string) (*Resource, error)
}

// PhoneAuthProvider sends and confirms one-time codes for phone sign-in.
type PhoneAuthProvider interface {
	SendCode(ctx context.Context, phone string) (handle string, err error)
	ConfirmCode(ctx context.Context, handle, code string) (idToken string, err error)
}
