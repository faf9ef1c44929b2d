package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/docflow/approvals/internal/core/domain"
)

func (c *Client) FetchUsers(ctx context.Context) ([]domain.User, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/users", nil, nil)
	if err != nil {
		return nil, err
	}

	var users []domain.User
	if err := resp.Decode(&users); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, user domain.NewUser) (*domain.User, error) {
	resp, err := c.Request(ctx, http.MethodPost, "/users", nil, user)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp, "create user")
}

// UpdateUser sends a partial update; unset fields are omitted from the payload.
func (c *Client) UpdateUser(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	resp, err := c.Request(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), nil, update)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp, "update user")
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.Request(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) FetchCurrentUserProfile(ctx context.Context) (*domain.User, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/users/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp, "fetch profile")
}

func (c *Client) UpdateCurrentUserProfile(ctx context.Context, update domain.UserUpdate) (*domain.User, error) {
	resp, err := c.Request(ctx, http.MethodPatch, "/users/profile", nil, update)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp, "update profile")
}

func decodeUser(resp *Response, op string) (*domain.User, error) {
	var u domain.User
	if err := resp.Decode(&u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}
