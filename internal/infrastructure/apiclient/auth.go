package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/docflow/approvals/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	resp, err := c.Request(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var s domain.Session
	if err := resp.Decode(&s); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if s.Token == "" {
		return nil, errors.New("login: server returned no token")
	}
	if err := c.session.Set(ctx, s.Token); err != nil {
		return nil, fmt.Errorf("login: store token: %w", err)
	}

	c.log.Info().Str("user_id", s.User.ID).Str("role", string(s.User.Role)).Msg("logged in")
	return &s, nil
}

// Logout handles POST /auth/logout. The stored token is cleared whether or
// not the server call succeeds; the server error, if any, is still returned.
func (c *Client) Logout(ctx context.Context) error {
	_, reqErr := c.Request(ctx, http.MethodPost, "/auth/logout", nil, nil)

	if domain.HTTPStatus(reqErr) != http.StatusUnauthorized {
		c.invalidate(ctx, "logout")
	}
	return reqErr
}
