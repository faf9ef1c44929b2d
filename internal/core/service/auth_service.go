package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/ports"
)

// AuthService implements login, logout and the current user's profile.
type AuthService struct {
	auth    ports.AuthGateway
	session ports.SessionStore
	usable  ports.TokenCheck
	now     func() time.Time
	logger  zerolog.Logger
}

func NewAuthService(auth ports.AuthGateway, session ports.SessionStore, usable ports.TokenCheck, logger zerolog.Logger) *AuthService {
	return &AuthService{
		auth:    auth,
		session: session,
		usable:  usable,
		now:     time.Now,
		logger:  logger.With().Str("component", "auth").Logger(),
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login signs in and stores the session token. A 401 from the login
// endpoint means wrong credentials rather than an expired session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	in := loginInput{Email: strings.TrimSpace(email), Password: password}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	sess, err := s.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		if domain.HTTPStatus(err) == http.StatusUnauthorized {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return sess, nil
}

// Logout ends the session. The local token is gone afterwards even when the
// server call fails; that failure is still returned.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("logout request failed, local session cleared")
		return err
	}
	s.logger.Info().Msg("logged out")
	return nil
}

// HasValidToken reports whether a stored token exists and has not expired.
func (s *AuthService) HasValidToken(ctx context.Context) (bool, error) {
	token, err := s.session.Get(ctx)
	if err != nil {
		return false, err
	}
	return s.usable(token, s.now()), nil
}

// CurrentUser fetches the profile of the signed-in user. Without a usable
// token no request is made.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	ok, err := s.HasValidToken(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	user, err := s.auth.FetchCurrentUserProfile(ctx)
	if errors.Is(err, domain.ErrUnauthorized) {
		// The client has already dropped the token.
		s.logger.Warn().Msg("stored session rejected by server")
	}
	return user, err
}

func (s *AuthService) Viewer(ctx context.Context) (*ports.Viewer, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.Viewer{User: *user, HasValidToken: true}, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, input ports.UpdateProfileInput) (*domain.User, error) {
	upd, err := userUpdate(ports.UpdateUserInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Company:   input.Company,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.auth.UpdateCurrentUserProfile(ctx, upd)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to update profile")
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("profile updated")
	return user, nil
}

var _ ports.AuthService = (*AuthService)(nil)
