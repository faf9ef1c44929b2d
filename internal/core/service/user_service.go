package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/policy"
	"github.com/docflow/approvals/internal/core/ports"
)

// UserService implements account management on top of the user gateway.
type UserService struct {
	users  ports.UserGateway
	logger zerolog.Logger
}

func NewUserService(users ports.UserGateway, logger zerolog.Logger) *UserService {
	return &UserService{users: users, logger: logger.With().Str("component", "users").Logger()}
}

// List is not gated here; the server decides who may list accounts.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.FetchUsers(ctx)
}

func (s *UserService) Create(ctx context.Context, viewer ports.Viewer, input ports.CreateUserInput) ([]domain.User, error) {
	if !policy.UserActions(viewer.Role()).ShowCreate {
		return nil, domain.ErrForbidden
	}

	in := input
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Company = strings.TrimSpace(in.Company)
	in.Codes = cleanCodes(in.Codes)

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	created, err := s.users.CreateUser(ctx, domain.NewUser{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Company:   in.Company,
		Role:      in.Role,
		Codes:     in.Codes,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, err
	}
	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")

	return s.List(ctx)
}

func (s *UserService) Update(ctx context.Context, viewer ports.Viewer, id string, input ports.UpdateUserInput) ([]domain.User, error) {
	if !policy.UserActions(viewer.Role()).ShowEdit {
		return nil, domain.ErrForbidden
	}
	if err := domain.ValidateID("id", id); err != nil {
		return nil, err
	}

	update, err := userUpdate(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.UpdateUser(ctx, id, update); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return nil, userNotFound(err)
	}
	s.logger.Info().Str("user_id", id).Msg("user updated")

	return s.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, viewer ports.Viewer, id string) ([]domain.User, error) {
	if !policy.UserActions(viewer.Role()).ShowDelete {
		return nil, domain.ErrForbidden
	}
	if err := domain.ValidateID("id", id); err != nil {
		return nil, err
	}
	if id == viewer.User.ID {
		return nil, domain.NewValidationError("id", "you cannot delete your own account")
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		return nil, userNotFound(err)
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")

	return s.List(ctx)
}

// userUpdate turns the form into the wire partial, trimming names and
// refusing blank names, unknown roles and empty updates.
func userUpdate(in ports.UpdateUserInput) (domain.UserUpdate, error) {
	upd := domain.UserUpdate{
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		Company:   trimmed(in.Company),
		Role:      in.Role,
	}
	if in.Codes != nil {
		codes := cleanCodes(*in.Codes)
		upd.Codes = &codes
	}

	ve := &domain.ValidationError{}
	if upd.FirstName != nil && *upd.FirstName == "" {
		ve.Fields = append(ve.Fields, domain.FieldError{Field: "firstName", Message: "firstName is required"})
	}
	if upd.LastName != nil && *upd.LastName == "" {
		ve.Fields = append(ve.Fields, domain.FieldError{Field: "lastName", Message: "lastName is required"})
	}
	if upd.Role != nil && !upd.Role.Valid() {
		ve.Fields = append(ve.Fields, domain.FieldError{Field: "role", Message: "role must be one of: admin user bot"})
	}
	if len(ve.Fields) > 0 {
		return domain.UserUpdate{}, ve
	}
	if upd.Empty() {
		return domain.UserUpdate{}, domain.NewValidationError("update", "nothing to update")
	}
	return upd, nil
}

func userNotFound(err error) error {
	if domain.HTTPStatus(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrUserNotFound, err)
	}
	return err
}

// cleanCodes trims codes and drops blanks and duplicates, keeping order.
func cleanCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

var _ ports.UserService = (*UserService)(nil)
