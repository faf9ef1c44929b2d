package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/ports"
)

// PhoneAuthService drives one phone sign-in at a time through the external
// provider. A code can only be confirmed after it was sent.
type PhoneAuthService struct {
	provider ports.PhoneAuthProvider
	logger   zerolog.Logger

	mu    sync.Mutex
	state *domain.PhoneVerification
}

func NewPhoneAuthService(provider ports.PhoneAuthProvider, logger zerolog.Logger) *PhoneAuthService {
	return &PhoneAuthService{
		provider: provider,
		logger:   logger.With().Str("component", "phone_auth").Logger(),
		state:    domain.NewPhoneVerification(),
	}
}

type sendCodeInput struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type confirmInput struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

func (s *PhoneAuthService) SendCode(ctx context.Context, phone string) error {
	in := sendCodeInput{Phone: strings.ReplaceAll(strings.TrimSpace(phone), " ", "")}
	if err := validateStruct(in); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.State() != domain.StateAwaitingCode {
		return domain.ErrVerificationState
	}

	handle, err := s.provider.SendCode(ctx, in.Phone)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send verification code")
		return fmt.Errorf("send code: %w", err)
	}
	if err := s.state.CodeSent(in.Phone, handle); err != nil {
		return err
	}

	s.logger.Info().Msg("verification code sent")
	return nil
}

// Confirm exchanges code for an identity token. A rejected code keeps the
// handle so the user can retry; success returns to the initial state.
func (s *PhoneAuthService) Confirm(ctx context.Context, code string) (string, error) {
	in := confirmInput{Code: strings.TrimSpace(code)}
	if err := validateStruct(in); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.state.Handle()
	if !ok {
		return "", domain.ErrVerificationState
	}

	token, err := s.provider.ConfirmCode(ctx, handle, in.Code)
	if err != nil {
		s.logger.Warn().Err(err).Msg("verification code rejected")
		return "", fmt.Errorf("confirm code: %w", err)
	}

	s.state.Reset()
	s.logger.Info().Msg("phone verified")
	return token, nil
}

func (s *PhoneAuthService) State() domain.VerificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.State()
}

func (s *PhoneAuthService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
}

var _ ports.PhoneAuthService = (*PhoneAuthService)(nil)
