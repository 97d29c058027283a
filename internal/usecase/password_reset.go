package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/mailer"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/security"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
)

// PasswordResetService coordinates the forgot-password flow.
type PasswordResetService struct {
	cfg      *config.AppConfig
	accounts port.AccountRepository
	tokens   port.EphemeralTokenStore
	mailer   port.Mailer
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	tokens port.EphemeralTokenStore,
	mail port.Mailer,
	events port.EventPublisher,
	logger *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
		mailer:   mail,
		events:   events,
		logger:   logger,
	}
}

// ForgotPassword emails a password-reset link to an existing account. The
// reset token is single-use and expires on its own; issuing a new one does
// not invalidate earlier ones.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) (bool, error) {
	fields := checkEmptyFields([]fieldValue{{"email", email}})
	if len(fields) > 0 {
		return false, apperror.NewBadRequest(apperror.TypeForgotPasswordValidation,
			"The email provided to generate the 'Forgot password' link is missing.", fields)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperror.NewNotFound(apperror.TypeAccountNotFound, "This account does not exist.")
		}
		return false, fmt.Errorf("lookup account: %w", err)
	}

	token, err := security.GenerateSecureToken(ephemeralTokenBytes)
	if err != nil {
		return false, fmt.Errorf("generate reset token: %w", err)
	}

	if err := s.tokens.Put(ctx, port.PurposeReset, token, account.ID); err != nil {
		return false, fmt.Errorf("store reset token: %w", err)
	}

	resetURL := mailer.ChangePasswordURL(s.cfg.Frontend.BaseURL, token)
	if err := s.mailer.SendPasswordReset(ctx, account.Fname, account.Email, resetURL); err != nil {
		return false, fmt.Errorf("send reset email: %w", err)
	}

	return true, nil
}

// ChangePassword consumes a reset token and stores the new password hash. The
// new password obeys the same strength rule as registration, reported under
// the same field name.
func (s *PasswordResetService) ChangePassword(ctx context.Context, token, password string) (*domain.Account, error) {
	fields := checkFields([]fieldValue{
		{"token", token},
		{"password", password},
	})
	if len(fields) > 0 {
		return nil, apperror.NewBadRequest(apperror.TypeChangePasswordValidation,
			"Some of the inputs provided for changing the password are malformed.", fields)
	}

	accountID, err := s.tokens.TakeAndConsume(ctx, port.PurposeReset, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewGone(apperror.TypePasswordLinkExpired,
				"Password modification link has expired. A new email needs to be sent to change this account password.")
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound(apperror.TypeAccountNotFound, "This account does not exist.")
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		AccountID: account.ID,
		ChangedAt: time.Now().UTC(),
		Method:    "reset_link",
	}); err != nil {
		s.logger.Warn("Failed to publish password changed event",
			zap.String("account_id", account.ID), zap.Error(err))
	}

	public := account.Public()
	return &public, nil
}
