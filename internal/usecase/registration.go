package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/mailer"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/security"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
)

const ephemeralTokenBytes = 32

// RegisterInput carries the raw registration fields as received.
type RegisterInput struct {
	Fname    string
	Lname    string
	Email    string
	Phone    string
	Password string
}

// RegistrationService coordinates account creation and email confirmation.
type RegistrationService struct {
	cfg      *config.AppConfig
	accounts port.AccountRepository
	tokens   port.EphemeralTokenStore
	mailer   port.Mailer
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	tokens port.EphemeralTokenStore,
	mail port.Mailer,
	events port.EventPublisher,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
		mailer:   mail,
		events:   events,
		logger:   logger,
	}
}

// Register validates the input, creates an unconfirmed account and sends the
// confirmation email. The returned account never carries the password hash.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	fields := checkFields([]fieldValue{
		{"fname", input.Fname},
		{"lname", input.Lname},
		{"email", input.Email},
		{"phone", input.Phone},
		{"password", input.Password},
	})
	if len(fields) > 0 {
		return nil, apperror.NewBadRequest(apperror.TypeRegistrationValidation,
			"Some of the inputs provided for registration are missing or malformed.", fields)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Fname:        input.Fname,
		Lname:        input.Lname,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: &hash,
		Roles:        []string{domain.RoleUser},
		Confirmed:    false,
		Activated:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Concurrent registrations race on the unique email index; the loser must
	// surface as the conflict envelope, not a generic failure.
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.NewConflict(apperror.TypeEmailAlreadyExists,
				fmt.Sprintf("An account associated to %s already exists.", input.Email))
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	created, err := s.accounts.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("load created account: %w", err)
	}

	if err := s.sendConfirmationMail(ctx, created); err != nil {
		return nil, err
	}

	s.publishRegistered(ctx, created)

	public := created.Public()
	return &public, nil
}

// ConfirmUser consumes a confirmation token and marks the account confirmed.
// Redemption is exactly-once: the second of two redemptions of the same token
// observes the expired-link error.
func (s *RegistrationService) ConfirmUser(ctx context.Context, token string) (bool, error) {
	fields := checkEmptyFields([]fieldValue{{"token", token}})
	if len(fields) > 0 {
		return false, apperror.NewBadRequest(apperror.TypeConfirmationValidation,
			"The token provided to confirm the user account is missing.", fields)
	}

	accountID, err := s.tokens.TakeAndConsume(ctx, port.PurposeConfirm, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperror.NewGone(apperror.TypeAccountLinkExpired,
				"Account confirmation link has expired. A new email needs to be sent to confirm this account.")
		}
		return false, fmt.Errorf("consume confirmation token: %w", err)
	}

	if err := s.accounts.SetConfirmed(ctx, accountID); err != nil {
		return false, fmt.Errorf("confirm account %s: %w", accountID, err)
	}

	if err := s.events.PublishAccountConfirmed(ctx, domain.AccountConfirmedEvent{
		AccountID:   accountID,
		ConfirmedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish account confirmed event",
			zap.String("account_id", accountID), zap.Error(err))
	}

	return true, nil
}

// ResendConfirmationLink issues a fresh confirmation token for an existing
// account and emails it. Earlier tokens stay valid until their own expiry.
func (s *RegistrationService) ResendConfirmationLink(ctx context.Context, email string) (bool, error) {
	fields := checkEmptyFields([]fieldValue{{"email", email}})
	if len(fields) > 0 {
		return false, apperror.NewBadRequest(apperror.TypeResendConfirmationValidation,
			"The email provided to resend a confirmation link is missing.", fields)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperror.NewNotFound(apperror.TypeAccountNotFound, "This account does not exist.")
		}
		return false, fmt.Errorf("lookup account: %w", err)
	}

	if err := s.sendConfirmationMail(ctx, account); err != nil {
		return false, err
	}

	return true, nil
}

func (s *RegistrationService) sendConfirmationMail(ctx context.Context, account *domain.Account) error {
	token, err := security.GenerateSecureToken(ephemeralTokenBytes)
	if err != nil {
		return fmt.Errorf("generate confirmation token: %w", err)
	}

	if err := s.tokens.Put(ctx, port.PurposeConfirm, token, account.ID); err != nil {
		return fmt.Errorf("store confirmation token: %w", err)
	}

	confirmURL := mailer.ConfirmationURL(s.cfg.Frontend.BaseURL, token)
	if err := s.mailer.SendAccountConfirmation(ctx, account.Fname, account.Email, confirmURL); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	return nil
}

func (s *RegistrationService) publishRegistered(ctx context.Context, account *domain.Account) {
	event := domain.AccountRegisteredEvent{
		AccountID:    account.ID,
		Email:        account.Email,
		RegisteredAt: account.CreatedAt,
		Method:       "password",
	}
	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.logger.Warn("Failed to publish account registered event",
			zap.String("account_id", account.ID), zap.Error(err))
	}
}
