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
	"github.com/SOS-Tag/sos-tag-api/internal/infra/logger"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/security"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
	"github.com/google/uuid"
)

// LoginInput carries the raw credential fields as received.
type LoginInput struct {
	Email    string
	Password string
}

// GoogleLoginInput carries the credential pair the frontend obtained from
// Google.
type GoogleLoginInput struct {
	TokenID     string
	AccessToken string
}

// Session is the successful outcome of a login or token refresh. The refresh
// token travels back to the client only through the transport cookie.
type Session struct {
	Account      domain.Account
	AccessToken  string
	RefreshToken string
}

// RefreshResult reports a refresh attempt. Failures are reported fail-closed:
// OK false with empty tokens, never an error envelope.
type RefreshResult struct {
	OK           bool
	AccessToken  string
	RefreshToken string
}

// AuthService coordinates credential logins, Google sign-in and the
// refresh-token rotation flow.
type AuthService struct {
	accounts port.AccountRepository
	issuer   *security.TokenIssuer
	oauth    port.GoogleOAuth
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	accounts port.AccountRepository,
	issuer *security.TokenIssuer,
	oauth port.GoogleOAuth,
	events port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		issuer:   issuer,
		oauth:    oauth,
		events:   events,
		logger:   log,
	}
}

// Login verifies an email/password pair and opens a session. Checks run in a
// fixed order: existence, login method, password, confirmation.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	fields := checkEmptyFields([]fieldValue{
		{"email", input.Email},
		{"password", input.Password},
	})
	if len(fields) > 0 {
		return nil, apperror.NewBadRequest(apperror.TypeLoginValidation,
			"Some of the inputs provided for log in are missing.", fields)
	}

	account, err := s.accounts.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound(apperror.TypeAccountNotFound, "This account does not exist.")
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if account.PasswordHash == nil {
		return nil, apperror.NewForbidden(apperror.TypeBadLoginMethod,
			fmt.Sprintf("The account exists (%s) but was created using your Google account, this is why there is no password associated with it. Login by using 'Login with Google'.", account.Email))
	}

	ok, err := security.VerifyPassword(input.Password, *account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, apperror.NewForbidden(apperror.TypeIncorrectPassword, "Password is incorrect.")
	}

	if !account.Confirmed {
		return nil, apperror.NewForbidden(apperror.TypeUnconfirmedAccount,
			fmt.Sprintf("Account must be validated by clicking the link sent to %s.", account.Email))
	}

	return s.openSession(account)
}

// LoginWithGoogle verifies the Google credential pair, upserts the matching
// local account and opens a session. The Google profile overwrites fname,
// lname and email, and the account is confirmed unconditionally.
func (s *AuthService) LoginWithGoogle(ctx context.Context, input GoogleLoginInput) (*Session, error) {
	fields := checkEmptyFields([]fieldValue{
		{"tokenId", input.TokenID},
		{"accessToken", input.AccessToken},
	})
	if len(fields) > 0 {
		return nil, apperror.NewBadRequest(apperror.TypeGoogleLoginValidation,
			"Some of the inputs provided for log in using Google are missing.", fields)
	}

	profile, err := s.oauth.UserInfo(ctx, input.TokenID, input.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch google profile: %w", err)
	}

	if !profile.VerifiedEmail {
		return nil, apperror.NewForbidden(apperror.TypeUnconfirmedAccount,
			fmt.Sprintf("Your Google email (%s) has not be verified. Please verify it and try to log in again", profile.Email))
	}

	account, err := s.accounts.UpsertGoogle(ctx, port.GoogleUpsert{
		NewID: uuid.NewString(),
		Fname: profile.GivenName,
		Lname: profile.FamilyName,
		Email: profile.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert google account: %w", err)
	}

	s.logger.Info("Google login",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)))

	if err := s.events.PublishGoogleLogin(ctx, domain.GoogleLoginEvent{
		AccountID:  account.ID,
		Email:      account.Email,
		LoggedInAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish google login event",
			zap.String("account_id", account.ID), zap.Error(err))
	}

	return s.openSession(account)
}

// Logout always succeeds; the transport layer clears the refresh cookie.
// Outstanding tokens stay valid until expiry unless revoked explicitly.
func (s *AuthService) Logout(ctx context.Context) (bool, error) {
	return true, nil
}

// RefreshSession validates a refresh token and rotates it. Any defect (a
// missing token, a bad signature, an unknown account or a stale token
// version) produces the same fail-closed result.
func (s *AuthService) RefreshSession(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	failed := &RefreshResult{OK: false}

	if refreshToken == "" {
		return failed, nil
	}

	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		s.logger.Debug("Refresh token rejected", zap.Error(err))
		return failed, nil
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failed, nil
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if account.TokenVersion != claims.TokenVersion {
		s.logger.Debug("Refresh token version mismatch",
			zap.String("account_id", account.ID),
			zap.Int("token_version", claims.TokenVersion),
			zap.Int("current_version", account.TokenVersion))
		return failed, nil
	}

	session, err := s.openSession(account)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		OK:           true,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

// RevokeRefreshTokens bumps the account's token version, invalidating every
// outstanding refresh token at once. Access tokens stay valid until expiry.
func (s *AuthService) RevokeRefreshTokens(ctx context.Context, accountID string) (int, error) {
	version, err := s.accounts.IncrementTokenVersion(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperror.NewNotFound(apperror.TypeAccountNotFound, "This account does not exist.")
		}
		return 0, fmt.Errorf("increment token version: %w", err)
	}

	if err := s.events.PublishTokensRevoked(ctx, domain.TokensRevokedEvent{
		AccountID:    accountID,
		TokenVersion: version,
		RevokedAt:    time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish tokens revoked event",
			zap.String("account_id", accountID), zap.Error(err))
	}

	return version, nil
}

// ParseAccessToken validates an access token and returns its claims. Used by
// the authentication middleware.
func (s *AuthService) ParseAccessToken(token string) (*security.AccessClaims, error) {
	return s.issuer.ParseAccess(token)
}

func (s *AuthService) openSession(account *domain.Account) (*Session, error) {
	accessToken, err := s.issuer.IssueAccess(*account)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.issuer.IssueRefresh(*account)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &Session{
		Account:      account.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
