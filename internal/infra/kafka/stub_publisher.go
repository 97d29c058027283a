package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"account_id":    event.AccountID,
		"email":         event.Email,
		"registered_at": event.RegisteredAt,
		"method":        event.Method,
	}
	p.logEvent("account.registered", event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishAccountConfirmed logs account.confirmed events.
func (p *StubPublisher) PublishAccountConfirmed(_ context.Context, event domain.AccountConfirmedEvent) error {
	payload := map[string]any{
		"account_id":   event.AccountID,
		"confirmed_at": event.ConfirmedAt,
	}
	p.logEvent("account.confirmed", event.AccountID, event.ConfirmedAt, payload)
	return nil
}

// PublishGoogleLogin logs account.google_login events.
func (p *StubPublisher) PublishGoogleLogin(_ context.Context, event domain.GoogleLoginEvent) error {
	payload := map[string]any{
		"account_id":   event.AccountID,
		"email":        event.Email,
		"logged_in_at": event.LoggedInAt,
	}
	p.logEvent("account.google_login", event.AccountID, event.LoggedInAt, payload)
	return nil
}

// PublishPasswordChanged logs account.password_changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"changed_at": event.ChangedAt,
		"method":     event.Method,
	}
	p.logEvent("account.password_changed", event.AccountID, event.ChangedAt, payload)
	return nil
}

// PublishTokensRevoked logs account.tokens_revoked events.
func (p *StubPublisher) PublishTokensRevoked(_ context.Context, event domain.TokensRevokedEvent) error {
	payload := map[string]any{
		"account_id":    event.AccountID,
		"token_version": event.TokenVersion,
		"revoked_at":    event.RevokedAt,
	}
	p.logEvent("account.tokens_revoked", event.AccountID, event.RevokedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
