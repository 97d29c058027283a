package port

import (
	"context"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
)

// EventPublisher emits account lifecycle events for downstream consumers.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishAccountConfirmed(ctx context.Context, event domain.AccountConfirmedEvent) error
	PublishGoogleLogin(ctx context.Context, event domain.GoogleLoginEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishTokensRevoked(ctx context.Context, event domain.TokensRevokedEvent) error
}
