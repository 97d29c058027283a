package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	AccountID string           `json:"account_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes account.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string    `json:"account_id"`
		Email        string    `json:"email"`
		RegisteredAt time.Time `json:"registered_at"`
		Method       string    `json:"method"`
	}{
		AccountID:    event.AccountID,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
		Method:       event.Method,
	}

	return p.publish(ctx, event.EventID, "account.registered", event.AccountID, event.RegisteredAt, payload)
}

// PublishAccountConfirmed publishes account.confirmed events.
func (p *EventPublisher) PublishAccountConfirmed(ctx context.Context, event domain.AccountConfirmedEvent) error {
	payload := struct {
		AccountID   string    `json:"account_id"`
		ConfirmedAt time.Time `json:"confirmed_at"`
	}{
		AccountID:   event.AccountID,
		ConfirmedAt: event.ConfirmedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "account.confirmed", event.AccountID, event.ConfirmedAt, payload)
}

// PublishGoogleLogin publishes account.google_login events.
func (p *EventPublisher) PublishGoogleLogin(ctx context.Context, event domain.GoogleLoginEvent) error {
	payload := struct {
		AccountID  string    `json:"account_id"`
		Email      string    `json:"email"`
		LoggedInAt time.Time `json:"logged_in_at"`
	}{
		AccountID:  event.AccountID,
		Email:      event.Email,
		LoggedInAt: event.LoggedInAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "account.google_login", event.AccountID, event.LoggedInAt, payload)
}

// PublishPasswordChanged publishes account.password_changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		ChangedAt time.Time `json:"changed_at"`
		Method    string    `json:"method"`
	}{
		AccountID: event.AccountID,
		ChangedAt: event.ChangedAt.UTC(),
		Method:    event.Method,
	}

	return p.publish(ctx, event.EventID, "account.password_changed", event.AccountID, event.ChangedAt, payload)
}

// PublishTokensRevoked publishes account.tokens_revoked events.
func (p *EventPublisher) PublishTokensRevoked(ctx context.Context, event domain.TokensRevokedEvent) error {
	payload := struct {
		AccountID    string    `json:"account_id"`
		TokenVersion int       `json:"token_version"`
		RevokedAt    time.Time `json:"revoked_at"`
	}{
		AccountID:    event.AccountID,
		TokenVersion: event.TokenVersion,
		RevokedAt:    event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "account.tokens_revoked", event.AccountID, event.RevokedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
