package kafka

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
)

// MeteredPublisher decorates an event publisher with a Prometheus counter
// partitioned by lifecycle event type, regardless of whether the inner
// publisher is Kafka-backed or the logging stub.
type MeteredPublisher struct {
	next   port.EventPublisher
	events *prometheus.CounterVec
}

// NewMeteredPublisher registers the lifecycle counter with the given
// registerer (the default one when nil) and wraps next.
func NewMeteredPublisher(next port.EventPublisher, reg prometheus.Registerer) (*MeteredPublisher, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sostag",
		Subsystem: "account",
		Name:      "lifecycle_events_total",
		Help:      "Number of account lifecycle events emitted, partitioned by event type.",
	}, []string{"event"})

	if err := reg.Register(events); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				events = existing
			} else {
				return nil, fmt.Errorf("existing lifecycle collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register lifecycle collector: %w", err)
		}
	}

	return &MeteredPublisher{next: next, events: events}, nil
}

// PublishAccountRegistered counts and forwards account.registered events.
func (p *MeteredPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	p.events.WithLabelValues("registered").Inc()
	return p.next.PublishAccountRegistered(ctx, event)
}

// PublishAccountConfirmed counts and forwards account.confirmed events.
func (p *MeteredPublisher) PublishAccountConfirmed(ctx context.Context, event domain.AccountConfirmedEvent) error {
	p.events.WithLabelValues("confirmed").Inc()
	return p.next.PublishAccountConfirmed(ctx, event)
}

// PublishGoogleLogin counts and forwards account.google_login events.
func (p *MeteredPublisher) PublishGoogleLogin(ctx context.Context, event domain.GoogleLoginEvent) error {
	p.events.WithLabelValues("google_login").Inc()
	return p.next.PublishGoogleLogin(ctx, event)
}

// PublishPasswordChanged counts and forwards account.password_changed events.
func (p *MeteredPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	p.events.WithLabelValues("password_changed").Inc()
	return p.next.PublishPasswordChanged(ctx, event)
}

// PublishTokensRevoked counts and forwards account.tokens_revoked events.
func (p *MeteredPublisher) PublishTokensRevoked(ctx context.Context, event domain.TokensRevokedEvent) error {
	p.events.WithLabelValues("tokens_revoked").Inc()
	return p.next.PublishTokensRevoked(ctx, event)
}

var _ port.EventPublisher = (*MeteredPublisher)(nil)
