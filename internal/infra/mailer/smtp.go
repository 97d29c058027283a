package mailer

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/logger"
)

// SMTPMailer delivers the lifecycle mails over SMTP.
type SMTPMailer struct {
	client *mail.Client
	from   string
	log    *zap.Logger
}

// NewSMTPMailer dials nothing up front; the connection is established per
// send.
func NewSMTPMailer(cfg config.MailSettings, log *zap.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From, log: log}, nil
}

// SendAccountConfirmation mails the account confirmation link.
func (m *SMTPMailer) SendAccountConfirmation(ctx context.Context, name, email, confirmURL string) error {
	content := emailContent{
		subject: "Confirm your email address",
		body:    "Thanks for creating an account. Please verify your email address by following the link below.",
		link:    confirmURL,
	}
	return m.send(ctx, name, email, content)
}

// SendPasswordReset mails the password change link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, name, email, resetURL string) error {
	content := emailContent{
		subject: "Change your password",
		body:    "In order to update your password, please follow the link below.",
		link:    resetURL,
	}
	return m.send(ctx, name, email, content)
}

type emailContent struct {
	subject string
	body    string
	link    string
}

func (m *SMTPMailer) send(ctx context.Context, name, email string, content emailContent) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set mail sender: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("set mail recipient: %w", err)
	}

	msg.Subject("[SOS-Tag] " + content.subject)
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\n%s\n\n%s\n\nSOS-Tag team\n",
		name, content.body, content.link,
	))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.log.Info("mail sent",
		zap.String("to", logger.MaskEmail(email)),
		zap.String("subject", content.subject),
	)

	return nil
}

var _ port.Mailer = (*SMTPMailer)(nil)
