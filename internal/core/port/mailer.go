package port

import "context"

// Mailer delivers the two transactional mails of the account lifecycle.
// Implementations own content and delivery; callers only provide the link.
type Mailer interface {
	SendAccountConfirmation(ctx context.Context, name, email, confirmURL string) error
	SendPasswordReset(ctx context.Context, name, email, resetURL string) error
}
