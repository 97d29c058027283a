package domain

import "time"

// AccountRegisteredEvent represents the payload for sostag.account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	RegisteredAt time.Time
	Method       string
}

// AccountConfirmedEvent represents the payload for sostag.account.confirmed messages.
type AccountConfirmedEvent struct {
	EventID     string
	AccountID   string
	ConfirmedAt time.Time
}

// GoogleLoginEvent represents the payload for sostag.account.google_login messages.
type GoogleLoginEvent struct {
	EventID    string
	AccountID  string
	Email      string
	LoggedInAt time.Time
}

// PasswordChangedEvent represents the payload for sostag.account.password_changed messages.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Method    string
}

// TokensRevokedEvent represents the payload for sostag.account.tokens_revoked messages.
type TokensRevokedEvent struct {
	EventID      string
	AccountID    string
	TokenVersion int
	RevokedAt    time.Time
}
