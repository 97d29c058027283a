// Package apperror defines the single error envelope returned by every
// operation. Expected business failures are values of *Error; anything else
// reaching the transport layer is converted to the generic internal envelope.
package apperror

import (
	"errors"
	"fmt"
	"time"
)

// Machine-readable error types. Clients branch on these, never on Message.
const (
	TypeAccountLinkExpired           = "ACCOUNT_LINK_EXPIRED"
	TypeAccountNotFound              = "ACCOUNT_NOT_FOUND"
	TypeBadLoginMethod               = "BAD_LOGIN_METHOD"
	TypeChangePasswordValidation     = "CHANGE_PASSWORD_VALIDATION_ERROR"
	TypeConfirmationValidation       = "CONFIRMATION_VALIDATION_ERROR"
	TypeEmailAlreadyExists           = "EMAIL_ALREADY_EXISTS"
	TypeForgotPasswordValidation     = "FORGOT_PASSWORD_VALIDATION_ERROR"
	TypeGoogleLoginValidation        = "GOOGLE_LOGIN_VALIDATION_ERROR"
	TypeIncorrectPassword            = "INCORRECT_PASSWORD"
	TypeInternal                     = "INTERNAL_SERVER_ERROR"
	TypeLoginValidation              = "LOGIN_VALIDATION_ERROR"
	TypePasswordLinkExpired          = "PASSWORD_LINK_EXPIRED"
	TypeRegistrationValidation       = "REGISTRATION_VALIDATION_ERROR"
	TypeResendConfirmationValidation = "RESEND_CONFIRMATION_VALIDATION_ERROR"
	TypeTooManyRequests              = "TOO_MANY_REQUESTS"
	TypeUnauthenticated              = "UNAUTHENTICATED"
	TypeUnauthorized                 = "UNAUTHORIZED"
	TypeUnconfirmedAccount           = "UNCONFIRMED_ACCOUNT"
	TypeUpdateValidation             = "UPDATE_VALIDATION_ERROR"
	TypeUserNotFound                 = "USER_NOT_FOUND"
)

// Field error types.
const (
	FieldEmpty   = "EMPTY"
	FieldInvalid = "INVALID"
)

// FieldError pinpoints a single offending input field.
type FieldError struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// Error is the uniform envelope for expected failures.
type Error struct {
	Type      string       `json:"type"`
	Code      int          `json:"code"`
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Fields    []FieldError `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Type, e.Code, e.Message)
}

func newError(typ string, code int, title, message string) *Error {
	return &Error{
		Type:      typ,
		Code:      code,
		Title:     title,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewBadRequest builds a 400 envelope with per-field diagnostics.
func NewBadRequest(typ, message string, fields []FieldError) *Error {
	err := newError(typ, 400, "Bad request", message)
	err.Fields = fields
	return err
}

// NewUnauthorized builds a 401 envelope (used for both authentication and
// authorization failures, with distinct types).
func NewUnauthorized(typ, message string) *Error {
	return newError(typ, 401, "Unauthorized", message)
}

// NewForbidden builds a 403 envelope.
func NewForbidden(typ, message string) *Error {
	return newError(typ, 403, "Forbidden", message)
}

// NewNotFound builds a 404 envelope.
func NewNotFound(typ, message string) *Error {
	return newError(typ, 404, "Not found", message)
}

// NewConflict builds a 409 envelope.
func NewConflict(typ, message string) *Error {
	return newError(typ, 409, "Conflict", message)
}

// NewGone builds a 410 envelope.
func NewGone(typ, message string) *Error {
	return newError(typ, 410, "Gone", message)
}

// NewTooManyRequests builds a 429 envelope.
func NewTooManyRequests(message string) *Error {
	return newError(TypeTooManyRequests, 429, "Too Many Requests", message)
}

// NewInternal builds the generic 500 envelope used for unexpected failures.
func NewInternal() *Error {
	return newError(TypeInternal, 500, "Internal Server Error",
		"The server encountered an unexpected condition that prevented it from fulfilling the request.")
}

// As extracts the typed envelope from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
