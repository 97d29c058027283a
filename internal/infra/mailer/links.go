package mailer

import "strings"

// Frontend routes the mails point at. They must correspond to the dedicated
// routes on the web app.
const (
	confirmPath        = "/auth/confirm/"
	changePasswordPath = "/auth/change-password/"
)

// ConfirmationURL builds the link embedded in confirmation mails.
func ConfirmationURL(frontendBase, token string) string {
	return strings.TrimSuffix(frontendBase, "/") + confirmPath + token
}

// ChangePasswordURL builds the link embedded in password-reset mails.
func ChangePasswordURL(frontendBase, token string) string {
	return strings.TrimSuffix(frontendBase, "/") + changePasswordPath + token
}
