package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex = regexp.MustCompile(`^0[1-9][0-9]{8}$`)
)

const (
	emailInvalidDetail    = "The email format is invalid."
	phoneInvalidDetail    = "The phone must be a 10-digit French number starting with 0."
	passwordInvalidDetail = "The password must contain at least 8 characters, including at least one uppercase letter, one lowercase letter, one digit and one special character."
)

// fieldValue pairs an input field name with its raw value, in declaration
// order, so validation output is deterministic.
type fieldValue struct {
	name  string
	value string
}

// fieldValidators is the explicit lookup table of format validators. A field
// listed here gets a format check after the emptiness check; each validator
// returns the detail text of the violation, or "" when the value is valid.
var fieldValidators = map[string]func(string) string{
	"email":    validateEmail,
	"phone":    validatePhone,
	"password": validatePassword,
}

func validateEmail(input string) string {
	if !emailRegex.MatchString(input) {
		return emailInvalidDetail
	}
	return ""
}

func validatePhone(input string) string {
	if !phoneRegex.MatchString(input) {
		return phoneInvalidDetail
	}
	return ""
}

func validatePassword(input string) string {
	var upper, lower, digit, special bool
	for _, r := range input {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if len(input) < 8 || !upper || !lower || !digit || !special {
		return passwordInvalidDetail
	}
	return ""
}

// checkEmptyFields runs only the emptiness check, for operations that accept
// any non-blank value.
func checkEmptyFields(fields []fieldValue) []apperror.FieldError {
	var errs []apperror.FieldError
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, apperror.FieldError{
				Type:   apperror.FieldEmpty,
				Name:   f.name,
				Detail: fmt.Sprintf("The %s is required.", f.name),
			})
		}
	}
	return errs
}

// checkFields validates each field in order: emptiness first, then the format
// validator registered for the field name, if any. One entry is produced per
// offending field.
func checkFields(fields []fieldValue) []apperror.FieldError {
	var errs []apperror.FieldError
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, apperror.FieldError{
				Type:   apperror.FieldEmpty,
				Name:   f.name,
				Detail: fmt.Sprintf("The %s is required.", f.name),
			})
			continue
		}
		validate, ok := fieldValidators[f.name]
		if !ok {
			continue
		}
		if detail := validate(f.value); detail != "" {
			errs = append(errs, apperror.FieldError{
				Type:   apperror.FieldInvalid,
				Name:   f.name,
				Detail: detail,
			})
		}
	}
	return errs
}
