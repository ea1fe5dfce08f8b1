// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxNameLength    = 255
	maxEmailLength   = 254
)

var validate = validator.New()

// emailRules rejects a trailing dot, which the email tag alone accepts.
var emailRules = fmt.Sprintf("required,max=%d,email,endsnotwith=.", maxEmailLength)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordBytes)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

// ValidateName checks the display name ("nome").
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return fmt.Errorf("name must not exceed %d characters", maxNameLength)
	}
	return nil
}

// ValidateEmail checks the address format and length.
func ValidateEmail(email string) error {
	err := validate.Var(email, emailRules)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "max" {
		return fmt.Errorf("email must not exceed %d characters", maxEmailLength)
	}
	return fmt.Errorf("invalid email format")
}

// NormalizeEmail trims and lowercases an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
