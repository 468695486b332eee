package validation

import (
	"errors"
	"strings"
)

var commonPatterns = []string{
	"password", "12345678", "qwerty", "letmein", "iloveyou",
	"welcome", "monkey", "dragon", "sunshine",
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	// bcrypt only uses the first 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
