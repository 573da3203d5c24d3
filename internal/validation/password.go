package validation

import (
	"errors"
	"strings"
)

// ValidatePassword validates password strength for new accounts
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	commonPatterns := []string{
		"password", "123456", "qwerty", "admin", "letmein",
		"welcome", "monkey", "dragon", "master", "sunshine",
	}

	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}

// ValidateUsername validates the login name chosen at registration
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)

	if len(trimmed) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(trimmed) > 64 {
		return errors.New("username is too long (max 64 characters)")
	}

	if strings.ContainsAny(trimmed, " \t\r\n") {
		return errors.New("username must not contain whitespace")
	}

	return nil
}
