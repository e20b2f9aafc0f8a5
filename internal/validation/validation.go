// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername checks length and charset of a username.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 80 {
		return fmt.Errorf("username must not exceed 80 characters")
	}
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username may only contain letters, digits, '_', '.' and '-'")
	}
	return nil
}

// ValidateEmail checks the general shape of an email address.
// Real deliverability checks belong to a mail layer, not here.
func ValidateEmail(email string) error {
	if len(email) > 120 {
		return fmt.Errorf("email must not exceed 120 characters")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword checks password length bounds.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}
	return nil
}
