package models

import "strings"

const (
	// UsernameMinLen and UsernameMaxLen bound registration usernames.
	UsernameMinLen = 3
	UsernameMaxLen = 24

	// PasswordMinLen is the minimum accepted password length.
	PasswordMinLen = 6
)

// ValidateUsername enforces the registration username rules.
func ValidateUsername(username string) error {
	u := strings.TrimSpace(username)
	if u == "" {
		return ValidationError("username is required")
	}
	if len(u) < UsernameMinLen || len(u) > UsernameMaxLen {
		return ValidationError("username must be %d-%d characters", UsernameMinLen, UsernameMaxLen)
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(strings.TrimSpace(password)) < PasswordMinLen {
		return ValidationError("password must be at least %d characters", PasswordMinLen)
	}
	return nil
}

// ValidateMessageBody rejects bodies that trim to empty. The trimmed body
// is what gets persisted.
func ValidateMessageBody(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", ValidationError("message is required")
	}
	return trimmed, nil
}
