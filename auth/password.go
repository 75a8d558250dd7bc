package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength applies to employee passwords.
	MinPasswordLength = 8

	// MaxPasswordBytes is the most bcrypt will hash.
	MaxPasswordBytes = 72
)

// HashPassword returns the bcrypt hash of password. Passwords longer than
// MaxPasswordBytes are refused with ErrPasswordTooLong.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password against hash. A mismatch is
// ErrInvalidCredentials.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return nil
}

// ValidatePasswordStrength requires at least MinPasswordLength characters
// with an ASCII upper-case letter, an ASCII lower-case letter and a
// character outside [A-Za-z0-9]. Non-ASCII letters count as special.
func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}

	var upper, lower, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r < '0' || r > '9':
			special = true
		}
	}
	if !upper || !lower || !special {
		return ErrWeakPassword
	}
	return nil
}
