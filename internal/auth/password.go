package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcrypt truncates passwords at 72 bytes; longer input is rejected instead.
	bcryptMaxPasswordBytes = 72
	minPasswordChars       = 8
)

// PasswordError is a validation failure that is safe to show to the user.
type PasswordError struct {
	msg string
}

func (e *PasswordError) Error() string { return e.msg }

func IsPasswordValidationError(err error) bool {
	var pe *PasswordError
	return errors.As(err, &pe)
}

// HashPassword validates plain and hashes it with bcrypt.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", &PasswordError{"password required"}
	}
	if utf8.RuneCountInString(plain) < minPasswordChars {
		return "", &PasswordError{fmt.Sprintf("password must be at least %d characters", minPasswordChars)}
	}
	if len(plain) > bcryptMaxPasswordBytes {
		return "", &PasswordError{fmt.Sprintf("password too long: at most %d bytes (UTF-8)", bcryptMaxPasswordBytes)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ComparePasswordHash(hash string, plain string) error {
	if plain == "" {
		return &PasswordError{"password required"}
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
