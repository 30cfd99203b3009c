package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", domain.ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// VerifyPassword reports whether plain matches hashed. A malformed hash
// never matches, and neither does input bcrypt would silently truncate.
func VerifyPassword(plain, hashed string) bool {
	if hashed == "" || len(plain) > MaxPasswordBytes {
		return false
	}
	return ComparePassword(hashed, plain) == nil
}
