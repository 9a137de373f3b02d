// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/estyshop/ecommerce-backend/internal/config"
)

// repeatedRun reports whether s contains four or more of the same
// character in a row. (Go's regexp has no backreferences, so the
// equivalent `(.)\1{3,}` pattern cannot be compiled.)
func repeatedRun(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= 4 {
			return true
		}
	}
	return false
}

// commonPasswords are rejected as case-insensitive substrings.
var commonPasswords = []string{
	"password", "12345678", "qwerty", "letmein", "welcome",
}

// WeakPasswordError reports a password policy violation. Its message is
// safe to show to the client.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return e.Reason
}

// PasswordManager hashes and checks account passwords with the bcrypt
// cost taken from configuration.
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{config: cfg}
}

// HashPassword checks the password against the policy and returns its
// bcrypt hash.
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.config.Security.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword compares a candidate password against a stored hash.
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword enforces the password policy: 8 to 128 characters,
// no runs of four identical characters, nothing from the common list.
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < 8 {
		return &WeakPasswordError{Reason: "password must be at least 8 characters long"}
	}
	if len(password) > 128 {
		return &WeakPasswordError{Reason: "password must be no more than 128 characters long"}
	}
	if repeatedRun(password) {
		return &WeakPasswordError{Reason: "password cannot repeat the same character more than 3 times in a row"}
	}

	lowered := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lowered, common) {
			return &WeakPasswordError{Reason: "password is too common and easily guessable"}
		}
	}

	return nil
}
