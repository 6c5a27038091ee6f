// pkg/auth/password.go
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword    = errors.New("password does not meet requirements")
	ErrInvalidUsername = errors.New("invalid username")
)

const maxPasswordBytes = 72

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)

// PasswordPolicy configures hashing cost and strength rules.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireNumber bool
	Cost          int
}

// DefaultPasswordPolicy only enforces the minimum length.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength: 8,
		Cost:      bcrypt.DefaultCost,
	}
}

// PasswordManager handles password hashing and validation
type PasswordManager struct {
	minLength     int
	requireUpper  bool
	requireLower  bool
	requireNumber bool
	cost          int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewPasswordManager creates a password manager for policy. A minimum length
// below 8 is raised to 8.
func NewPasswordManager(policy PasswordPolicy) *PasswordManager {
	if policy.MinLength < 8 {
		policy.MinLength = 8
	}
	if policy.Cost < bcrypt.MinCost || policy.Cost > bcrypt.MaxCost {
		policy.Cost = bcrypt.DefaultCost
	}
	return &PasswordManager{
		minLength:     policy.MinLength,
		requireUpper:  policy.RequireUpper,
		requireLower:  policy.RequireLower,
		requireNumber: policy.RequireNumber,
		cost:          policy.Cost,
	}
}

// HashPassword hashes a password using bcrypt
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	// Validate password strength
	if err := pm.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// ComparePassword compares a password with a hash
func (pm *PasswordManager) ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CompareDummy spends one bcrypt comparison against a fixed hash. Use it when
// there is no stored hash to compare with, so that the caller takes as long
// as a real comparison. It always reports a mismatch.
func (pm *PasswordManager) CompareDummy(password string) error {
	pm.dummyOnce.Do(func() {
		pm.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), pm.cost)
	})
	_ = bcrypt.CompareHashAndPassword(pm.dummyHash, []byte(password))
	return bcrypt.ErrMismatchedHashAndPassword
}

// ValidatePassword checks if a password meets the requirements
func (pm *PasswordManager) ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < pm.minLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrWeakPassword, pm.minLength)
	}
	// bcrypt only accepts the first 72 bytes.
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: maximum length is %d bytes", ErrWeakPassword, maxPasswordBytes)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if pm.requireUpper && !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}
	if pm.requireLower && !hasLower {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	}
	if pm.requireNumber && !hasNumber {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}

	return nil
}

// ValidateUsername validates a username
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("%w: must be at least 3 characters", ErrInvalidUsername)
	}

	if len(username) > 50 {
		return fmt.Errorf("%w: must not exceed 50 characters", ErrInvalidUsername)
	}

	// Username can contain letters, numbers, dot, underscore, and hyphen
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: only letters, numbers, dot, underscore, and hyphen are allowed", ErrInvalidUsername)
	}

	return nil
}
