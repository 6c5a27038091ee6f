// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gurkanbulca/dailytasks/internal/models"
	"github.com/gurkanbulca/dailytasks/internal/repository"
	"github.com/gurkanbulca/dailytasks/pkg/auth"
)

// UserRepository is the storage the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (int64, error)
	FindCredentials(ctx context.Context, username string) (*repository.Credentials, error)
}

// LoginResult is a successful login. Token is empty unless the service issues
// session tokens.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users           UserRepository
	passwordManager *auth.PasswordManager
	tokenManager    *auth.TokenManager
	securityLogger  *SecurityLogger
}

// NewAuthService creates the authentication service. tokenManager may be nil,
// in which case logins carry no session token.
func NewAuthService(
	users UserRepository,
	passwordManager *auth.PasswordManager,
	tokenManager *auth.TokenManager,
	securityLogger *SecurityLogger,
) *AuthService {
	return &AuthService{
		users:           users,
		passwordManager: passwordManager,
		tokenManager:    tokenManager,
		securityLogger:  securityLogger,
	}
}

// Register creates a new user account and returns its id.
func (s *AuthService) Register(ctx context.Context, username, password string) (int64, error) {
	if err := auth.ValidateUsername(username); err != nil {
		return 0, invalid("username", trimPrefix(err, auth.ErrInvalidUsername))
	}

	// Hash password
	hashedPassword, err := s.passwordManager.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return 0, invalid("password", trimPrefix(err, auth.ErrWeakPassword))
		}
		return 0, fmt.Errorf("register: %w", err)
	}

	userID, err := s.users.Create(ctx, username, hashedPassword)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			s.securityLogger.LogRegistrationFailed(ctx, username, "username taken")
			return 0, fmt.Errorf("%w: username is already taken", ErrConflict)
		}
		return 0, storageError("create user", err)
	}

	s.securityLogger.LogUserRegistered(ctx, userID)
	return userID, nil
}

// Authenticate verifies the credentials and returns the user. Unknown users
// and wrong passwords fail identically, after the same amount of hashing work.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, invalid("", "username and password are required")
	}

	creds, err := s.users.FindCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.passwordManager.CompareDummy(password)
			s.securityLogger.LogLoginFailed(ctx, username, "user not found")
			return nil, ErrInvalidCredentials
		}
		return nil, storageError("find user", err)
	}

	// Verify password
	if err := s.passwordManager.ComparePassword(creds.PasswordHash, password); err != nil {
		s.securityLogger.LogLoginFailed(ctx, username, "wrong password")
		return nil, ErrInvalidCredentials
	}

	s.securityLogger.LogLoginSuccess(ctx, creds.ID)
	return &models.User{ID: creds.ID, Username: creds.Username}, nil
}

// Login authenticates and, when configured, issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{User: user}
	if s.tokenManager == nil {
		return result, nil
	}

	token, expiresAt, err := s.tokenManager.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	result.Token = token
	result.ExpiresAt = expiresAt
	return result, nil
}

// trimPrefix drops the sentinel's text from a wrapped error message.
func trimPrefix(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
