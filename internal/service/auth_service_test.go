package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurkanbulca/dailytasks/internal/database/dbtest"
	"github.com/gurkanbulca/dailytasks/internal/repository"
	"github.com/gurkanbulca/dailytasks/pkg/auth"
)

func testPasswordManager() *auth.PasswordManager {
	policy := auth.DefaultPasswordPolicy()
	policy.Cost = bcrypt.MinCost
	return auth.NewPasswordManager(policy)
}

func newAuthService(t *testing.T, tokens *auth.TokenManager) *AuthService {
	t.Helper()
	db := dbtest.Open(t)
	logger, _ := quietLogger()
	return NewAuthService(repository.NewUserRepository(db), testPasswordManager(), tokens, logger)
}

// failingUsers simulates a storage outage.
type failingUsers struct{ err error }

func (f failingUsers) Create(context.Context, string, string) (int64, error) { return 0, f.err }
func (f failingUsers) FindCredentials(context.Context, string) (*repository.Credentials, error) {
	return nil, f.err
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		username  string
		password  string
		setupFunc func(*AuthService)
		wantErr   error
		field     string
	}{
		{name: "successful registration", username: "testuser", password: "password123"},
		{name: "short password", username: "testuser", password: "short", wantErr: ErrValidation, field: "password"},
		{name: "password longer than bcrypt accepts", username: "testuser", password: strings.Repeat("a", 80), wantErr: ErrValidation, field: "password"},
		{name: "short username", username: "ab", password: "password123", wantErr: ErrValidation, field: "username"},
		{name: "username with spaces", username: "test user", password: "password123", wantErr: ErrValidation, field: "username"},
		{name: "username too long", username: strings.Repeat("u", 51), password: "password123", wantErr: ErrValidation, field: "username"},
		{
			name:     "username taken",
			username: "testuser",
			password: "password123",
			setupFunc: func(s *AuthService) {
				_, err := s.Register(ctx, "testuser", "password456")
				require.NoError(t, err)
			},
			wantErr: ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAuthService(t, nil)
			if tt.setupFunc != nil {
				tt.setupFunc(svc)
			}

			id, err := svc.Register(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.field != "" {
					var verr *ValidationError
					require.ErrorAs(t, err, &verr)
					assert.Equal(t, tt.field, verr.Field)
				}
				return
			}
			require.NoError(t, err)
			assert.Positive(t, id)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t, nil)

	id, err := svc.Register(ctx, "testuser", "password123")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "testuser", user.Username)

	_, wrongPassword := svc.Authenticate(ctx, "testuser", "wrong")
	_, unknownUser := svc.Authenticate(ctx, "nouser", "whatever")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	_, err = svc.Authenticate(ctx, "", "password123")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_StorageFailure(t *testing.T) {
	ctx := context.Background()
	logger, _ := quietLogger()
	svc := NewAuthService(failingUsers{err: errors.New("connection reset")}, testPasswordManager(), nil, logger)

	_, err := svc.Authenticate(ctx, "testuser", "password123")
	assert.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, "testuser", "password123")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("without session tokens", func(t *testing.T) {
		svc := newAuthService(t, nil)
		_, err := svc.Register(ctx, "testuser", "password123")
		require.NoError(t, err)

		result, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)
		assert.Equal(t, "testuser", result.User.Username)
		assert.Empty(t, result.Token)
	})

	t.Run("with session tokens", func(t *testing.T) {
		tokens := auth.NewTokenManager("secret", time.Hour)
		svc := newAuthService(t, tokens)
		id, err := svc.Register(ctx, "testuser", "password123")
		require.NoError(t, err)

		result, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)
		require.NotEmpty(t, result.Token)
		assert.True(t, result.ExpiresAt.After(time.Now()))

		claims, err := tokens.Validate(result.Token)
		require.NoError(t, err)
		subject, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, id, subject)
	})

	t.Run("bad credentials issue nothing", func(t *testing.T) {
		svc := newAuthService(t, auth.NewTokenManager("secret", time.Hour))
		result, err := svc.Login(ctx, "nouser", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, result)
	})
}
