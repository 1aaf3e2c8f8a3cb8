package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/notesquared/backend/internal/auth/service"
	"github.com/notesquared/backend/internal/models"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user                *models.User
	err                 error
	existsByEmailResult bool
	existsByEmailError  error
	createdUser         *models.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.err != nil {
		return m.err
	}
	user.ID = "user-id-123"
	m.createdUser = user
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailError != nil {
		return false, m.existsByEmailError
	}
	return m.existsByEmailResult, nil
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	userID         string
	err            error
	updateTokenErr error
	deletedToken   string
	savedToken     string
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userID, token string) error {
	if m.err != nil {
		return m.err
	}
	m.savedToken = token
	return nil
}

func (m *mockUserTokenRepository) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.userID, nil
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken, userID string) error {
	return m.updateTokenErr
}

func (m *mockUserTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	m.deletedToken = token
	return m.err
}

func newTestTokenGenerator() *service.TokenGenerator {
	return service.NewTokenGenerator("test-secret", time.Hour, 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		req           *models.RegisterRequest
		userRepo      *mockUserRepository
		expectedError string
	}{
		{
			name:     "success",
			req:      &models.RegisterRequest{Email: "Teacher@Example.com", Password: "password123", FullName: "  Anna Keys  "},
			userRepo: &mockUserRepository{},
		},
		{
			name:          "invalid email",
			req:           &models.RegisterRequest{Email: "not-an-email", Password: "password123"},
			userRepo:      &mockUserRepository{},
			expectedError: "invalid email format",
		},
		{
			name:          "password too short",
			req:           &models.RegisterRequest{Email: "teacher@example.com", Password: "short"},
			userRepo:      &mockUserRepository{},
			expectedError: "password must be at least 8 characters long",
		},
		{
			name:          "email already exists",
			req:           &models.RegisterRequest{Email: "teacher@example.com", Password: "password123"},
			userRepo:      &mockUserRepository{existsByEmailResult: true},
			expectedError: "email already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenRepo := &mockUserTokenRepository{}
			svc := NewAuthService(tt.userRepo, tokenRepo, newTestTokenGenerator(), zap.NewNop())

			accessToken, refreshToken, err := svc.Register(context.Background(), tt.req)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Empty(t, accessToken)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, accessToken)
			assert.NotEmpty(t, refreshToken)
			assert.Equal(t, refreshToken, tokenRepo.savedToken)
			require.NotNil(t, tt.userRepo.createdUser)
			assert.Equal(t, "teacher@example.com", tt.userRepo.createdUser.Email)
			assert.Equal(t, "Anna Keys", tt.userRepo.createdUser.FullName)
			assert.NotEqual(t, "password123", tt.userRepo.createdUser.PasswordHash)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	activeUser := &models.User{
		ID:           "user-id-123",
		Email:        "teacher@example.com",
		PasswordHash: string(passwordHash),
		IsActive:     true,
	}

	tests := []struct {
		name          string
		req           *models.LoginRequest
		userRepo      *mockUserRepository
		expectedError string
	}{
		{
			name:     "success",
			req:      &models.LoginRequest{Email: "Teacher@Example.com", Password: "password123"},
			userRepo: &mockUserRepository{user: activeUser},
		},
		{
			name:          "empty email",
			req:           &models.LoginRequest{Password: "password123"},
			userRepo:      &mockUserRepository{},
			expectedError: "email cannot be empty",
		},
		{
			name:          "unknown user",
			req:           &models.LoginRequest{Email: "teacher@example.com", Password: "password123"},
			userRepo:      &mockUserRepository{err: errors.New("user not found")},
			expectedError: "invalid credentials",
		},
		{
			name: "inactive user",
			req:  &models.LoginRequest{Email: "teacher@example.com", Password: "password123"},
			userRepo: &mockUserRepository{user: &models.User{
				ID:           "user-id-123",
				PasswordHash: string(passwordHash),
				IsActive:     false,
			}},
			expectedError: "invalid credentials",
		},
		{
			name:          "wrong password",
			req:           &models.LoginRequest{Email: "teacher@example.com", Password: "wrong-password"},
			userRepo:      &mockUserRepository{user: activeUser},
			expectedError: "invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenRepo := &mockUserTokenRepository{}
			svc := NewAuthService(tt.userRepo, tokenRepo, newTestTokenGenerator(), zap.NewNop())

			accessToken, refreshToken, err := svc.Login(context.Background(), tt.req)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Empty(t, accessToken)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, accessToken)
			assert.NotEmpty(t, refreshToken)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	tokenGen := newTestTokenGenerator()
	_, validRefreshToken, err := tokenGen.GenerateTokens("user-id-123")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		tokenRepo := &mockUserTokenRepository{userID: "user-id-123"}
		svc := NewAuthService(&mockUserRepository{}, tokenRepo, tokenGen, zap.NewNop())

		accessToken, refreshToken, err := svc.Refresh(context.Background(), validRefreshToken)

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotEqual(t, validRefreshToken, refreshToken)
	})

	t.Run("garbage token is rejected and purged", func(t *testing.T) {
		tokenRepo := &mockUserTokenRepository{}
		svc := NewAuthService(&mockUserRepository{}, tokenRepo, tokenGen, zap.NewNop())

		_, _, err := svc.Refresh(context.Background(), "garbage")

		assert.EqualError(t, err, "invalid or expired refresh token")
		assert.Equal(t, "garbage", tokenRepo.deletedToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		tokenRepo := &mockUserTokenRepository{err: errors.New("token not found")}
		svc := NewAuthService(&mockUserRepository{}, tokenRepo, tokenGen, zap.NewNop())

		_, _, err := svc.Refresh(context.Background(), validRefreshToken)

		assert.EqualError(t, err, "invalid or expired refresh token")
	})

	t.Run("access token cannot be used as refresh token", func(t *testing.T) {
		accessToken, _, err := tokenGen.GenerateTokens("user-id-123")
		require.NoError(t, err)

		tokenRepo := &mockUserTokenRepository{userID: "user-id-123"}
		svc := NewAuthService(&mockUserRepository{}, tokenRepo, tokenGen, zap.NewNop())

		_, _, err = svc.Refresh(context.Background(), accessToken)

		assert.EqualError(t, err, "invalid or expired refresh token")
	})
}

func TestAuthService_Logout(t *testing.T) {
	tokenRepo := &mockUserTokenRepository{}
	svc := NewAuthService(&mockUserRepository{}, tokenRepo, newTestTokenGenerator(), zap.NewNop())

	err := svc.Logout(context.Background(), "  some-refresh-token  ")

	assert.NoError(t, err)
	assert.Equal(t, "some-refresh-token", tokenRepo.deletedToken)
}

func TestAuthService_GetUser(t *testing.T) {
	user := &models.User{ID: "user-id-123", Email: "teacher@example.com"}
	svc := NewAuthService(&mockUserRepository{user: user}, &mockUserTokenRepository{}, newTestTokenGenerator(), zap.NewNop())

	got, err := svc.GetUser(context.Background(), "user-id-123")

	assert.NoError(t, err)
	assert.Equal(t, user, got)
}
