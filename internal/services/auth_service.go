package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/notesquared/backend/internal/auth/service"
	"github.com/notesquared/backend/internal/models"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user.
	//
	// If some error occurs during user creation, the error will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email.
	//
	// "email" parameter is used to retrieve a user by email.
	//
	// If user with such email does not exist, the error will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// "userID" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// "email" parameter is used to check if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// UserTokenRepository is the interface that wraps methods for UserToken table data access
type UserTokenRepository interface {
	// Method Create inserts a new refresh token into the database.
	//
	// "userID" parameter is the owner of the token.
	// "token" parameter is the refresh token string.
	//
	// If some error occurs during token creation, the error will be returned.
	Create(ctx context.Context, userID, token string) error
	// Method GetUserIDByToken retrieves the owner of a refresh token.
	//
	// "token" parameter is used to retrieve the owner of a refresh token.
	//
	// If token does not exist, the error will be returned together with an empty string.
	GetUserIDByToken(ctx context.Context, token string) (string, error)
	// Method UpdateToken replaces an old refresh token with a new one.
	//
	// "oldToken" parameter is the token being replaced.
	// "newToken" parameter is the replacement token.
	// "userID" parameter is the owner of the token.
	//
	// If some error occurs during token update, the error will be returned.
	UpdateToken(ctx context.Context, oldToken, newToken, userID string) error
	// Method DeleteByToken deletes a refresh token by token string.
	//
	// "token" parameter is used to delete a refresh token by token string.
	//
	// If some error occurs during token deletion, the error will be returned.
	DeleteByToken(ctx context.Context, token string) error
}

// authService implements authentication for teacher accounts
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator *service.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	tokenGenerator *service.TokenGenerator,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 8

// Register creates a new teacher account
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (string, string, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(req.Email))
	if !emailRegex.MatchString(normalizedEmail) {
		return "", "", fmt.Errorf("invalid email format")
	}

	if len(req.Password) < minPasswordLength {
		return "", "", fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}

	emailExists, err := s.userRepo.ExistsByEmail(ctx, normalizedEmail)
	if err != nil {
		return "", "", fmt.Errorf("failed to check email: %w", err)
	}
	if emailExists {
		return "", "", fmt.Errorf("email already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	user := &models.User{
		Email:        normalizedEmail,
		PasswordHash: string(passwordHash),
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", "", err
	}

	return s.generateAndSaveTokens(ctx, user.ID)
}

// Login authenticates a teacher
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return "", "", fmt.Errorf("email cannot be empty")
	}
	if req.Password == "" {
		return "", "", fmt.Errorf("password cannot be empty")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the account exists
		return "", "", fmt.Errorf("invalid credentials")
	}

	if !user.IsActive {
		return "", "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", "", fmt.Errorf("invalid credentials")
	}

	return s.generateAndSaveTokens(ctx, user.ID)
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)

	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		// Expired tokens are also purged from the database
		s.userTokenRepo.DeleteByToken(ctx, refreshToken)
		return "", "", fmt.Errorf("invalid or expired refresh token")
	}

	userID, err := s.userTokenRepo.GetUserIDByToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid or expired refresh token")
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, userID); err != nil {
		return "", "", err
	}

	return accessToken, newRefreshToken, nil
}

// Logout revokes a refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.userTokenRepo.DeleteByToken(ctx, strings.TrimSpace(refreshToken))
}

// GetUser retrieves the authenticated teacher's profile
func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// generateAndSaveTokens issues a token pair and persists the refresh token
func (s *authService) generateAndSaveTokens(ctx context.Context, userID string) (string, string, error) {
	accessToken, refreshToken, err := s.tokenGenerator.GenerateTokens(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.Create(ctx, userID, refreshToken); err != nil {
		return "", "", fmt.Errorf("failed to save refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}
