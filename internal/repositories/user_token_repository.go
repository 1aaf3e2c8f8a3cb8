package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// userTokenRepository stores issued refresh tokens
type userTokenRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserTokenRepository creates a new user token repository
func NewUserTokenRepository(db *sql.DB, logger *zap.Logger) *userTokenRepository {
	return &userTokenRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new refresh token for a user
func (r *userTokenRepository) Create(ctx context.Context, userID, token string) error {
	query := `INSERT INTO user_tokens (user_id, token) VALUES (?, ?)`

	_, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		r.logger.Error("failed to create user token", zap.Error(err))
		return fmt.Errorf("failed to create user token: %w", err)
	}

	return nil
}

// GetUserIDByToken retrieves the owning user ID for a refresh token
func (r *userTokenRepository) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	query := `SELECT user_id FROM user_tokens WHERE token = ? LIMIT 1`

	var userID string
	err := r.db.QueryRowContext(ctx, query, token).Scan(&userID)

	if err == sql.ErrNoRows {
		return "", fmt.Errorf("user token not found")
	}
	if err != nil {
		r.logger.Error("failed to get user token", zap.Error(err))
		return "", fmt.Errorf("failed to get user token: %w", err)
	}

	return userID, nil
}

// UpdateToken replaces an old refresh token with a new one for a user
func (r *userTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken, userID string) error {
	query := `UPDATE user_tokens SET token = ? WHERE token = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query, newToken, oldToken, userID)
	if err != nil {
		r.logger.Error("failed to update user token", zap.Error(err))
		return fmt.Errorf("failed to update user token: %w", err)
	}

	return nil
}

// DeleteByToken deletes a refresh token
func (r *userTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM user_tokens WHERE token = ?`

	_, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		r.logger.Error("failed to delete user token", zap.Error(err))
		return fmt.Errorf("failed to delete user token: %w", err)
	}

	return nil
}
