package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/notesquared/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupUserTestRepository creates a user repository with a mock database
func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewUserRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		user          *models.User
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name: "success",
			user: &models.User{
				ID:           "user-id-123",
				Email:        "teacher@example.com",
				PasswordHash: "$2a$10$hash",
				FullName:     "Anna Keys",
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("user-id-123", "teacher@example.com", "$2a$10$hash", "Anna Keys", true).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedError: false,
		},
		{
			name: "duplicate email",
			user: &models.User{
				ID:           "user-id-123",
				Email:        "teacher@example.com",
				PasswordHash: "$2a$10$hash",
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("user-id-123", "teacher@example.com", "$2a$10$hash", "", true).
					WillReturnError(errors.New("Error 1062: Duplicate entry 'teacher@example.com' for key 'uq_users_email'"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.user)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.user.IsActive)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateGeneratesID(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "teacher@example.com", "$2a$10$hash", "", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "teacher@example.com", PasswordHash: "$2a$10$hash"}
	err := repo.Create(context.Background(), user)

	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		email         string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name:  "success",
			email: "teacher@example.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "is_active", "created_at", "updated_at"}).
					AddRow("user-id-123", "teacher@example.com", "$2a$10$hash", "Anna Keys", true, now, now)
				mock.ExpectQuery(`SELECT id, email, password_hash, full_name, is_active, created_at, updated_at`).
					WithArgs("teacher@example.com").
					WillReturnRows(rows)
			},
		},
		{
			name:  "not found",
			email: "nobody@example.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, email, password_hash, full_name, is_active, created_at, updated_at`).
					WithArgs("nobody@example.com").
					WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "is_active", "created_at", "updated_at"}))
			},
			expectedError: "user not found",
		},
		{
			name:  "null full name",
			email: "teacher@example.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "is_active", "created_at", "updated_at"}).
					AddRow("user-id-123", "teacher@example.com", "$2a$10$hash", nil, true, now, now)
				mock.ExpectQuery(`SELECT id, email, password_hash, full_name, is_active, created_at, updated_at`).
					WithArgs("teacher@example.com").
					WillReturnRows(rows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.GetByEmail(context.Background(), tt.email)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, "user-id-123", user.ID)
				assert.Equal(t, tt.email, user.Email)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	tests := []struct {
		name     string
		exists   bool
		expected bool
	}{
		{name: "exists", exists: true, expected: true},
		{name: "does not exist", exists: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			rows := sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists)
			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs("teacher@example.com").
				WillReturnRows(rows)

			exists, err := repo.ExistsByEmail(context.Background(), "teacher@example.com")

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, exists)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
