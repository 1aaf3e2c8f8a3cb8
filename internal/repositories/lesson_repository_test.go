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

// setupLessonTestRepository creates a lesson repository with a mock database
func setupLessonTestRepository(t *testing.T) (*lessonRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewLessonRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var lessonRowColumns = []string{
	"id", "owner_id", "student_id", "lesson_date", "status", "duration_seconds",
	"audio_url", "transcript", "extraction", "error_message", "created_at", "updated_at",
}

func TestLessonRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupLessonTestRepository(t)
	defer cleanup()

	lessonDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO lessons`).
		WithArgs(sqlmock.AnyArg(), "owner-1", "student-1", "2026-08-30", models.StatusCreated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lesson := &models.Lesson{
		OwnerID:    "owner-1",
		StudentID:  "student-1",
		LessonDate: lessonDate,
	}
	err := repo.Create(context.Background(), lesson)

	assert.NoError(t, err)
	assert.NotEmpty(t, lesson.ID)
	assert.Equal(t, models.StatusCreated, lesson.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_GetByID(t *testing.T) {
	now := time.Now()
	lessonDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(append(lessonRowColumns, "full_name")).
					AddRow("lesson-1", "owner-1", "student-1", lessonDate, models.StatusCompleted,
						1800, "lesson-1.mp3", "transcript text", `{"skills":[]}`, nil, now, now, "Mia Chen")
				mock.ExpectQuery(`SELECT (.+) FROM lessons l`).
					WithArgs("lesson-1", "owner-1").
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM lessons l`).
					WithArgs("lesson-1", "owner-1").
					WillReturnRows(sqlmock.NewRows(append(lessonRowColumns, "full_name")))
			},
			expectedError: "lesson not found",
		},
		{
			name: "nullable columns",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(append(lessonRowColumns, "full_name")).
					AddRow("lesson-1", "owner-1", "student-1", lessonDate, models.StatusCreated,
						nil, nil, nil, nil, nil, now, now, "Mia Chen")
				mock.ExpectQuery(`SELECT (.+) FROM lessons l`).
					WithArgs("lesson-1", "owner-1").
					WillReturnRows(rows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupLessonTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			item, err := repo.GetByID(context.Background(), "lesson-1", "owner-1")

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Nil(t, item)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, item)
				assert.Equal(t, "lesson-1", item.Lesson.ID)
				assert.Equal(t, "Mia Chen", item.StudentName)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLessonRepository_GetForProcessing(t *testing.T) {
	repo, mock, cleanup := setupLessonTestRepository(t)
	defer cleanup()

	now := time.Now()
	lessonDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(append(lessonRowColumns, "full_name", "instrument")).
		AddRow("lesson-1", "owner-1", "student-1", lessonDate, models.StatusUploaded,
			nil, "lesson-1.mp3", nil, nil, nil, now, now, "Mia Chen", "Piano")
	mock.ExpectQuery(`SELECT (.+) FROM lessons l`).
		WithArgs("lesson-1").
		WillReturnRows(rows)

	lesson, studentName, instrument, err := repo.GetForProcessing(context.Background(), "lesson-1")

	assert.NoError(t, err)
	require.NotNil(t, lesson)
	assert.Equal(t, models.StatusUploaded, lesson.Status)
	assert.Equal(t, "lesson-1.mp3", lesson.AudioURL)
	assert.Equal(t, "Mia Chen", studentName)
	assert.Equal(t, "Piano", instrument)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_GetAllByOwner(t *testing.T) {
	tests := []struct {
		name      string
		studentID string
		setupMock func(sqlmock.Sqlmock)
		expected  int
	}{
		{
			name: "all lessons",
			setupMock: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				lessonDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
				rows := sqlmock.NewRows(append(lessonRowColumns, "full_name")).
					AddRow("lesson-1", "owner-1", "student-1", lessonDate, models.StatusCompleted,
						nil, "lesson-1.mp3", nil, nil, nil, now, now, "Mia Chen").
					AddRow("lesson-2", "owner-1", "student-2", lessonDate, models.StatusCreated,
						nil, nil, nil, nil, nil, now, now, "Leo Park")
				mock.ExpectQuery(`SELECT (.+) FROM lessons l`).
					WithArgs("owner-1").
					WillReturnRows(rows)
			},
			expected: 2,
		},
		{
			name:      "filtered by student",
			studentID: "student-1",
			setupMock: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				lessonDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
				rows := sqlmock.NewRows(append(lessonRowColumns, "full_name")).
					AddRow("lesson-1", "owner-1", "student-1", lessonDate, models.StatusCompleted,
						nil, "lesson-1.mp3", nil, nil, nil, now, now, "Mia Chen")
				mock.ExpectQuery(`SELECT (.+) FROM lessons l`).
					WithArgs("owner-1", "student-1").
					WillReturnRows(rows)
			},
			expected: 1,
		},
		{
			name: "empty result",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM lessons l`).
					WithArgs("owner-1").
					WillReturnRows(sqlmock.NewRows(append(lessonRowColumns, "full_name")))
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupLessonTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			items, err := repo.GetAllByOwner(context.Background(), "owner-1", tt.studentID)

			assert.NoError(t, err)
			assert.Len(t, items, tt.expected)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLessonRepository_GetStatus(t *testing.T) {
	repo, mock, cleanup := setupLessonTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "status", "error_message"}).
		AddRow("lesson-1", models.StatusFailed, "transcription failed")
	mock.ExpectQuery(`SELECT id, status, error_message`).
		WithArgs("lesson-1", "owner-1").
		WillReturnRows(rows)

	status, err := repo.GetStatus(context.Background(), "lesson-1", "owner-1")

	assert.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.StatusFailed, status.Status)
	assert.Equal(t, "transcription failed", status.ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_SetUploaded(t *testing.T) {
	tests := []struct {
		name            string
		durationSeconds int
		setupMock       func(sqlmock.Sqlmock)
	}{
		{
			name:            "with duration",
			durationSeconds: 1800,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE lessons`).
					WithArgs("lesson-1.mp3", sqlmock.AnyArg(), models.StatusUploaded, "lesson-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:            "zero duration stored as null",
			durationSeconds: 0,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE lessons`).
					WithArgs("lesson-1.mp3", sqlmock.AnyArg(), models.StatusUploaded, "lesson-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupLessonTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.SetUploaded(context.Background(), "lesson-1", "lesson-1.mp3", tt.durationSeconds)

			assert.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLessonRepository_UpdateStatus(t *testing.T) {
	repo, mock, cleanup := setupLessonTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE lessons SET status`).
		WithArgs(models.StatusTranscribing, "lesson-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "lesson-1", models.StatusTranscribing)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_MarkFailed(t *testing.T) {
	repo, mock, cleanup := setupLessonTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE lessons SET status`).
		WithArgs(models.StatusFailed, "transcription failed: timeout", "lesson-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), "lesson-1", "transcription failed: timeout")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_DeleteStale(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expected      int64
		expectedError bool
	}{
		{
			name: "deletes stale lessons",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM lessons`).
					WithArgs(models.StatusCreated, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 3))
			},
			expected: 3,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM lessons`).
					WithArgs(models.StatusCreated, sqlmock.AnyArg()).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupLessonTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			affected, err := repo.DeleteStale(context.Background(), time.Now().Add(-24*time.Hour))

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, affected)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLessonRepository_GetAudioFilenames(t *testing.T) {
	repo, mock, cleanup := setupLessonTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"audio_url"}).
		AddRow("lesson-1.mp3").
		AddRow("lesson-2.m4a")
	mock.ExpectQuery(`SELECT audio_url FROM lessons`).
		WillReturnRows(rows)

	filenames, err := repo.GetAudioFilenames(context.Background())

	assert.NoError(t, err)
	assert.Len(t, filenames, 2)
	assert.Contains(t, filenames, "lesson-1.mp3")
	assert.Contains(t, filenames, "lesson-2.m4a")
	assert.NoError(t, mock.ExpectationsWereMet())
}
