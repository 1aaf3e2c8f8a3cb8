package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/models"
)

func TestStudentService_Create(t *testing.T) {
	tests := []struct {
		name          string
		req           *models.CreateStudentRequest
		expectedError string
	}{
		{
			name: "success",
			req: &models.CreateStudentRequest{
				FullName:    "  Mia Chen  ",
				Instrument:  "Piano",
				ParentEmail: "Parent@Example.com",
				ParentName:  " Grace Chen ",
			},
		},
		{
			name:          "empty name",
			req:           &models.CreateStudentRequest{FullName: "   ", Instrument: "Piano"},
			expectedError: "student name cannot be empty",
		},
		{
			name:          "unknown instrument",
			req:           &models.CreateStudentRequest{FullName: "Mia Chen", Instrument: "Theremin"},
			expectedError: `unknown instrument "Theremin"`,
		},
		{
			name:          "unknown level",
			req:           &models.CreateStudentRequest{FullName: "Mia Chen", Instrument: "Piano", Level: "VIRTUOSO"},
			expectedError: `unknown level "VIRTUOSO"`,
		},
		{
			name:          "bad parent email",
			req:           &models.CreateStudentRequest{FullName: "Mia Chen", Instrument: "Piano", ParentEmail: "not-an-email"},
			expectedError: "invalid parent email format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockStudentRepository{}
			svc := NewStudentService(repo, zap.NewNop())

			student, err := svc.Create(context.Background(), "owner-1", tt.req)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Nil(t, student)
				return
			}

			assert.NoError(t, err)
			require.NotNil(t, student)
			assert.Equal(t, "Mia Chen", student.FullName)
			assert.Equal(t, models.LevelBeginner, student.Level)
			assert.Equal(t, "parent@example.com", student.ParentEmail)
			assert.Equal(t, "Grace Chen", student.ParentName)
			assert.Equal(t, "owner-1", student.OwnerID)
		})
	}
}

func TestStudentService_Update(t *testing.T) {
	emptyName := "  "
	badInstrument := "Theremin"
	parentEmail := "Parent@Example.com"

	t.Run("normalizes parent email", func(t *testing.T) {
		repo := &mockStudentRepository{student: &models.Student{ID: "student-id-123"}}
		svc := NewStudentService(repo, zap.NewNop())

		req := &models.UpdateStudentRequest{ParentEmail: &parentEmail}
		_, err := svc.Update(context.Background(), "student-id-123", "owner-1", req)

		assert.NoError(t, err)
		assert.Equal(t, "parent@example.com", *req.ParentEmail)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		svc := NewStudentService(&mockStudentRepository{}, zap.NewNop())

		_, err := svc.Update(context.Background(), "student-id-123", "owner-1", &models.UpdateStudentRequest{FullName: &emptyName})

		assert.EqualError(t, err, "student name cannot be empty")
	})

	t.Run("unknown instrument rejected", func(t *testing.T) {
		svc := NewStudentService(&mockStudentRepository{}, zap.NewNop())

		_, err := svc.Update(context.Background(), "student-id-123", "owner-1", &models.UpdateStudentRequest{Instrument: &badInstrument})

		assert.EqualError(t, err, `unknown instrument "Theremin"`)
	})
}
