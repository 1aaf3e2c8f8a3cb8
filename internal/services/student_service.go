package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/models"
)

// StudentRepository is the interface that wraps methods for Student table data access
type StudentRepository interface {
	// Method Create inserts a new student into the database.
	//
	// "student" parameter is used to create a new student.
	//
	// If some error occurs during student creation, the error will be returned.
	Create(ctx context.Context, student *models.Student) error
	// Method GetByID retrieves a student owned by the given user.
	//
	// "studentID" parameter is used to retrieve a student by ID.
	// "ownerID" parameter scopes the lookup to the authenticated user.
	//
	// If student with such ID does not exist for this owner, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, studentID, ownerID string) (*models.Student, error)
	// Method GetAllByOwner retrieves all students of a user with their lesson counts.
	//
	// "ownerID" parameter scopes the lookup to the authenticated user.
	// "includeArchived" parameter controls whether archived students are included.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAllByOwner(ctx context.Context, ownerID string, includeArchived bool) ([]models.StudentResponse, error)
	// Method Update applies the non-nil fields of the request to a student.
	//
	// "studentID" parameter is used to update a student by ID.
	// "ownerID" parameter scopes the update to the authenticated user.
	// "req" parameter carries the fields to change.
	//
	// If some error occurs during data update, the error will be returned.
	Update(ctx context.Context, studentID, ownerID string, req *models.UpdateStudentRequest) error
	// Method SetArchived archives or restores a student.
	//
	// "studentID" parameter is used to archive a student by ID.
	// "ownerID" parameter scopes the update to the authenticated user.
	// "archived" parameter is the new archived state.
	//
	// If some error occurs during data update, the error will be returned.
	SetArchived(ctx context.Context, studentID, ownerID string, archived bool) error
}

// studentService implements student roster management
type studentService struct {
	studentRepo StudentRepository
	logger      *zap.Logger
}

// NewStudentService creates a new student service
func NewStudentService(studentRepo StudentRepository, logger *zap.Logger) *studentService {
	return &studentService{
		studentRepo: studentRepo,
		logger:      logger,
	}
}

// validInstruments is the Instruments list as a set for validation
var validInstruments = func() map[string]struct{} {
	set := make(map[string]struct{}, len(models.Instruments))
	for _, instrument := range models.Instruments {
		set[instrument] = struct{}{}
	}
	return set
}()

// validateInstrument checks that the instrument is one of the known choices
func validateInstrument(instrument string) error {
	if _, ok := validInstruments[instrument]; !ok {
		return fmt.Errorf("unknown instrument %q", instrument)
	}
	return nil
}

// validateLevel checks that the level is one of the known choices
func validateLevel(level models.StudentLevel) error {
	switch level {
	case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
		return nil
	}
	return fmt.Errorf("unknown level %q", level)
}

// Create adds a student to the teacher's roster
func (s *studentService) Create(ctx context.Context, ownerID string, req *models.CreateStudentRequest) (*models.Student, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("student name cannot be empty")
	}
	if err := validateInstrument(req.Instrument); err != nil {
		return nil, err
	}

	level := req.Level
	if level == "" {
		level = models.LevelBeginner
	}
	if err := validateLevel(level); err != nil {
		return nil, err
	}

	parentEmail := strings.TrimSpace(strings.ToLower(req.ParentEmail))
	if parentEmail != "" && !emailRegex.MatchString(parentEmail) {
		return nil, fmt.Errorf("invalid parent email format")
	}

	student := &models.Student{
		OwnerID:     ownerID,
		FullName:    fullName,
		Instrument:  req.Instrument,
		Level:       level,
		ParentEmail: parentEmail,
		ParentName:  strings.TrimSpace(req.ParentName),
		Notes:       req.Notes,
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info("Student created",
		zap.String("studentID", student.ID),
		zap.String("ownerID", ownerID))
	return student, nil
}

// Get retrieves one student from the teacher's roster
func (s *studentService) Get(ctx context.Context, studentID, ownerID string) (*models.Student, error) {
	return s.studentRepo.GetByID(ctx, studentID, ownerID)
}

// List retrieves the teacher's roster with lesson counts
func (s *studentService) List(ctx context.Context, ownerID string, includeArchived bool) ([]models.StudentResponse, error) {
	return s.studentRepo.GetAllByOwner(ctx, ownerID, includeArchived)
}

// Update applies a partial update to a student
func (s *studentService) Update(ctx context.Context, studentID, ownerID string, req *models.UpdateStudentRequest) (*models.Student, error) {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return nil, fmt.Errorf("student name cannot be empty")
	}
	if req.Instrument != nil {
		if err := validateInstrument(*req.Instrument); err != nil {
			return nil, err
		}
	}
	if req.Level != nil {
		if err := validateLevel(*req.Level); err != nil {
			return nil, err
		}
	}
	if req.ParentEmail != nil && *req.ParentEmail != "" {
		normalized := strings.TrimSpace(strings.ToLower(*req.ParentEmail))
		if !emailRegex.MatchString(normalized) {
			return nil, fmt.Errorf("invalid parent email format")
		}
		req.ParentEmail = &normalized
	}

	if err := s.studentRepo.Update(ctx, studentID, ownerID, req); err != nil {
		return nil, err
	}

	return s.studentRepo.GetByID(ctx, studentID, ownerID)
}

// Archive hides a student from the default roster view. Lessons are kept.
func (s *studentService) Archive(ctx context.Context, studentID, ownerID string) error {
	return s.studentRepo.SetArchived(ctx, studentID, ownerID, true)
}

// Restore returns an archived student to the roster
func (s *studentService) Restore(ctx context.Context, studentID, ownerID string) error {
	return s.studentRepo.SetArchived(ctx, studentID, ownerID, false)
}
