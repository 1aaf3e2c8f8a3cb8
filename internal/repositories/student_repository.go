package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/notesquared/backend/internal/models"
	"go.uber.org/zap"
)

// studentRepository implements student data access
type studentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *sql.DB, logger *zap.Logger) *studentRepository {
	return &studentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new student into the database
func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	query := `
		INSERT INTO students (id, owner_id, full_name, instrument, level, parent_email, parent_name, notes, is_archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`

	_, err := r.db.ExecContext(ctx, query,
		student.ID,
		student.OwnerID,
		student.FullName,
		student.Instrument,
		student.Level,
		nullable(student.ParentEmail),
		nullable(student.ParentName),
		nullable(student.Notes),
	)
	if err != nil {
		r.logger.Error("failed to create student", zap.Error(err))
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID retrieves a student owned by the given user
func (r *studentRepository) GetByID(ctx context.Context, studentID, ownerID string) (*models.Student, error) {
	query := `
		SELECT id, owner_id, full_name, instrument, level, parent_email, parent_name, notes, is_archived, created_at, updated_at
		FROM students
		WHERE id = ? AND owner_id = ?
		LIMIT 1
	`

	student := &models.Student{}
	var parentEmail, parentName, notes sql.NullString
	err := r.db.QueryRowContext(ctx, query, studentID, ownerID).Scan(
		&student.ID,
		&student.OwnerID,
		&student.FullName,
		&student.Instrument,
		&student.Level,
		&parentEmail,
		&parentName,
		&notes,
		&student.IsArchived,
		&student.CreatedAt,
		&student.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("student not found")
	}
	if err != nil {
		r.logger.Error("failed to get student by id", zap.Error(err), zap.String("student_id", studentID))
		return nil, fmt.Errorf("failed to get student by id: %w", err)
	}

	student.ParentEmail = parentEmail.String
	student.ParentName = parentName.String
	student.Notes = notes.String
	return student, nil
}

// GetAllByOwner retrieves all students for a user together with their lesson counts
func (r *studentRepository) GetAllByOwner(ctx context.Context, ownerID string, includeArchived bool) ([]models.StudentResponse, error) {
	query := `
		SELECT s.id, s.full_name, s.instrument, s.level, s.parent_email, s.parent_name, s.notes, s.is_archived, s.created_at, s.updated_at,
			COUNT(l.id) AS lesson_count
		FROM students s
		LEFT JOIN lessons l ON l.student_id = s.id
		WHERE s.owner_id = ?
	`
	if !includeArchived {
		query += ` AND s.is_archived = 0`
	}
	query += `
		GROUP BY s.id
		ORDER BY s.full_name
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("failed to query students", zap.Error(err))
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.StudentResponse
	for rows.Next() {
		var student models.StudentResponse
		var parentEmail, parentName, notes sql.NullString
		err := rows.Scan(
			&student.ID,
			&student.FullName,
			&student.Instrument,
			&student.Level,
			&parentEmail,
			&parentName,
			&notes,
			&student.IsArchived,
			&student.CreatedAt,
			&student.UpdatedAt,
			&student.LessonCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		student.ParentEmail = parentEmail.String
		student.ParentName = parentName.String
		student.Notes = notes.String
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return students, nil
}

// Update applies the non-nil fields of the request to a student
func (r *studentRepository) Update(ctx context.Context, studentID, ownerID string, req *models.UpdateStudentRequest) error {
	var sets []string
	var args []any

	if req.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *req.FullName)
	}
	if req.Instrument != nil {
		sets = append(sets, "instrument = ?")
		args = append(args, *req.Instrument)
	}
	if req.Level != nil {
		sets = append(sets, "level = ?")
		args = append(args, *req.Level)
	}
	if req.ParentEmail != nil {
		sets = append(sets, "parent_email = ?")
		args = append(args, nullable(*req.ParentEmail))
	}
	if req.ParentName != nil {
		sets = append(sets, "parent_name = ?")
		args = append(args, nullable(*req.ParentName))
	}
	if req.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullable(*req.Notes))
	}

	if len(sets) == 0 {
		return nil
	}

	query := `UPDATE students SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND owner_id = ?`
	args = append(args, studentID, ownerID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update student", zap.Error(err), zap.String("student_id", studentID))
		return fmt.Errorf("failed to update student: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("student not found")
	}

	return nil
}

// SetArchived archives or unarchives a student
func (r *studentRepository) SetArchived(ctx context.Context, studentID, ownerID string, archived bool) error {
	query := `UPDATE students SET is_archived = ? WHERE id = ? AND owner_id = ?`

	result, err := r.db.ExecContext(ctx, query, archived, studentID, ownerID)
	if err != nil {
		r.logger.Error("failed to set student archived", zap.Error(err), zap.String("student_id", studentID))
		return fmt.Errorf("failed to set student archived: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("student not found")
	}

	return nil
}

// nullable converts an empty string to a NULL database value
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
