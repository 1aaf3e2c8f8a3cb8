package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notesquared/backend/internal/models"
	"go.uber.org/zap"
)

// OutputWithOwner is an output row joined with its lesson's owner
type OutputWithOwner struct {
	Output  models.Output
	OwnerID string
}

// outputRepository implements output data access
type outputRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOutputRepository creates a new output repository
func NewOutputRepository(db *sql.DB, logger *zap.Logger) *outputRepository {
	return &outputRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a newly generated output
func (r *outputRepository) Create(ctx context.Context, output *models.Output) error {
	if output.ID == "" {
		output.ID = uuid.NewString()
	}

	query := `
		INSERT INTO outputs (id, lesson_id, output_type, content, is_edited, is_shared)
		VALUES (?, ?, ?, ?, 0, 0)
	`

	_, err := r.db.ExecContext(ctx, query, output.ID, output.LessonID, output.OutputType, output.Content)
	if err != nil {
		r.logger.Error("failed to create output", zap.Error(err))
		return fmt.Errorf("failed to create output: %w", err)
	}

	return nil
}

// GetByID retrieves an output together with the owning user of its lesson
func (r *outputRepository) GetByID(ctx context.Context, outputID string) (*OutputWithOwner, error) {
	query := `
		SELECT o.id, o.lesson_id, o.output_type, o.content, o.original_content, o.is_edited, o.is_shared, o.created_at, o.updated_at, l.owner_id
		FROM outputs o
		JOIN lessons l ON l.id = o.lesson_id
		WHERE o.id = ?
		LIMIT 1
	`

	item := &OutputWithOwner{}
	var originalContent sql.NullString
	err := r.db.QueryRowContext(ctx, query, outputID).Scan(
		&item.Output.ID,
		&item.Output.LessonID,
		&item.Output.OutputType,
		&item.Output.Content,
		&originalContent,
		&item.Output.IsEdited,
		&item.Output.IsShared,
		&item.Output.CreatedAt,
		&item.Output.UpdatedAt,
		&item.OwnerID,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("output not found")
	}
	if err != nil {
		r.logger.Error("failed to get output by id", zap.Error(err), zap.String("output_id", outputID))
		return nil, fmt.Errorf("failed to get output by id: %w", err)
	}

	item.Output.OriginalContent = originalContent.String
	return item, nil
}

// OutputDelivery carries everything needed to email an output to a parent
type OutputDelivery struct {
	OutputType  models.OutputType
	Content     string
	StudentName string
	Instrument  string
	ParentEmail string
	ParentName  string
	LessonDate  time.Time
}

// GetForDelivery retrieves an output together with the student's parent
// contact details for email delivery
func (r *outputRepository) GetForDelivery(ctx context.Context, outputID string) (*OutputDelivery, error) {
	query := `
		SELECT o.output_type, o.content, s.full_name, s.instrument, s.parent_email, s.parent_name, l.lesson_date
		FROM outputs o
		JOIN lessons l ON l.id = o.lesson_id
		JOIN students s ON s.id = l.student_id
		WHERE o.id = ?
		LIMIT 1
	`

	item := &OutputDelivery{}
	var parentEmail, parentName sql.NullString
	err := r.db.QueryRowContext(ctx, query, outputID).Scan(
		&item.OutputType,
		&item.Content,
		&item.StudentName,
		&item.Instrument,
		&parentEmail,
		&parentName,
		&item.LessonDate,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("output not found")
	}
	if err != nil {
		r.logger.Error("failed to get output for delivery", zap.Error(err), zap.String("output_id", outputID))
		return nil, fmt.Errorf("failed to get output for delivery: %w", err)
	}

	item.ParentEmail = parentEmail.String
	item.ParentName = parentName.String
	return item, nil
}

// GetByLessonID retrieves all outputs for a lesson
func (r *outputRepository) GetByLessonID(ctx context.Context, lessonID string) ([]models.Output, error) {
	query := `
		SELECT id, lesson_id, output_type, content, original_content, is_edited, is_shared, created_at, updated_at
		FROM outputs
		WHERE lesson_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, lessonID)
	if err != nil {
		r.logger.Error("failed to query outputs", zap.Error(err), zap.String("lesson_id", lessonID))
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	defer rows.Close()

	var outputs []models.Output
	for rows.Next() {
		var output models.Output
		var originalContent sql.NullString
		err := rows.Scan(
			&output.ID,
			&output.LessonID,
			&output.OutputType,
			&output.Content,
			&originalContent,
			&output.IsEdited,
			&output.IsShared,
			&output.CreatedAt,
			&output.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}
		output.OriginalContent = originalContent.String
		outputs = append(outputs, output)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return outputs, nil
}

// UpdateContent replaces an output's content, preserving the original on
// first edit and setting the edited flag
func (r *outputRepository) UpdateContent(ctx context.Context, outputID, content string) error {
	query := `
		UPDATE outputs
		SET original_content = CASE WHEN is_edited = 0 THEN content ELSE original_content END,
			content = ?,
			is_edited = 1
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, content, outputID)
	if err != nil {
		r.logger.Error("failed to update output content", zap.Error(err), zap.String("output_id", outputID))
		return fmt.Errorf("failed to update output content: %w", err)
	}

	return nil
}

// Revert restores an output's original content and clears the edited flag.
// The statement is idempotent: reverting an already-reverted output changes
// nothing and is not an error. Eligibility (whether an original exists) is
// decided by the caller from the loaded output.
func (r *outputRepository) Revert(ctx context.Context, outputID string) error {
	query := `
		UPDATE outputs
		SET content = original_content, is_edited = 0
		WHERE id = ? AND original_content IS NOT NULL
	`

	_, err := r.db.ExecContext(ctx, query, outputID)
	if err != nil {
		r.logger.Error("failed to revert output", zap.Error(err), zap.String("output_id", outputID))
		return fmt.Errorf("failed to revert output: %w", err)
	}

	return nil
}

// MarkShared sets the shared flag on an output
func (r *outputRepository) MarkShared(ctx context.Context, outputID string) error {
	query := `UPDATE outputs SET is_shared = 1 WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, outputID)
	if err != nil {
		r.logger.Error("failed to mark output shared", zap.Error(err), zap.String("output_id", outputID))
		return fmt.Errorf("failed to mark output shared: %w", err)
	}

	return nil
}

// DeleteByLessonID deletes all outputs of a lesson. Used when a failed
// lesson is reprocessed so regenerated outputs do not accumulate.
func (r *outputRepository) DeleteByLessonID(ctx context.Context, lessonID string) error {
	query := `DELETE FROM outputs WHERE lesson_id = ?`

	_, err := r.db.ExecContext(ctx, query, lessonID)
	if err != nil {
		r.logger.Error("failed to delete outputs", zap.Error(err), zap.String("lesson_id", lessonID))
		return fmt.Errorf("failed to delete outputs: %w", err)
	}

	return nil
}
