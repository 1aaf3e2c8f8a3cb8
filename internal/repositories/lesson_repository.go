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

// LessonListItem is a lesson row joined with its student's name
type LessonListItem struct {
	Lesson      models.Lesson
	StudentName string
}

// lessonRepository implements lesson data access
type lessonRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB, logger *zap.Logger) *lessonRepository {
	return &lessonRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new lesson with status CREATED
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.Status == "" {
		lesson.Status = models.StatusCreated
	}

	query := `
		INSERT INTO lessons (id, owner_id, student_id, lesson_date, status)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.OwnerID,
		lesson.StudentID,
		lesson.LessonDate.Format("2006-01-02"),
		lesson.Status,
	)
	if err != nil {
		r.logger.Error("failed to create lesson", zap.Error(err))
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	return nil
}

const lessonColumns = `l.id, l.owner_id, l.student_id, l.lesson_date, l.status, l.duration_seconds, l.audio_url, l.transcript, l.extraction, l.error_message, l.created_at, l.updated_at`

// scanLesson scans one lesson row with its nullable columns
func scanLesson(row interface{ Scan(...any) error }, lesson *models.Lesson, studentName *string) error {
	var durationSeconds sql.NullInt64
	var audioURL, transcript, extraction, errorMessage sql.NullString

	dest := []any{
		&lesson.ID,
		&lesson.OwnerID,
		&lesson.StudentID,
		&lesson.LessonDate,
		&lesson.Status,
		&durationSeconds,
		&audioURL,
		&transcript,
		&extraction,
		&errorMessage,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	}
	if studentName != nil {
		dest = append(dest, studentName)
	}

	if err := row.Scan(dest...); err != nil {
		return err
	}

	lesson.DurationSeconds = int(durationSeconds.Int64)
	lesson.AudioURL = audioURL.String
	lesson.Transcript = transcript.String
	lesson.Extraction = extraction.String
	lesson.ErrorMessage = errorMessage.String
	return nil
}

// GetByID retrieves a lesson owned by the given user, with the student's name
func (r *lessonRepository) GetByID(ctx context.Context, lessonID, ownerID string) (*LessonListItem, error) {
	query := `
		SELECT ` + lessonColumns + `, s.full_name
		FROM lessons l
		JOIN students s ON s.id = l.student_id
		WHERE l.id = ? AND l.owner_id = ?
		LIMIT 1
	`

	item := &LessonListItem{}
	row := r.db.QueryRowContext(ctx, query, lessonID, ownerID)
	err := scanLesson(row, &item.Lesson, &item.StudentName)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lesson not found")
	}
	if err != nil {
		r.logger.Error("failed to get lesson by id", zap.Error(err), zap.String("lesson_id", lessonID))
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	return item, nil
}

// GetForProcessing retrieves a lesson by ID without an ownership filter,
// together with the student's name and instrument. Used by the pipeline worker.
func (r *lessonRepository) GetForProcessing(ctx context.Context, lessonID string) (*models.Lesson, string, string, error) {
	query := `
		SELECT ` + lessonColumns + `, s.full_name, s.instrument
		FROM lessons l
		JOIN students s ON s.id = l.student_id
		WHERE l.id = ?
		LIMIT 1
	`

	var lesson models.Lesson
	var durationSeconds sql.NullInt64
	var audioURL, transcript, extraction, errorMessage sql.NullString
	var studentName, instrument string

	err := r.db.QueryRowContext(ctx, query, lessonID).Scan(
		&lesson.ID,
		&lesson.OwnerID,
		&lesson.StudentID,
		&lesson.LessonDate,
		&lesson.Status,
		&durationSeconds,
		&audioURL,
		&transcript,
		&extraction,
		&errorMessage,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
		&studentName,
		&instrument,
	)

	if err == sql.ErrNoRows {
		return nil, "", "", fmt.Errorf("lesson not found")
	}
	if err != nil {
		r.logger.Error("failed to get lesson for processing", zap.Error(err), zap.String("lesson_id", lessonID))
		return nil, "", "", fmt.Errorf("failed to get lesson for processing: %w", err)
	}

	lesson.DurationSeconds = int(durationSeconds.Int64)
	lesson.AudioURL = audioURL.String
	lesson.Transcript = transcript.String
	lesson.Extraction = extraction.String
	lesson.ErrorMessage = errorMessage.String
	return &lesson, studentName, instrument, nil
}

// GetAllByOwner retrieves all lessons for a user, optionally filtered by student,
// most recent lesson date first
func (r *lessonRepository) GetAllByOwner(ctx context.Context, ownerID, studentID string) ([]LessonListItem, error) {
	query := `
		SELECT ` + lessonColumns + `, s.full_name
		FROM lessons l
		JOIN students s ON s.id = l.student_id
		WHERE l.owner_id = ?
	`
	args := []any{ownerID}

	if studentID != "" {
		query += ` AND l.student_id = ?`
		args = append(args, studentID)
	}

	query += ` ORDER BY l.lesson_date DESC, l.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query lessons", zap.Error(err))
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var items []LessonListItem
	for rows.Next() {
		var item LessonListItem
		if err := scanLesson(rows, &item.Lesson, &item.StudentName); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// GetStatus retrieves only the status fields of a lesson for polling
func (r *lessonRepository) GetStatus(ctx context.Context, lessonID, ownerID string) (*models.LessonStatusResponse, error) {
	query := `
		SELECT id, status, error_message
		FROM lessons
		WHERE id = ? AND owner_id = ?
		LIMIT 1
	`

	var status models.LessonStatusResponse
	var errorMessage sql.NullString
	err := r.db.QueryRowContext(ctx, query, lessonID, ownerID).Scan(
		&status.ID,
		&status.Status,
		&errorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lesson not found")
	}
	if err != nil {
		r.logger.Error("failed to get lesson status", zap.Error(err), zap.String("lesson_id", lessonID))
		return nil, fmt.Errorf("failed to get lesson status: %w", err)
	}

	status.ErrorMessage = errorMessage.String
	return &status, nil
}

// SetUploaded records the stored audio location and moves the lesson to UPLOADED
func (r *lessonRepository) SetUploaded(ctx context.Context, lessonID, audioURL string, durationSeconds int) error {
	query := `
		UPDATE lessons
		SET audio_url = ?, duration_seconds = ?, status = ?, error_message = NULL
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, audioURL, nullableInt(durationSeconds), models.StatusUploaded, lessonID)
	if err != nil {
		r.logger.Error("failed to set lesson uploaded", zap.Error(err), zap.String("lesson_id", lessonID))
		return fmt.Errorf("failed to set lesson uploaded: %w", err)
	}

	return nil
}

// UpdateStatus moves a lesson to the given status, clearing any error message
func (r *lessonRepository) UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error {
	query := `UPDATE lessons SET status = ?, error_message = NULL WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, status, lessonID)
	if err != nil {
		r.logger.Error("failed to update lesson status", zap.Error(err), zap.String("lesson_id", lessonID))
		return fmt.Errorf("failed to update lesson status: %w", err)
	}

	return nil
}

// MarkFailed moves a lesson to FAILED with the given error message
func (r *lessonRepository) MarkFailed(ctx context.Context, lessonID, errorMessage string) error {
	query := `UPDATE lessons SET status = ?, error_message = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, models.StatusFailed, errorMessage, lessonID)
	if err != nil {
		r.logger.Error("failed to mark lesson failed", zap.Error(err), zap.String("lesson_id", lessonID))
		return fmt.Errorf("failed to mark lesson failed: %w", err)
	}

	return nil
}

// SetTranscript stores the transcript produced by the transcription step
func (r *lessonRepository) SetTranscript(ctx context.Context, lessonID, transcript string) error {
	query := `UPDATE lessons SET transcript = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, transcript, lessonID)
	if err != nil {
		r.logger.Error("failed to set lesson transcript", zap.Error(err), zap.String("lesson_id", lessonID))
		return fmt.Errorf("failed to set lesson transcript: %w", err)
	}

	return nil
}

// SetExtraction stores the raw extraction JSON produced by the extraction step
func (r *lessonRepository) SetExtraction(ctx context.Context, lessonID, extraction string) error {
	query := `UPDATE lessons SET extraction = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, extraction, lessonID)
	if err != nil {
		r.logger.Error("failed to set lesson extraction", zap.Error(err), zap.String("lesson_id", lessonID))
		return fmt.Errorf("failed to set lesson extraction: %w", err)
	}

	return nil
}

// DeleteStale deletes lessons stuck in CREATED with no audio older than the
// cutoff. Returns the number of deleted rows.
func (r *lessonRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM lessons
		WHERE status = ? AND audio_url IS NULL AND created_at < ?
	`

	result, err := r.db.ExecContext(ctx, query, models.StatusCreated, cutoff)
	if err != nil {
		r.logger.Error("failed to delete stale lessons", zap.Error(err))
		return 0, fmt.Errorf("failed to delete stale lessons: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

// GetAudioFilenames returns the audio_url of every lesson that has one.
// Used by the cleanup scheduler to detect orphaned files.
func (r *lessonRepository) GetAudioFilenames(ctx context.Context) (map[string]struct{}, error) {
	query := `SELECT audio_url FROM lessons WHERE audio_url IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query audio filenames", zap.Error(err))
		return nil, fmt.Errorf("failed to query audio filenames: %w", err)
	}
	defer rows.Close()

	filenames := make(map[string]struct{})
	for rows.Next() {
		var audioURL string
		if err := rows.Scan(&audioURL); err != nil {
			return nil, fmt.Errorf("failed to scan audio filename: %w", err)
		}
		filenames[audioURL] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return filenames, nil
}

// nullableInt converts a zero int to a NULL database value
func nullableInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
