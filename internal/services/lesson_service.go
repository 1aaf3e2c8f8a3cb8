package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/models"
	"github.com/notesquared/backend/internal/pipeline"
	"github.com/notesquared/backend/internal/repositories"
	"github.com/notesquared/backend/internal/storage"
)

// LessonRepository is the interface that wraps methods for Lesson table data access
type LessonRepository interface {
	// Method Create inserts a new lesson into the database.
	//
	// "lesson" parameter is used to create a new lesson.
	//
	// If some error occurs during lesson creation, the error will be returned.
	Create(ctx context.Context, lesson *models.Lesson) error
	// Method GetByID retrieves a lesson owned by the given user together with the student's name.
	//
	// "lessonID" parameter is used to retrieve a lesson by ID.
	// "ownerID" parameter scopes the lookup to the authenticated user.
	//
	// If lesson with such ID does not exist for this owner, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, lessonID, ownerID string) (*repositories.LessonListItem, error)
	// Method GetAllByOwner retrieves all lessons of a user, optionally filtered by student.
	//
	// "ownerID" parameter scopes the lookup to the authenticated user.
	// "studentID" parameter filters by student when non-empty.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAllByOwner(ctx context.Context, ownerID, studentID string) ([]repositories.LessonListItem, error)
	// Method GetStatus retrieves the status payload served to pollers.
	//
	// "lessonID" parameter is used to retrieve a lesson status by ID.
	// "ownerID" parameter scopes the lookup to the authenticated user.
	//
	// If lesson with such ID does not exist for this owner, the error will be returned together with "nil" value.
	GetStatus(ctx context.Context, lessonID, ownerID string) (*models.LessonStatusResponse, error)
	// Method SetUploaded stores the audio filename and moves the lesson to UPLOADED.
	//
	// "lessonID" parameter is used to update a lesson by ID.
	// "audioURL" parameter is the stored audio filename.
	// "durationSeconds" parameter is the audio duration when known, 0 otherwise.
	//
	// If some error occurs during data update, the error will be returned.
	SetUploaded(ctx context.Context, lessonID, audioURL string, durationSeconds int) error
	// Method UpdateStatus moves a lesson to the given status and clears its error message.
	//
	// "lessonID" parameter is used to update a lesson by ID.
	// "status" parameter is the new status.
	//
	// If some error occurs during data update, the error will be returned.
	UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error
}

// OutputReader is the interface that wraps output reads the lesson service needs
type OutputReader interface {
	// Method GetByLessonID retrieves all outputs for a lesson.
	//
	// "lessonID" parameter is used to retrieve outputs by lesson ID.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetByLessonID(ctx context.Context, lessonID string) ([]models.Output, error)
}

// StatusCache is the interface for the redis-backed status read-through
// cache. Entries are keyed by owner and lesson so a cached payload is only
// ever visible to the lesson's owner.
type StatusCache interface {
	// Method Get returns the cached status payload, or nil on a miss.
	Get(ctx context.Context, ownerID, lessonID string) (*models.LessonStatusResponse, error)
	// Method Set stores a status payload with the cache TTL.
	Set(ctx context.Context, ownerID, lessonID string, status *models.LessonStatusResponse) error
	// Method Invalidate drops the cached entry for a lesson.
	Invalidate(ctx context.Context, ownerID, lessonID string)
}

// TaskEnqueuer is the interface that wraps asynq task submission
type TaskEnqueuer interface {
	// Method EnqueueContext submits a task for background processing.
	//
	// If some error occurs during enqueue, the error will be returned together with "nil" value.
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AudioStorage is the interface for lesson audio persistence
type AudioStorage interface {
	// Method Save writes audio content under the given filename and returns
	// the number of bytes written.
	Save(filename string, src io.Reader) (int64, error)
}

// lessonService implements lesson lifecycle management
type lessonService struct {
	lessonRepo  LessonRepository
	studentRepo StudentRepository
	outputRepo  OutputReader
	audio       AudioStorage
	cache       StatusCache
	tasks       TaskEnqueuer
	logger      *zap.Logger
}

// NewLessonService creates a new lesson service
func NewLessonService(
	lessonRepo LessonRepository,
	studentRepo StudentRepository,
	outputRepo OutputReader,
	audio AudioStorage,
	cache StatusCache,
	tasks TaskEnqueuer,
	logger *zap.Logger,
) *lessonService {
	return &lessonService{
		lessonRepo:  lessonRepo,
		studentRepo: studentRepo,
		outputRepo:  outputRepo,
		audio:       audio,
		cache:       cache,
		tasks:       tasks,
		logger:      logger,
	}
}

// outputOrder fixes the display order of outputs in lesson detail responses
var outputOrder = map[models.OutputType]int{
	models.OutputStudentRecap: 0,
	models.OutputPracticePlan: 1,
	models.OutputParentEmail:  2,
}

// Create records a new lesson in CREATED state, awaiting its audio upload
func (s *lessonService) Create(ctx context.Context, ownerID string, req *models.CreateLessonRequest) (*models.LessonResponse, error) {
	student, err := s.studentRepo.GetByID(ctx, req.StudentID, ownerID)
	if err != nil {
		return nil, err
	}

	lessonDate := time.Now()
	if req.LessonDate != "" {
		lessonDate, err = time.Parse("2006-01-02", req.LessonDate)
		if err != nil {
			return nil, fmt.Errorf("invalid lesson date, expected YYYY-MM-DD")
		}
	}

	lesson := &models.Lesson{
		OwnerID:    ownerID,
		StudentID:  req.StudentID,
		LessonDate: lessonDate,
		Status:     models.StatusCreated,
	}

	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}

	s.logger.Info("Lesson created",
		zap.String("lessonID", lesson.ID),
		zap.String("studentID", req.StudentID))

	return lessonResponse(lesson, student.FullName), nil
}

// Upload stores lesson audio and enqueues the processing pipeline
func (s *lessonService) Upload(ctx context.Context, lessonID, ownerID, contentType string, src io.Reader, durationSeconds int) (*models.LessonResponse, error) {
	item, err := s.lessonRepo.GetByID(ctx, lessonID, ownerID)
	if err != nil {
		return nil, err
	}

	if !storage.IsAllowedContentType(contentType) {
		return nil, fmt.Errorf("unsupported audio format, allowed: m4a, mp3, wav, webm")
	}

	filename := storage.GenerateFilename(lessonID, storage.ExtensionForContentType(contentType))
	written, err := s.audio.Save(filename, src)
	if err != nil {
		return nil, fmt.Errorf("failed to save audio: %w", err)
	}
	if written == 0 {
		return nil, fmt.Errorf("audio file is empty")
	}

	if err := s.lessonRepo.SetUploaded(ctx, lessonID, filename, durationSeconds); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, ownerID, lessonID)

	if _, err := s.tasks.EnqueueContext(ctx, pipeline.NewLessonProcessTask(lessonID)); err != nil {
		return nil, fmt.Errorf("failed to enqueue processing: %w", err)
	}

	s.logger.Info("Lesson audio uploaded",
		zap.String("lessonID", lessonID),
		zap.String("filename", filename),
		zap.Int64("bytes", written))

	lesson := item.Lesson
	lesson.Status = models.StatusUploaded
	lesson.DurationSeconds = durationSeconds
	lesson.ErrorMessage = ""
	return lessonResponse(&lesson, item.StudentName), nil
}

// List retrieves the teacher's lessons, optionally filtered by student
func (s *lessonService) List(ctx context.Context, ownerID, studentID string) ([]models.LessonResponse, error) {
	items, err := s.lessonRepo.GetAllByOwner(ctx, ownerID, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.LessonResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, *lessonResponse(&item.Lesson, item.StudentName))
	}
	return responses, nil
}

// Get retrieves a lesson with its transcript and generated outputs
func (s *lessonService) Get(ctx context.Context, lessonID, ownerID string) (*models.LessonDetailResponse, error) {
	item, err := s.lessonRepo.GetByID(ctx, lessonID, ownerID)
	if err != nil {
		return nil, err
	}

	outputs, err := s.outputRepo.GetByLessonID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	outputResponses := make([]models.OutputResponse, 0, len(outputs))
	for _, output := range outputs {
		outputResponses = append(outputResponses, outputResponse(&output))
	}
	sortOutputs(outputResponses)

	return &models.LessonDetailResponse{
		LessonResponse: *lessonResponse(&item.Lesson, item.StudentName),
		Transcript:     item.Lesson.Transcript,
		Outputs:        outputResponses,
	}, nil
}

// GetStatus serves the polling endpoint through the redis cache. Cache keys
// include the owner, so another user polling the same lesson ID always misses
// and gets not found from the ownership-scoped query.
func (s *lessonService) GetStatus(ctx context.Context, lessonID, ownerID string) (*models.LessonStatusResponse, error) {
	if cached, err := s.cache.Get(ctx, ownerID, lessonID); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("status cache read failed", zap.Error(err), zap.String("lessonID", lessonID))
	}

	status, err := s.lessonRepo.GetStatus(ctx, lessonID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, ownerID, lessonID, status); err != nil {
		s.logger.Warn("status cache write failed", zap.Error(err), zap.String("lessonID", lessonID))
	}
	return status, nil
}

// Reprocess re-runs the pipeline for a failed or stuck lesson
func (s *lessonService) Reprocess(ctx context.Context, lessonID, ownerID string) (*models.LessonResponse, error) {
	item, err := s.lessonRepo.GetByID(ctx, lessonID, ownerID)
	if err != nil {
		return nil, err
	}

	if item.Lesson.Status != models.StatusFailed && item.Lesson.Status != models.StatusUploaded {
		return nil, fmt.Errorf("lesson cannot be reprocessed")
	}
	if item.Lesson.AudioURL == "" {
		return nil, fmt.Errorf("lesson has no audio")
	}

	if err := s.lessonRepo.UpdateStatus(ctx, lessonID, models.StatusUploaded); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, ownerID, lessonID)

	if _, err := s.tasks.EnqueueContext(ctx, pipeline.NewLessonProcessTask(lessonID)); err != nil {
		return nil, fmt.Errorf("failed to enqueue processing: %w", err)
	}

	s.logger.Info("Lesson reprocessing requested", zap.String("lessonID", lessonID))

	lesson := item.Lesson
	lesson.Status = models.StatusUploaded
	lesson.ErrorMessage = ""
	return lessonResponse(&lesson, item.StudentName), nil
}

// lessonResponse builds the list/create representation of a lesson
func lessonResponse(lesson *models.Lesson, studentName string) *models.LessonResponse {
	return &models.LessonResponse{
		ID:              lesson.ID,
		StudentID:       lesson.StudentID,
		StudentName:     studentName,
		LessonDate:      lesson.LessonDate.Format("2006-01-02"),
		Status:          lesson.Status,
		DurationSeconds: lesson.DurationSeconds,
		ErrorMessage:    lesson.ErrorMessage,
		CreatedAt:       lesson.CreatedAt,
		UpdatedAt:       lesson.UpdatedAt,
	}
}

// outputResponse builds the API representation of an output
func outputResponse(output *models.Output) models.OutputResponse {
	return models.OutputResponse{
		ID:              output.ID,
		LessonID:        output.LessonID,
		OutputType:      output.OutputType,
		Content:         output.Content,
		OriginalContent: output.OriginalContent,
		IsEdited:        output.IsEdited,
		IsShared:        output.IsShared,
		CreatedAt:       output.CreatedAt,
		UpdatedAt:       output.UpdatedAt,
	}
}

// sortOutputs orders outputs as recap, practice plan, parent email
func sortOutputs(outputs []models.OutputResponse) {
	sort.SliceStable(outputs, func(i, j int) bool {
		return outputOrder[outputs[i].OutputType] < outputOrder[outputs[j].OutputType]
	})
}
