package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/models"
)

// LessonStore defines the lesson persistence the processor needs
type LessonStore interface {
	// Method GetForProcessing loads a lesson without owner scoping together
	// with the student's name and instrument.
	//
	// If the lesson does not exist, the error will contain "lesson not found".
	GetForProcessing(ctx context.Context, lessonID string) (*models.Lesson, string, string, error)

	// Method UpdateStatus persists the lesson's pipeline stage.
	UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error

	// Method MarkFailed sets the FAILED status together with the error message.
	MarkFailed(ctx context.Context, lessonID, errorMessage string) error

	// Method SetTranscript stores the transcription result.
	SetTranscript(ctx context.Context, lessonID, transcript string) error

	// Method SetExtraction stores the extraction result as raw JSON.
	SetExtraction(ctx context.Context, lessonID, extraction string) error
}

// OutputStore defines the output persistence the processor needs
type OutputStore interface {
	// Method Create persists a generated output.
	Create(ctx context.Context, output *models.Output) error

	// Method DeleteByLessonID removes all outputs of a lesson. Called before
	// generation so that reprocessing replaces stale artifacts.
	DeleteByLessonID(ctx context.Context, lessonID string) error
}

// AudioPather resolves stored audio filenames to on-disk paths
type AudioPather interface {
	Path(filename string) string
}

// Processor runs a lesson through transcription, extraction and generation,
// persisting the status after each step so clients can poll progress
type Processor struct {
	lessons      LessonStore
	outputs      OutputStore
	transcriber  Transcriber
	extractor    Extractor
	generator    Generator
	audio        AudioPather
	audioBaseURL string
	logger       *zap.Logger
}

// NewProcessor creates a new lesson Processor
func NewProcessor(
	lessons LessonStore,
	outputs OutputStore,
	transcriber Transcriber,
	extractor Extractor,
	generator Generator,
	audio AudioPather,
	audioBaseURL string,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		lessons:      lessons,
		outputs:      outputs,
		transcriber:  transcriber,
		extractor:    extractor,
		generator:    generator,
		audio:        audio,
		audioBaseURL: strings.TrimRight(audioBaseURL, "/"),
		logger:       logger,
	}
}

// ProcessLesson runs the full pipeline for one lesson. A lesson deleted
// between enqueue and execution is dropped silently. Any step failure marks
// the lesson FAILED and skips asynq retries, since reprocessing is driven by
// an explicit user request.
func (p *Processor) ProcessLesson(ctx context.Context, lessonID string) error {
	lesson, studentName, instrument, err := p.lessons.GetForProcessing(ctx, lessonID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			p.logger.Info("Lesson gone before processing, dropping task", zap.String("lessonID", lessonID))
			return nil
		}
		return fmt.Errorf("failed to load lesson for processing: %w", err)
	}

	if err := p.runPipeline(ctx, lesson, studentName, instrument); err != nil {
		p.logger.Error("Lesson processing failed",
			zap.String("lessonID", lessonID),
			zap.Error(err))

		if markErr := p.lessons.MarkFailed(ctx, lessonID, err.Error()); markErr != nil {
			p.logger.Error("Failed to mark lesson as failed",
				zap.String("lessonID", lessonID),
				zap.Error(markErr))
		}
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	p.logger.Info("Lesson processing completed",
		zap.String("lessonID", lessonID),
		zap.String("student", studentName))
	return nil
}

func (p *Processor) runPipeline(ctx context.Context, lesson *models.Lesson, studentName, instrument string) error {
	if lesson.AudioURL == "" {
		return fmt.Errorf("lesson has no audio")
	}

	// Transcription
	if err := p.lessons.UpdateStatus(ctx, lesson.ID, models.StatusTranscribing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	audioURL := ""
	if p.audioBaseURL != "" {
		audioURL = p.audioBaseURL + "/" + lesson.AudioURL
	}

	transcript, err := p.transcriber.Transcribe(ctx, p.audio.Path(lesson.AudioURL), audioURL)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	if err := p.lessons.SetTranscript(ctx, lesson.ID, transcript); err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}

	// Extraction
	if err := p.lessons.UpdateStatus(ctx, lesson.ID, models.StatusExtracting); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	extraction, err := p.extractor.Extract(ctx, transcript, studentName, instrument)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction: %w", err)
	}
	if err := p.lessons.SetExtraction(ctx, lesson.ID, string(extractionJSON)); err != nil {
		return fmt.Errorf("failed to store extraction: %w", err)
	}

	// Generation
	if err := p.lessons.UpdateStatus(ctx, lesson.ID, models.StatusGenerating); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	outputs, err := p.generator.Generate(ctx, extraction, studentName, instrument)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	// Reprocessing replaces the previous run's outputs
	if err := p.outputs.DeleteByLessonID(ctx, lesson.ID); err != nil {
		return fmt.Errorf("failed to clear previous outputs: %w", err)
	}
	for outputType, content := range outputs {
		output := &models.Output{
			LessonID:   lesson.ID,
			OutputType: outputType,
			Content:    content,
		}
		if err := p.outputs.Create(ctx, output); err != nil {
			return fmt.Errorf("failed to store %s output: %w", outputType, err)
		}
	}

	if err := p.lessons.UpdateStatus(ctx, lesson.ID, models.StatusCompleted); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}
