package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/notesquared/backend/internal/pipeline"
	"github.com/notesquared/backend/internal/repositories"
)

// OutputDeliveryRepository defines the interface for output delivery lookups
type OutputDeliveryRepository interface {
	// Method GetForDelivery retrieves an output together with the student's
	// parent contact details.
	//
	// "outputID" parameter is used to retrieve an output by ID.
	//
	// If output with such ID does not exist, the error will be returned together with "nil" value.
	GetForDelivery(ctx context.Context, outputID string) (*repositories.OutputDelivery, error)
}

// LessonCleanupRepository defines the interface for cleanup queries
type LessonCleanupRepository interface {
	// Method DeleteStale deletes lessons stuck in CREATED with no audio older
	// than the cutoff and returns the number of deleted rows.
	//
	// If some error occurs during deletion, the error will be returned.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
	// Method GetAudioFilenames returns the set of audio filenames still
	// referenced by lessons.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAudioFilenames(ctx context.Context) (map[string]struct{}, error)
}

// AudioStore defines the storage operations cleanup needs
type AudioStore interface {
	// Method ListOlderThan returns the names of stored audio files last
	// modified before the cutoff.
	ListOlderThan(cutoff time.Time) ([]string, error)
	// Method Delete removes a stored audio file.
	Delete(filename string) error
}

// orphanGrace is how old an audio file must be before cleanup will treat it
// as an orphan. A file saved by an upload whose SetUploaded write has not
// committed yet is unreferenced for a moment; the grace keeps it safe.
const orphanGrace = 15 * time.Minute

// Worker handles background task processing
type Worker struct {
	logger       *zap.Logger
	processor    *pipeline.Processor
	outputRepo   OutputDeliveryRepository
	lessonRepo   LessonCleanupRepository
	audio        AudioStore
	staleAge     time.Duration
	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	smtpFrom     string
}

// NewWorker creates a new worker instance
func NewWorker(
	logger *zap.Logger,
	processor *pipeline.Processor,
	outputRepo OutputDeliveryRepository,
	lessonRepo LessonCleanupRepository,
	audio AudioStore,
	staleAge time.Duration,
	smtpHost string,
	smtpPort int,
	smtpUsername, smtpPassword, smtpFrom string,
) *Worker {
	return &Worker{
		logger:       logger,
		processor:    processor,
		outputRepo:   outputRepo,
		lessonRepo:   lessonRepo,
		audio:        audio,
		staleAge:     staleAge,
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUsername: smtpUsername,
		smtpPassword: smtpPassword,
		smtpFrom:     smtpFrom,
	}
}

// HandleLessonProcess runs an uploaded lesson through the pipeline
func (w *Worker) HandleLessonProcess(ctx context.Context, t *asynq.Task) error {
	lessonID := string(t.Payload())
	if lessonID == "" {
		return fmt.Errorf("empty lesson ID payload: %w", asynq.SkipRetry)
	}

	return w.processor.ProcessLesson(ctx, lessonID)
}

// HandleParentEmail delivers a shared parent email output
func (w *Worker) HandleParentEmail(ctx context.Context, t *asynq.Task) error {
	outputID := string(t.Payload())
	if outputID == "" {
		return fmt.Errorf("empty output ID payload: %w", asynq.SkipRetry)
	}

	delivery, err := w.outputRepo.GetForDelivery(ctx, outputID)
	if err != nil {
		// Output was deleted before delivery, nothing to send
		if err.Error() == "output not found" {
			return nil
		}
		return err
	}

	if delivery.ParentEmail == "" {
		w.logger.Info("No parent email on file, skipping delivery",
			zap.String("output_id", outputID),
			zap.String("student", delivery.StudentName))
		return nil
	}

	subject := fmt.Sprintf("%s's %s Lesson - %s",
		delivery.StudentName,
		delivery.Instrument,
		delivery.LessonDate.Format("January 2"))

	if err := w.sendEmail(delivery.ParentEmail, subject, delivery.Content); err != nil {
		return err
	}

	w.logger.Info("Parent email delivered",
		zap.String("output_id", outputID),
		zap.String("student", delivery.StudentName))
	return nil
}

// HandleCleanup removes stale lessons and orphaned audio files
func (w *Worker) HandleCleanup(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-w.staleAge)

	deleted, err := w.lessonRepo.DeleteStale(ctx, cutoff)
	if err != nil {
		return err
	}

	referenced, err := w.lessonRepo.GetAudioFilenames(ctx)
	if err != nil {
		return err
	}

	stored, err := w.audio.ListOlderThan(time.Now().Add(-orphanGrace))
	if err != nil {
		return err
	}

	orphans := 0
	for _, filename := range stored {
		if _, ok := referenced[filename]; ok {
			continue
		}
		if err := w.audio.Delete(filename); err != nil {
			w.logger.Warn("failed to delete orphaned audio file",
				zap.Error(err),
				zap.String("filename", filename))
			continue
		}
		orphans++
	}

	w.logger.Info("Cleanup completed",
		zap.Int64("stale_lessons", deleted),
		zap.Int("orphaned_files", orphans))
	return nil
}

// sendEmail sends an email using gopkg.in/mail.v2
func (w *Worker) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", w.smtpFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(w.smtpHost, w.smtpPort, w.smtpUsername, w.smtpPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
