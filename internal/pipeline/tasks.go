// Package pipeline runs uploaded lesson audio through transcription,
// extraction and output generation
package pipeline

import "github.com/hibiken/asynq"

// Task type names consumed by the worker
const (
	TypeLessonProcess = "lesson:process"
	TypeParentEmail   = "email:parent"
	TypeCleanup       = "lesson:cleanup"
)

// Queue names
const (
	QueueLessons = "lessons"
	QueueDefault = "default"
)

// NewLessonProcessTask builds the task that runs a lesson through the pipeline.
// The payload is the lesson ID.
func NewLessonProcessTask(lessonID string) *asynq.Task {
	return asynq.NewTask(TypeLessonProcess, []byte(lessonID), asynq.Queue(QueueLessons))
}

// NewParentEmailTask builds the task that delivers a shared parent email.
// The payload is the output ID.
func NewParentEmailTask(outputID string) *asynq.Task {
	return asynq.NewTask(TypeParentEmail, []byte(outputID))
}

// NewCleanupTask builds the periodic cleanup task enqueued by the scheduler
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanup, nil)
}
