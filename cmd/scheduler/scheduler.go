package main

import (
	"github.com/hibiken/asynq"
	"github.com/notesquared/backend/internal/pipeline"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskEnqueuer defines the queue operations the scheduler needs
type TaskEnqueuer interface {
	// Enqueue adds a task to the queue
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler enqueues periodic maintenance tasks on a cron schedule
type Scheduler struct {
	cron        *cron.Cron
	asynqClient TaskEnqueuer
	logger      *zap.Logger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(asynqClient TaskEnqueuer, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		asynqClient: asynqClient,
		logger:      logger,
	}
}

// Register adds the cleanup job with the given cron spec
func (s *Scheduler) Register(cleanupSpec string) error {
	_, err := s.cron.AddFunc(cleanupSpec, s.enqueueCleanup)
	if err != nil {
		return err
	}
	s.logger.Info("Registered cleanup job", zap.String("spec", cleanupSpec))
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// enqueueCleanup enqueues the stale lesson cleanup task
func (s *Scheduler) enqueueCleanup() {
	info, err := s.asynqClient.Enqueue(pipeline.NewCleanupTask())
	if err != nil {
		s.logger.Error("Failed to enqueue cleanup task", zap.Error(err))
		return
	}
	s.logger.Info("Enqueued cleanup task", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
}
