package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// pollInterval is the fixed delay between status polls
const pollInterval = 2 * time.Second

// fetchTimeout bounds a single poll fetch
const fetchTimeout = 10 * time.Second

// LessonFetcher is the interface that wraps the lesson reads and retry call
// the tracker needs
type LessonFetcher interface {
	// Method GetLesson retrieves a lesson with its outputs.
	//
	// "lessonID" parameter is used to retrieve a lesson by ID.
	//
	// If some error occurs during retrieval, the error will be returned together with "nil" value.
	GetLesson(ctx context.Context, lessonID string) (*LessonDetail, error)
	// Method ReprocessLesson re-runs processing for a failed lesson.
	//
	// "lessonID" parameter is used to reprocess a lesson by ID.
	//
	// If some error occurs during the call, the error will be returned together with "nil" value.
	ReprocessLesson(ctx context.Context, lessonID string) (*Lesson, error)
}

// LoadError is a failed initial load. It is fatal to the tracker's session:
// the tracker does not retry, the caller is expected to navigate away.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load lesson: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Tracker follows one lesson through the processing pipeline. It polls the
// API while the lesson is in a processing status, stops on its own once the
// status turns terminal, and exposes the most recently fetched state.
//
// A tracker instance serves a single view of a single lesson. Dispose must be
// called when the view goes away, otherwise the poll timer keeps firing.
type Tracker struct {
	fetcher  LessonFetcher
	logger   *zap.Logger
	interval time.Duration

	mu         sync.Mutex
	lessonID   string
	lesson     *LessonDetail
	timer      *time.Timer
	generation uint64
	fetching   bool
	busy       bool
}

// NewTracker creates a tracker polling through the given fetcher
func NewTracker(fetcher LessonFetcher, logger *zap.Logger) *Tracker {
	return &Tracker{
		fetcher:  fetcher,
		logger:   logger,
		interval: pollInterval,
	}
}

// Load fetches the lesson and replaces the tracker's held state. A fetch
// failure is returned as *LoadError and the tracker holds no lesson; Load
// performs no retry.
func (t *Tracker) Load(ctx context.Context, lessonID string) error {
	lesson, err := t.fetcher.GetLesson(ctx, lessonID)
	if err != nil {
		return &LoadError{Err: err}
	}

	t.mu.Lock()
	t.lessonID = lessonID
	t.lesson = lesson
	t.mu.Unlock()
	return nil
}

// EvaluateAndSchedule starts polling if the held lesson is in a processing
// status and stops it otherwise. Calling it again always cancels the previous
// timer first, so at most one timer is active per tracker.
func (t *Tracker) EvaluateAndSchedule() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	if t.lesson != nil && t.lesson.Status.IsProcessing() {
		t.scheduleLocked(t.generation)
	}
}

// Retry re-runs processing for a failed lesson, then reloads and resumes
// polling. While a retry is in flight Busy reports true and further Retry
// calls fail, so the UI can disable its retry control.
func (t *Tracker) Retry(ctx context.Context) error {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return fmt.Errorf("retry already in progress")
	}
	if t.lesson == nil || t.lesson.Status != StatusFailed {
		t.mu.Unlock()
		return fmt.Errorf("can only retry a failed lesson")
	}
	lessonID := t.lessonID
	t.busy = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.busy = false
		t.mu.Unlock()
	}()

	if _, err := t.fetcher.ReprocessLesson(ctx, lessonID); err != nil {
		return err
	}

	if err := t.Load(ctx, lessonID); err != nil {
		return err
	}

	t.EvaluateAndSchedule()
	return nil
}

// Dispose cancels any active poll timer. A fetch already in flight is not
// aborted, but its result is discarded when it completes.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Lesson returns the most recently fetched lesson state
func (t *Tracker) Lesson() *LessonDetail {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lesson
}

// Status returns the held lesson's status, or empty before the first load
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lesson == nil {
		return ""
	}
	return t.lesson.Status
}

// Polling reports whether a poll timer is currently active
func (t *Tracker) Polling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Busy reports whether a retry is in flight
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// cancelLocked stops the active timer and advances the generation so that a
// tick or fetch completion from before the cancel is ignored
func (t *Tracker) cancelLocked() {
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// scheduleLocked arms the poll timer for the given generation
func (t *Tracker) scheduleLocked(gen uint64) {
	t.timer = time.AfterFunc(t.interval, func() {
		t.pollTick(gen)
	})
}

// pollTick re-fetches the lesson and replaces the held state. A fetch failure
// is logged and swallowed with the next tick still scheduled; a terminal
// status stops the poll. Ticks belonging to a cancelled generation do nothing.
func (t *Tracker) pollTick(gen uint64) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	if t.fetching {
		// Previous tick's fetch is still running, skip this one
		t.scheduleLocked(gen)
		t.mu.Unlock()
		return
	}
	t.fetching = true
	lessonID := t.lessonID
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	lesson, err := t.fetcher.GetLesson(ctx, lessonID)
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetching = false

	// Cancelled while the fetch was in flight, discard the result
	if gen != t.generation {
		return
	}

	if err != nil {
		t.logger.Warn("lesson status poll failed",
			zap.String("lessonID", lessonID),
			zap.Error(err))
		t.scheduleLocked(gen)
		return
	}

	t.lesson = lesson
	if lesson.Status.IsProcessing() {
		t.scheduleLocked(gen)
	} else {
		t.timer = nil
	}
}
