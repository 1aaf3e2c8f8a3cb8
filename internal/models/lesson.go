package models

import "time"

// LessonStatus represents the processing stage of a lesson recording
type LessonStatus string

const (
	StatusCreated      LessonStatus = "CREATED"
	StatusUploaded     LessonStatus = "UPLOADED"
	StatusTranscribing LessonStatus = "TRANSCRIBING"
	StatusExtracting   LessonStatus = "EXTRACTING"
	StatusGenerating   LessonStatus = "GENERATING"
	StatusCompleted    LessonStatus = "COMPLETED"
	StatusFailed       LessonStatus = "FAILED"
)

// IsProcessing reports whether the status is a non-terminal pipeline stage
func (s LessonStatus) IsProcessing() bool {
	switch s {
	case StatusUploaded, StatusTranscribing, StatusExtracting, StatusGenerating:
		return true
	}
	return false
}

// IsTerminal reports whether the status is COMPLETED or FAILED
func (s LessonStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// statusLabels maps each known status to its display label
var statusLabels = map[LessonStatus]string{
	StatusCreated:      "Awaiting upload",
	StatusUploaded:     "Queued",
	StatusTranscribing: "Transcribing",
	StatusExtracting:   "Analyzing",
	StatusGenerating:   "Writing outputs",
	StatusCompleted:    "Ready",
	StatusFailed:       "Failed",
}

// Label returns the display label for the status. Unknown statuses are
// rendered as-is rather than rejected.
func (s LessonStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Lesson represents a recorded teaching session and its processing state
type Lesson struct {
	ID              string       `json:"id"`
	OwnerID         string       `json:"-"`
	StudentID       string       `json:"studentId"`
	LessonDate      time.Time    `json:"lessonDate"`
	Status          LessonStatus `json:"status"`
	DurationSeconds int          `json:"durationSeconds,omitempty"`
	AudioURL        string       `json:"-"`
	Transcript      string       `json:"transcript,omitempty"`
	Extraction      string       `json:"-"` // raw JSON from the extraction step
	ErrorMessage    string       `json:"errorMessage,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// CreateLessonRequest represents a request to create a lesson
type CreateLessonRequest struct {
	StudentID  string `json:"studentId"`
	LessonDate string `json:"lessonDate,omitempty"` // YYYY-MM-DD, defaults to today
}

// LessonResponse represents a lesson in list and create responses
type LessonResponse struct {
	ID              string       `json:"id"`
	StudentID       string       `json:"studentId"`
	StudentName     string       `json:"studentName"`
	LessonDate      string       `json:"lessonDate"`
	Status          LessonStatus `json:"status"`
	DurationSeconds int          `json:"durationSeconds,omitempty"`
	ErrorMessage    string       `json:"errorMessage,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// LessonDetailResponse represents a lesson with transcript and outputs
type LessonDetailResponse struct {
	LessonResponse
	Transcript string           `json:"transcript,omitempty"`
	Outputs    []OutputResponse `json:"outputs"`
}

// LessonStatusResponse is the payload served to status pollers
type LessonStatusResponse struct {
	ID           string       `json:"id"`
	Status       LessonStatus `json:"status"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}
