package client

import "time"

// Status is a lesson's processing stage as reported by the API
type Status string

const (
	StatusCreated      Status = "CREATED"
	StatusUploaded     Status = "UPLOADED"
	StatusTranscribing Status = "TRANSCRIBING"
	StatusExtracting   Status = "EXTRACTING"
	StatusGenerating   Status = "GENERATING"
	StatusCompleted    Status = "COMPLETED"
	StatusFailed       Status = "FAILED"
)

// IsProcessing reports whether the status is a non-terminal pipeline stage
func (s Status) IsProcessing() bool {
	switch s {
	case StatusUploaded, StatusTranscribing, StatusExtracting, StatusGenerating:
		return true
	}
	return false
}

// IsTerminal reports whether the status is COMPLETED or FAILED
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// statusLabels maps each known status to its display label
var statusLabels = map[Status]string{
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
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// OutputType is the kind of generated artifact
type OutputType string

const (
	OutputStudentRecap OutputType = "STUDENT_RECAP"
	OutputPracticePlan OutputType = "PRACTICE_PLAN"
	OutputParentEmail  OutputType = "PARENT_EMAIL"
)

// OutputTypeMeta is display metadata for one output kind
type OutputTypeMeta struct {
	Title       string
	Description string
}

// outputTypeMeta maps each known output kind to its display metadata
var outputTypeMeta = map[OutputType]OutputTypeMeta{
	OutputStudentRecap: {Title: "Student Recap", Description: "Lesson summary addressed to the student"},
	OutputPracticePlan: {Title: "Practice Plan", Description: "Day-by-day practice schedule for the week"},
	OutputParentEmail:  {Title: "Parent Email", Description: "Lesson summary email for the student's parent"},
}

// unknownOutputMeta is used for output kinds this client version doesn't know
var unknownOutputMeta = OutputTypeMeta{Title: "Output", Description: "Generated output"}

// Meta returns display metadata for the output kind, falling back to a
// neutral presentation for unknown kinds
func (t OutputType) Meta() OutputTypeMeta {
	if meta, ok := outputTypeMeta[t]; ok {
		return meta
	}
	return unknownOutputMeta
}

// TokenResponse carries issued tokens
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is a teacher account profile
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// Student is a roster entry
type Student struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	Instrument  string    `json:"instrument"`
	Level       string    `json:"level"`
	ParentEmail string    `json:"parentEmail,omitempty"`
	ParentName  string    `json:"parentName,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsArchived  bool      `json:"isArchived"`
	LessonCount int       `json:"lessonCount,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateStudentRequest adds a student to the roster
type CreateStudentRequest struct {
	FullName    string `json:"fullName"`
	Instrument  string `json:"instrument"`
	Level       string `json:"level,omitempty"`
	ParentEmail string `json:"parentEmail,omitempty"`
	ParentName  string `json:"parentName,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Lesson is a recorded teaching session and its processing state
type Lesson struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentId"`
	StudentName     string    `json:"studentName"`
	LessonDate      string    `json:"lessonDate"`
	Status          Status    `json:"status"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LessonDetail is a lesson with its transcript and generated outputs
type LessonDetail struct {
	Lesson
	Transcript string   `json:"transcript,omitempty"`
	Outputs    []Output `json:"outputs"`
}

// LessonStatus is the lightweight polling payload
type LessonStatus struct {
	ID           string `json:"id"`
	Status       Status `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Output is one generated artifact
type Output struct {
	ID              string     `json:"id"`
	LessonID        string     `json:"lessonId"`
	OutputType      OutputType `json:"outputType"`
	Content         string     `json:"content"`
	OriginalContent string     `json:"originalContent,omitempty"`
	IsEdited        bool       `json:"isEdited"`
	IsShared        bool       `json:"isShared"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
