package models

import "time"

// OutputType represents the kind of generated artifact
type OutputType string

const (
	OutputStudentRecap OutputType = "STUDENT_RECAP"
	OutputPracticePlan OutputType = "PRACTICE_PLAN"
	OutputParentEmail  OutputType = "PARENT_EMAIL"
)

// OutputTypeMeta holds display metadata for an output kind
type OutputTypeMeta struct {
	Title string
	Order int
}

// outputTypeMeta maps known output kinds to display metadata. Ordering
// controls how outputs are sorted in lesson detail responses.
var outputTypeMeta = map[OutputType]OutputTypeMeta{
	OutputStudentRecap: {Title: "Student Recap", Order: 0},
	OutputPracticePlan: {Title: "Practice Plan", Order: 1},
	OutputParentEmail:  {Title: "Parent Email", Order: 2},
}

// unknownOutputMeta is the fallback for output kinds this build does not know about
var unknownOutputMeta = OutputTypeMeta{Title: "Output", Order: 99}

// Meta returns display metadata for the output type, falling back to a
// neutral default for unknown kinds.
func (t OutputType) Meta() OutputTypeMeta {
	if meta, ok := outputTypeMeta[t]; ok {
		return meta
	}
	return unknownOutputMeta
}

// Output represents a generated artifact derived from a lesson transcript
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

// UpdateOutputRequest represents a request to edit an output's content
type UpdateOutputRequest struct {
	Content string `json:"content"`
}

// OutputResponse represents an output in API responses
type OutputResponse struct {
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
