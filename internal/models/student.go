package models

import "time"

// StudentLevel represents a student's skill level
type StudentLevel string

const (
	LevelBeginner     StudentLevel = "BEGINNER"
	LevelIntermediate StudentLevel = "INTERMEDIATE"
	LevelAdvanced     StudentLevel = "ADVANCED"
)

// Instruments lists the instruments a student can be registered with
var Instruments = []string{
	"Piano", "Violin", "Viola", "Cello", "Guitar", "Voice",
	"Flute", "Clarinet", "Saxophone", "Trumpet", "Drums", "Other",
}

// Student represents a student taught by a user
type Student struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"-"`
	FullName    string       `json:"fullName"`
	Instrument  string       `json:"instrument"`
	Level       StudentLevel `json:"level"`
	ParentEmail string       `json:"parentEmail,omitempty"`
	ParentName  string       `json:"parentName,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	IsArchived  bool         `json:"isArchived"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// CreateStudentRequest represents a request to create a student
type CreateStudentRequest struct {
	FullName    string       `json:"fullName"`
	Instrument  string       `json:"instrument"`
	Level       StudentLevel `json:"level,omitempty"`
	ParentEmail string       `json:"parentEmail,omitempty"`
	ParentName  string       `json:"parentName,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// UpdateStudentRequest represents a request to update a student.
// Nil pointer fields are left unchanged.
type UpdateStudentRequest struct {
	FullName    *string       `json:"fullName,omitempty"`
	Instrument  *string       `json:"instrument,omitempty"`
	Level       *StudentLevel `json:"level,omitempty"`
	ParentEmail *string       `json:"parentEmail,omitempty"`
	ParentName  *string       `json:"parentName,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID          string       `json:"id"`
	FullName    string       `json:"fullName"`
	Instrument  string       `json:"instrument"`
	Level       StudentLevel `json:"level"`
	ParentEmail string       `json:"parentEmail,omitempty"`
	ParentName  string       `json:"parentName,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	IsArchived  bool         `json:"isArchived"`
	LessonCount int          `json:"lessonCount"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
