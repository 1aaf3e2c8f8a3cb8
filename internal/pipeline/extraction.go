package pipeline

// Extraction is the structured musical instruction pulled from a transcript
type Extraction struct {
	StudentName         string       `json:"student_name"`
	Instrument          string       `json:"instrument"`
	LessonDate          string       `json:"lesson_date"`
	SkillsPracticed     []Skill      `json:"skills_practiced"`
	Repertoire          []Piece      `json:"repertoire"`
	Assignments         []Assignment `json:"assignments"`
	PositiveFeedback    []string     `json:"positive_feedback"`
	AreasForImprovement []string     `json:"areas_for_improvement"`
}

// Skill is one technique or fundamental worked on during the lesson
type Skill struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Piece is one repertoire item with the trouble spots identified in the lesson
type Piece struct {
	Piece         string   `json:"piece"`
	FocusMeasures string   `json:"focus_measures"`
	Issues        []string `json:"issues"`
	Solutions     []string `json:"solutions"`
}

// Assignment is one homework item for the week
type Assignment struct {
	Task            string `json:"task"`
	Details         string `json:"details"`
	DurationMinutes int    `json:"duration_minutes"`
}
