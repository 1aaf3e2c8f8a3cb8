package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/notesquared/backend/internal/models"
)

// Extractor derives structured musical instruction from a lesson transcript
type Extractor interface {
	// Method Extract analyzes the transcript and returns the structured
	// instruction it contains: skills practiced, repertoire worked on,
	// homework assignments and feedback.
	//
	// If extraction fails, the error will be returned together with nil.
	Extract(ctx context.Context, transcript, studentName, instrument string) (*Extraction, error)
}

// Generator renders the three lesson artifacts from an extraction
type Generator interface {
	// Method Generate produces the student recap, practice plan and parent
	// email from the structured extraction.
	//
	// The returned map contains one entry per output type.
	Generate(ctx context.Context, extraction *Extraction, studentName, instrument string) (map[models.OutputType]string, error)
}

const extractionSystemPrompt = `You are an assistant for music teachers. You receive the transcript of a
recorded music lesson and return the structured instruction it contains as JSON with exactly these keys:
student_name, instrument, lesson_date, skills_practiced (array of {name, status, notes}),
repertoire (array of {piece, focus_measures, issues, solutions}),
assignments (array of {task, details, duration_minutes}),
positive_feedback (array of strings), areas_for_improvement (array of strings).
Only report what the transcript supports. Respond with JSON only.`

// OpenAIExtractor extracts structured instruction with a chat model in JSON mode
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor creates an extractor backed by the OpenAI chat API
func NewOpenAIExtractor(client *openai.Client, model string) *OpenAIExtractor {
	return &OpenAIExtractor{
		client: client,
		model:  model,
	}
}

// Extract sends the transcript to the chat model and parses the JSON reply
func (e *OpenAIExtractor) Extract(ctx context.Context, transcript, studentName, instrument string) (*Extraction, error) {
	userPrompt := fmt.Sprintf("Student: %s\nInstrument: %s\nLesson date: %s\n\nTranscript:\n%s",
		studentName, instrument, time.Now().Format("2006-01-02"), transcript)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai extraction failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai extraction returned no choices")
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}

	// The model occasionally drops the identity fields, so backfill them
	if extraction.StudentName == "" {
		extraction.StudentName = studentName
	}
	if extraction.Instrument == "" {
		extraction.Instrument = instrument
	}
	if extraction.LessonDate == "" {
		extraction.LessonDate = time.Now().Format("2006-01-02")
	}

	return &extraction, nil
}

var generationPrompts = map[models.OutputType]string{
	models.OutputStudentRecap: `Write a short, encouraging lesson recap in Markdown addressed to the student.
Sections: "What Went Well", "Areas to Focus On", "Teacher's Note". Keep the tone warm and specific.`,
	models.OutputPracticePlan: `Write a 7-day practice plan in Markdown based on the assignments.
One section per day with checkbox items and durations, plus a "Weekly Goal" line at the end.`,
	models.OutputParentEmail: `Write an email to the student's parent summarizing the lesson.
Start with a "**Subject**:" line. Cover progress, focus areas and practice reminders.
Sign off as "[Teacher Name]" so the teacher can fill in their own name.`,
}

// OpenAIGenerator renders the lesson artifacts with a chat model
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator backed by the OpenAI chat API
func NewOpenAIGenerator(client *openai.Client, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: client,
		model:  model,
	}
}

// Generate renders each output type from the extraction in turn
func (g *OpenAIGenerator) Generate(ctx context.Context, extraction *Extraction, studentName, instrument string) (map[models.OutputType]string, error) {
	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction: %w", err)
	}

	outputs := make(map[models.OutputType]string, len(generationPrompts))
	for outputType, prompt := range generationPrompts {
		userPrompt := fmt.Sprintf("%s\n\nStudent: %s\nInstrument: %s\n\nLesson data:\n%s",
			prompt, studentName, instrument, extractionJSON)

		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("openai generation failed for %s: %w", outputType, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai generation returned no choices for %s", outputType)
		}

		outputs[outputType] = resp.Choices[0].Message.Content
	}

	return outputs, nil
}

// SimulatedExtractor returns a fixed demo extraction. Used when no OpenAI key
// is configured.
type SimulatedExtractor struct{}

// NewSimulatedExtractor creates the demo extractor
func NewSimulatedExtractor() *SimulatedExtractor {
	return &SimulatedExtractor{}
}

// Extract returns the demo extraction with the student's identity filled in
func (e *SimulatedExtractor) Extract(ctx context.Context, transcript, studentName, instrument string) (*Extraction, error) {
	return &Extraction{
		StudentName: studentName,
		Instrument:  instrument,
		LessonDate:  time.Now().Format("2006-01-02"),
		SkillsPracticed: []Skill{
			{Name: "C Major Scale", Status: "improving", Notes: "Evenness much better"},
			{Name: "Finger Position", Status: "focus_area", Notes: "Keep wrists relaxed, fingers curved"},
		},
		Repertoire: []Piece{
			{
				Piece:         "Bach Minuet",
				FocusMeasures: "12-16",
				Issues:        []string{"Left hand rushing"},
				Solutions:     []string{"Count 1-and-2-and while playing"},
			},
			{
				Piece:         "Sonatina",
				FocusMeasures: "8-12",
				Issues:        []string{"Dynamics need work"},
				Solutions:     []string{"Focus on crescendo, exaggerate dynamic change"},
			},
		},
		Assignments: []Assignment{
			{Task: "C Major Scale", Details: "Hands separate then together at 60 BPM", DurationMinutes: 5},
			{Task: "Bach Minuet mm. 12-16", Details: "Left hand only, then hands together slowly", DurationMinutes: 10},
			{Task: "Sonatina mm. 8-12", Details: "Work on crescendo, exaggerate dynamics", DurationMinutes: 5},
			{Task: "Bach memorization", Details: "Memorize first line", DurationMinutes: 5},
		},
		PositiveFeedback: []string{
			"C major scale evenness improved significantly",
			"Good progress on finger technique",
		},
		AreasForImprovement: []string{
			"Left hand coordination in Bach",
			"Dynamic expression in Sonatina",
		},
	}, nil
}

// SimulatedGenerator renders fixed demo artifacts. Used when no OpenAI key is
// configured.
type SimulatedGenerator struct{}

// NewSimulatedGenerator creates the demo generator
func NewSimulatedGenerator() *SimulatedGenerator {
	return &SimulatedGenerator{}
}

// Generate renders the three demo artifacts
func (g *SimulatedGenerator) Generate(ctx context.Context, extraction *Extraction, studentName, instrument string) (map[models.OutputType]string, error) {
	today := time.Now()
	todayStr := today.Format("January 2")
	weekEnd := today.AddDate(0, 0, 6).Format("January 2")

	recap := fmt.Sprintf(`# Lesson Recap - %s

## What Went Well

- Your C major scale had excellent evenness today - much improved from last week!
- Great job maintaining relaxed wrists and curved fingers
- The Bach Minuet is coming along nicely

## Areas to Focus On

- Left hand is rushing in measures 12-16 of the Bach - remember to count "1-and-2-and"
- Work on the dynamics in the Sonatina, especially the crescendo in measures 8-12

## Teacher's Note

Really proud of your progress this week! The scale work is paying off. Keep up the great practice habits and you'll be ready to increase the tempo soon.
`, todayStr)

	plan := fmt.Sprintf(`# Practice Plan - %s to %s

## Day 1
- [ ] C Major Scale: hands separate, then together at 60 BPM (5 min)
- [ ] Bach Minuet: measures 12-16, left hand only (10 min)
- [ ] Sonatina: play through measures 8-12 focusing on dynamics (5 min)

## Day 2
- [ ] C Major Scale: hands together at 60 BPM (5 min)
- [ ] Bach Minuet: measures 12-16, hands together slowly (10 min)
- [ ] Sonatina: exaggerate the crescendo in measures 8-12 (5 min)

## Day 3
- [ ] C Major Scale: hands together, focus on weak third finger (5 min)
- [ ] Bach Minuet: full piece, slow tempo (10 min)
- [ ] Sonatina: work on dynamic contrast (5 min)

## Day 4
- [ ] C Major Scale: increase tempo if comfortable (5 min)
- [ ] Bach Minuet: memorize first line (10 min)
- [ ] Sonatina: play through with all dynamics (5 min)

## Day 5
- [ ] C Major Scale: hands together at comfortable tempo (5 min)
- [ ] Bach Minuet: review memorized section (10 min)
- [ ] Sonatina: record yourself and listen back (5 min)

## Day 6
- [ ] C Major Scale: hands together, smooth and even (5 min)
- [ ] Bach Minuet: practice hands together at performance tempo (10 min)
- [ ] Sonatina: full run-through with dynamics (5 min)

## Day 7 (Light Review)
- [ ] Play through all pieces once, noting any trouble spots
- [ ] Review memorized Bach section

**Weekly Goal**: Memorize the first line of the Bach Minuet and maintain even tempo in measures 12-16.
`, todayStr, weekEnd)

	email := fmt.Sprintf(`**Subject**: %s's %s Lesson - %s

Dear Parent,

%s had a wonderful lesson today! Here are the highlights:

**Progress This Week:**
- The C major scale has improved significantly - the evenness and finger technique are much better
- Good work on maintaining proper hand position with relaxed wrists

**Focus Areas:**
This week, we're concentrating on:
- Bach Minuet measures 12-16 (left hand coordination)
- Sonatina dynamics, especially the crescendo in measures 8-12

**Practice Reminders:**
- C Major Scale at 60 BPM daily (5 minutes)
- Bach Minuet measures 12-16, left hand first, then hands together (10 minutes)
- Sonatina measures 8-12, focusing on dynamic changes (5 minutes)

Please encourage %s to use the metronome during scale practice - it really helps with evenness!

I've attached a detailed practice plan for the week. Let me know if you have any questions.

Best regards,
[Teacher Name]
`, studentName, instrument, todayStr, studentName, studentName)

	return map[models.OutputType]string{
		models.OutputStudentRecap: recap,
		models.OutputPracticePlan: plan,
		models.OutputParentEmail:  email,
	}, nil
}
