package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/models"
)

// mockLessonStore is a mock implementation of LessonStore
type mockLessonStore struct {
	lesson         *models.Lesson
	getErr         error
	updateErr      error
	statuses       []models.LessonStatus
	transcript     string
	extraction     string
	failedMessage  string
	markFailedErr  error
	markFailedSeen bool
}

func (m *mockLessonStore) GetForProcessing(ctx context.Context, lessonID string) (*models.Lesson, string, string, error) {
	if m.getErr != nil {
		return nil, "", "", m.getErr
	}
	return m.lesson, "Mia Chen", "Piano", nil
}

func (m *mockLessonStore) UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *mockLessonStore) MarkFailed(ctx context.Context, lessonID, errorMessage string) error {
	m.markFailedSeen = true
	m.failedMessage = errorMessage
	return m.markFailedErr
}

func (m *mockLessonStore) SetTranscript(ctx context.Context, lessonID, transcript string) error {
	m.transcript = transcript
	return nil
}

func (m *mockLessonStore) SetExtraction(ctx context.Context, lessonID, extraction string) error {
	m.extraction = extraction
	return nil
}

// mockOutputStore is a mock implementation of OutputStore
type mockOutputStore struct {
	created   []*models.Output
	deleted   []string
	createErr error
}

func (m *mockOutputStore) Create(ctx context.Context, output *models.Output) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, output)
	return nil
}

func (m *mockOutputStore) DeleteByLessonID(ctx context.Context, lessonID string) error {
	m.deleted = append(m.deleted, lessonID)
	return nil
}

// mockTranscriber is a mock implementation of Transcriber
type mockTranscriber struct {
	transcript string
	err        error
	audioURL   string
	path       string
}

func (m *mockTranscriber) Transcribe(ctx context.Context, filename, audioURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.path = filename
	m.audioURL = audioURL
	return m.transcript, nil
}

// mockExtractor is a mock implementation of Extractor
type mockExtractor struct {
	extraction *Extraction
	err        error
}

func (m *mockExtractor) Extract(ctx context.Context, transcript, studentName, instrument string) (*Extraction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.extraction, nil
}

// mockGenerator is a mock implementation of Generator
type mockGenerator struct {
	outputs map[models.OutputType]string
	err     error
}

func (m *mockGenerator) Generate(ctx context.Context, extraction *Extraction, studentName, instrument string) (map[models.OutputType]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.outputs, nil
}

// mockAudioPather is a mock implementation of AudioPather
type mockAudioPather struct{}

func (m *mockAudioPather) Path(filename string) string {
	return "/uploads/" + filename
}

func uploadedLesson() *models.Lesson {
	return &models.Lesson{
		ID:       "lesson-id-123",
		AudioURL: "lesson-id-123.mp3",
		Status:   models.StatusUploaded,
	}
}

func newTestProcessor(lessons *mockLessonStore, outputs *mockOutputStore, transcriber Transcriber, extractor Extractor, generator Generator) *Processor {
	return NewProcessor(lessons, outputs, transcriber, extractor, generator, &mockAudioPather{}, "http://localhost:8080/uploads/", zap.NewNop())
}

func TestProcessorProcessLesson(t *testing.T) {
	lessons := &mockLessonStore{lesson: uploadedLesson()}
	outputs := &mockOutputStore{}
	transcriber := &mockTranscriber{transcript: "transcript text"}
	extractor := &mockExtractor{extraction: &Extraction{StudentName: "Mia Chen", Instrument: "Piano"}}
	generator := &mockGenerator{outputs: map[models.OutputType]string{
		models.OutputStudentRecap: "# Recap",
		models.OutputPracticePlan: "# Plan",
		models.OutputParentEmail:  "Dear parent",
	}}
	processor := newTestProcessor(lessons, outputs, transcriber, extractor, generator)

	err := processor.ProcessLesson(context.Background(), "lesson-id-123")

	assert.NoError(t, err)
	assert.Equal(t, []models.LessonStatus{
		models.StatusTranscribing,
		models.StatusExtracting,
		models.StatusGenerating,
		models.StatusCompleted,
	}, lessons.statuses)
	assert.Equal(t, "transcript text", lessons.transcript)
	assert.JSONEq(t, `{"student_name":"Mia Chen","instrument":"Piano","lesson_date":"","skills_practiced":null,"repertoire":null,"assignments":null,"positive_feedback":null,"areas_for_improvement":null}`, lessons.extraction)
	assert.Equal(t, []string{"lesson-id-123"}, outputs.deleted)
	assert.Len(t, outputs.created, 3)
	assert.Equal(t, "/uploads/lesson-id-123.mp3", transcriber.path)
	assert.Equal(t, "http://localhost:8080/uploads/lesson-id-123.mp3", transcriber.audioURL)
	assert.False(t, lessons.markFailedSeen)
}

func TestProcessorDropsDeletedLesson(t *testing.T) {
	lessons := &mockLessonStore{getErr: errors.New("lesson not found")}
	processor := newTestProcessor(lessons, &mockOutputStore{}, &mockTranscriber{}, &mockExtractor{}, &mockGenerator{})

	err := processor.ProcessLesson(context.Background(), "gone")

	assert.NoError(t, err)
	assert.False(t, lessons.markFailedSeen)
}

func TestProcessorLoadFailureIsRetryable(t *testing.T) {
	lessons := &mockLessonStore{getErr: errors.New("connection refused")}
	processor := newTestProcessor(lessons, &mockOutputStore{}, &mockTranscriber{}, &mockExtractor{}, &mockGenerator{})

	err := processor.ProcessLesson(context.Background(), "lesson-id-123")

	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestProcessorMarksFailedAndSkipsRetry(t *testing.T) {
	tests := []struct {
		name        string
		transcriber *mockTranscriber
		extractor   *mockExtractor
		generator   *mockGenerator
		expected    string
	}{
		{
			name:        "transcription failure",
			transcriber: &mockTranscriber{err: errors.New("whisper timeout")},
			extractor:   &mockExtractor{},
			generator:   &mockGenerator{},
			expected:    "transcription failed: whisper timeout",
		},
		{
			name:        "extraction failure",
			transcriber: &mockTranscriber{transcript: "text"},
			extractor:   &mockExtractor{err: errors.New("bad json")},
			generator:   &mockGenerator{},
			expected:    "extraction failed: bad json",
		},
		{
			name:        "generation failure",
			transcriber: &mockTranscriber{transcript: "text"},
			extractor:   &mockExtractor{extraction: &Extraction{}},
			generator:   &mockGenerator{err: errors.New("rate limited")},
			expected:    "generation failed: rate limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lessons := &mockLessonStore{lesson: uploadedLesson()}
			processor := newTestProcessor(lessons, &mockOutputStore{}, tt.transcriber, tt.extractor, tt.generator)

			err := processor.ProcessLesson(context.Background(), "lesson-id-123")

			require.Error(t, err)
			assert.ErrorIs(t, err, asynq.SkipRetry)
			assert.True(t, lessons.markFailedSeen)
			assert.Equal(t, tt.expected, lessons.failedMessage)
		})
	}
}

func TestProcessorRejectsLessonWithoutAudio(t *testing.T) {
	lesson := uploadedLesson()
	lesson.AudioURL = ""
	lessons := &mockLessonStore{lesson: lesson}
	processor := newTestProcessor(lessons, &mockOutputStore{}, &mockTranscriber{}, &mockExtractor{}, &mockGenerator{})

	err := processor.ProcessLesson(context.Background(), "lesson-id-123")

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, "lesson has no audio", lessons.failedMessage)
}

func TestSimulatedPipelineEndToEnd(t *testing.T) {
	lessons := &mockLessonStore{lesson: uploadedLesson()}
	outputs := &mockOutputStore{}
	processor := newTestProcessor(lessons, outputs, NewSimulatedTranscriber(), NewSimulatedExtractor(), NewSimulatedGenerator())

	err := processor.ProcessLesson(context.Background(), "lesson-id-123")

	assert.NoError(t, err)
	assert.NotEmpty(t, lessons.transcript)
	require.Len(t, outputs.created, 3)

	byType := make(map[models.OutputType]string, len(outputs.created))
	for _, output := range outputs.created {
		byType[output.OutputType] = output.Content
	}
	assert.Contains(t, byType[models.OutputStudentRecap], "Lesson Recap")
	assert.Contains(t, byType[models.OutputPracticePlan], "Practice Plan")
	assert.Contains(t, byType[models.OutputParentEmail], "Mia Chen")
}
