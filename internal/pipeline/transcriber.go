package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Transcriber converts stored lesson audio into a transcript
type Transcriber interface {
	// Method Transcribe produces a transcript for the audio file stored under "filename".
	//
	// "audioURL" parameter is the externally reachable URL of the audio file,
	// used by transcribers that cannot read local storage.
	//
	// If transcription fails, the error will be returned together with an empty string.
	Transcribe(ctx context.Context, filename, audioURL string) (string, error)
}

// OpenAITranscriber transcribes audio through the OpenAI audio API
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAITranscriber creates a transcriber backed by the OpenAI audio API
func NewOpenAITranscriber(client *openai.Client, model string) *OpenAITranscriber {
	return &OpenAITranscriber{
		client: client,
		model:  model,
	}
}

// Transcribe sends the stored audio file to the OpenAI transcription endpoint
func (t *OpenAITranscriber) Transcribe(ctx context.Context, filename, audioURL string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %w", err)
	}

	return resp.Text, nil
}

// WorkerTranscriber delegates transcription to an external whisper worker
type WorkerTranscriber struct {
	workerURL   string
	workerToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewWorkerTranscriber creates a transcriber backed by the whisper worker service
func NewWorkerTranscriber(workerURL, workerToken string, logger *zap.Logger) *WorkerTranscriber {
	return &WorkerTranscriber{
		workerURL:   strings.TrimRight(workerURL, "/"),
		workerToken: workerToken,
		httpClient:  &http.Client{Timeout: 180 * time.Second},
		logger:      logger,
	}
}

// Transcribe posts the audio URL to the worker's /transcribe endpoint
func (t *WorkerTranscriber) Transcribe(ctx context.Context, filename, audioURL string) (string, error) {
	if audioURL == "" {
		return "", fmt.Errorf("no audio URL available for worker transcription")
	}

	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", fmt.Errorf("failed to marshal worker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.workerURL+"/transcribe", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build worker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.workerToken != "" {
		req.Header.Set("X-Worker-Token", t.workerToken)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("worker returned status %d", resp.StatusCode)
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode worker response: %w", err)
	}

	if body.Text == "" {
		return "", fmt.Errorf("worker returned empty transcript")
	}

	return body.Text, nil
}

// SimulatedTranscriber returns a fixed demo transcript. Used when neither an
// OpenAI key nor a whisper worker is configured.
type SimulatedTranscriber struct{}

// NewSimulatedTranscriber creates the demo transcriber
func NewSimulatedTranscriber() *SimulatedTranscriber {
	return &SimulatedTranscriber{}
}

// Transcribe returns the demo transcript
func (t *SimulatedTranscriber) Transcribe(ctx context.Context, filename, audioURL string) (string, error) {
	return simulatedTranscript, nil
}

const simulatedTranscript = `
Let's start with the C major scale today. Remember to keep your wrists relaxed and your fingers curved.
Good! Try to make each note even. The third finger is a little weak, so really press down with it.

Now let's work on the Bach Minuet. Start from measure 12. The left hand is rushing here -
count "1 and 2 and 3 and" while you play. Good, that's better!

For the Sonatina, I want you to focus on the dynamics. There's a crescendo starting in measure 8
leading up to the forte in measure 12. Make sure you really bring out that contrast.

Your C major scale has improved a lot! The evenness is much better than last week.
Keep practicing with the metronome at 60 BPM this week, then we can speed it up.

For homework this week:
- Practice C major scale hands separate, then hands together, at 60 BPM
- Bach Minuet measures 12-16, left hand only first, then hands together slowly
- Sonatina - work on the crescendo in measures 8-12, really exaggerate the dynamic change
- Try to memorize the first line of the Bach by next week

Great lesson today! You're making excellent progress.
`
