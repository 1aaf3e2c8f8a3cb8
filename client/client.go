// Package client is a typed Go client for the Note Squared API.
//
// It wraps the REST surface with typed requests and responses, carries the
// bearer token for authenticated calls, and exposes the lesson status Tracker
// used to follow a lesson through the processing pipeline.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the server rejects the client's token.
// The stored token is cleared before the error is returned, so the caller
// should re-authenticate.
var ErrUnauthorized = errors.New("unauthorized")

// Client is a typed client for the Note Squared API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8080/v1")
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken stores the bearer token used for authenticated calls
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// Token returns the currently stored bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// ClearToken drops the stored bearer token
func (c *Client) ClearToken() {
	c.SetToken("")
}

// apiError is the error payload shape served by the API
type apiError struct {
	Error string `json:"error"`
}

// do executes one API call. "body" is JSON-encoded when non-nil, "out" is
// JSON-decoded from the response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send attaches the token, executes the request and decodes the response
func (c *Client) send(req *http.Request, out any) error {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token is no longer valid, force a re-login
		c.ClearToken()
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Register creates a teacher account and stores the returned access token
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*TokenResponse, error) {
	var tokens TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"fullName": fullName,
	}, &tokens)
	if err != nil {
		return nil, err
	}
	c.SetToken(tokens.AccessToken)
	return &tokens, nil
}

// Login authenticates and stores the returned access token
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var tokens TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &tokens)
	if err != nil {
		return nil, err
	}
	c.SetToken(tokens.AccessToken)
	return &tokens, nil
}

// Me returns the authenticated teacher's profile
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateStudent adds a student to the roster
func (c *Client) CreateStudent(ctx context.Context, req *CreateStudentRequest) (*Student, error) {
	var student Student
	if err := c.do(ctx, http.MethodPost, "/students/", req, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListStudents returns the roster with lesson counts
func (c *Client) ListStudents(ctx context.Context, includeArchived bool) ([]Student, error) {
	path := "/students/"
	if includeArchived {
		path += "?include_archived=true"
	}
	var students []Student
	if err := c.do(ctx, http.MethodGet, path, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// GetStudent returns one student
func (c *Client) GetStudent(ctx context.Context, studentID string) (*Student, error) {
	var student Student
	if err := c.do(ctx, http.MethodGet, "/students/"+url.PathEscape(studentID), nil, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Instruments returns the instrument choices
func (c *Client) Instruments(ctx context.Context) ([]string, error) {
	var instruments []string
	if err := c.do(ctx, http.MethodGet, "/students/instruments", nil, &instruments); err != nil {
		return nil, err
	}
	return instruments, nil
}

// CreateLesson records a new lesson awaiting audio
func (c *Client) CreateLesson(ctx context.Context, studentID, lessonDate string) (*Lesson, error) {
	var lesson Lesson
	err := c.do(ctx, http.MethodPost, "/lessons/", map[string]string{
		"studentId":  studentID,
		"lessonDate": lessonDate,
	}, &lesson)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// UploadLessonAudio uploads the recording for a lesson and starts processing
func (c *Client) UploadLessonAudio(ctx context.Context, lessonID, filename, contentType string, audio io.Reader) (*Lesson, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="audio"; filename="%s"`, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("failed to buffer audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lessons/"+url.PathEscape(lessonID)+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var lesson Lesson
	if err := c.send(req, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListLessons returns the teacher's lessons, optionally filtered by student
func (c *Client) ListLessons(ctx context.Context, studentID string) ([]Lesson, error) {
	path := "/lessons/"
	if studentID != "" {
		path += "?student_id=" + url.QueryEscape(studentID)
	}
	var lessons []Lesson
	if err := c.do(ctx, http.MethodGet, path, nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// GetLesson returns a lesson with its transcript and outputs
func (c *Client) GetLesson(ctx context.Context, lessonID string) (*LessonDetail, error) {
	var lesson LessonDetail
	if err := c.do(ctx, http.MethodGet, "/lessons/"+url.PathEscape(lessonID), nil, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// GetLessonStatus returns the lightweight polling payload
func (c *Client) GetLessonStatus(ctx context.Context, lessonID string) (*LessonStatus, error) {
	var status LessonStatus
	if err := c.do(ctx, http.MethodGet, "/lessons/"+url.PathEscape(lessonID)+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ReprocessLesson retries processing for a failed lesson
func (c *Client) ReprocessLesson(ctx context.Context, lessonID string) (*Lesson, error) {
	var lesson Lesson
	if err := c.do(ctx, http.MethodPost, "/lessons/"+url.PathEscape(lessonID)+"/process", nil, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// GetOutput returns one generated output
func (c *Client) GetOutput(ctx context.Context, outputID string) (*Output, error) {
	var output Output
	if err := c.do(ctx, http.MethodGet, "/outputs/"+url.PathEscape(outputID), nil, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// UpdateOutput replaces an output's content
func (c *Client) UpdateOutput(ctx context.Context, outputID, content string) (*Output, error) {
	var output Output
	err := c.do(ctx, http.MethodPatch, "/outputs/"+url.PathEscape(outputID), map[string]string{
		"content": content,
	}, &output)
	if err != nil {
		return nil, err
	}
	return &output, nil
}

// ShareOutput marks an output as shared
func (c *Client) ShareOutput(ctx context.Context, outputID string) (*Output, error) {
	var output Output
	if err := c.do(ctx, http.MethodPost, "/outputs/"+url.PathEscape(outputID)+"/share", nil, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// RevertOutput restores an edited output to its generated content
func (c *Client) RevertOutput(ctx context.Context, outputID string) (*Output, error) {
	var output Output
	if err := c.do(ctx, http.MethodPost, "/outputs/"+url.PathEscape(outputID)+"/revert", nil, &output); err != nil {
		return nil, err
	}
	return &output, nil
}
