package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLoginStoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "teacher@example.com", req["email"])

		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "access-1", RefreshToken: "refresh-1"})
	}))
	defer server.Close()

	c := New(server.URL)
	tokens, err := c.Login(context.Background(), "teacher@example.com", "secretpassword")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tokens.AccessToken)
	assert.Equal(t, "access-1", c.Token())
}

func TestClientSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(User{ID: "u1", Email: "teacher@example.com"})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("access-1")

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestClientUnauthorizedClearsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("stale-token")

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.Token())
}

func TestClientAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "lesson not found"})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("access-1")

	_, err := c.GetLesson(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lesson not found")
	assert.Contains(t, err.Error(), "404")
}

func TestClientGetLessonStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lessons/L1/status", r.URL.Path)
		json.NewEncoder(w).Encode(LessonStatus{ID: "L1", Status: StatusExtracting})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("access-1")

	status, err := c.GetLessonStatus(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, StatusExtracting, status.Status)
	assert.True(t, status.Status.IsProcessing())
}

func TestClientUploadLessonAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lessons/L1/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "lesson.m4a", header.Filename)
		assert.Equal(t, "audio/m4a", header.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(Lesson{ID: "L1", Status: StatusUploaded})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("access-1")

	lesson, err := c.UploadLessonAudio(context.Background(), "L1", "lesson.m4a", "audio/m4a", strings.NewReader("fake audio bytes"))
	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, lesson.Status)
}

func TestClientListLessonsFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s1", r.URL.Query().Get("student_id"))
		json.NewEncoder(w).Encode([]Lesson{{ID: "L1", StudentID: "s1", Status: StatusCompleted}})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("access-1")

	lessons, err := c.ListLessons(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "s1", lessons[0].StudentID)
}
