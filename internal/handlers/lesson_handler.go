package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/notesquared/backend/internal/auth/middleware"
	"github.com/notesquared/backend/internal/models"
)

// maxAudioUploadBytes caps lesson audio uploads at 100MB
const maxAudioUploadBytes = 100 << 20

// LessonService is the interface that wraps methods for lesson lifecycle business logic
type LessonService interface {
	// Method Create records a new lesson in CREATED state.
	//
	// "ownerID" parameter is the authenticated teacher.
	// "req" parameter contains the student ID and optional lesson date.
	//
	// If the student does not exist or some other error occurs, the error will be returned together with "nil" value.
	Create(ctx context.Context, ownerID string, req *models.CreateLessonRequest) (*models.LessonResponse, error)
	// Method Upload stores lesson audio and enqueues the processing pipeline.
	//
	// "lessonID" parameter is used to update a lesson by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	// "contentType" parameter is the uploaded file's content type.
	// "src" parameter streams the audio content.
	// "durationSeconds" parameter is the audio duration when known, 0 otherwise.
	//
	// If the format is unsupported or some other error occurs, the error will be returned together with "nil" value.
	Upload(ctx context.Context, lessonID, ownerID, contentType string, src io.Reader, durationSeconds int) (*models.LessonResponse, error)
	// Method List retrieves the teacher's lessons, optionally filtered by student.
	//
	// "ownerID" parameter is the authenticated teacher.
	// "studentID" parameter filters by student when non-empty.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context, ownerID, studentID string) ([]models.LessonResponse, error)
	// Method Get retrieves a lesson with its transcript and generated outputs.
	//
	// "lessonID" parameter is used to retrieve a lesson by ID.
	// "ownerID" parameter scopes the lookup to the authenticated teacher.
	//
	// If lesson with such ID does not exist for this teacher, the error will be returned together with "nil" value.
	Get(ctx context.Context, lessonID, ownerID string) (*models.LessonDetailResponse, error)
	// Method GetStatus retrieves the status payload served to pollers.
	//
	// "lessonID" parameter is used to retrieve a lesson status by ID.
	// "ownerID" parameter scopes the lookup to the authenticated teacher.
	//
	// If lesson with such ID does not exist for this teacher, the error will be returned together with "nil" value.
	GetStatus(ctx context.Context, lessonID, ownerID string) (*models.LessonStatusResponse, error)
	// Method Reprocess re-runs the pipeline for a failed or stuck lesson.
	//
	// "lessonID" parameter is used to reprocess a lesson by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	//
	// If the lesson is not in a reprocessable state or some other error occurs, the error will be returned together with "nil" value.
	Reprocess(ctx context.Context, lessonID, ownerID string) (*models.LessonResponse, error)
}

// LessonHandler handles lesson lifecycle HTTP requests
type LessonHandler struct {
	BaseHandler
	lessonService LessonService
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessonService LessonService, logger *zap.Logger) *LessonHandler {
	return &LessonHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		lessonService: lessonService,
	}
}

// RegisterRoutes registers all lesson handler routes
// Note: This assumes the router is already scoped to /v1 and authenticated
func (h *LessonHandler) RegisterRoutes(r chi.Router) {
	r.Route("/lessons", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{lessonID}", h.Get)
		r.Get("/{lessonID}/status", h.GetStatus)
		r.Post("/{lessonID}/upload", h.Upload)
		r.Post("/{lessonID}/process", h.Reprocess)
	})
}

// Create handles POST /lessons
// @Summary Create a lesson
// @Description Record a new lesson awaiting its audio upload.
// @Tags lessons
// @Accept json
// @Produce json
// @Param request body models.CreateLessonRequest true "Lesson details"
// @Success 201 {object} models.LessonResponse "Lesson created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /lessons [post]
// @Security BearerAuth
func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())

	var req models.CreateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lesson, err := h.lessonService.Create(r.Context(), userID, &req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, lesson)
}

// Upload handles POST /lessons/{lessonID}/upload
// @Summary Upload lesson audio
// @Description Upload the lesson recording and start processing. Accepts m4a, mp3, wav and webm.
// @Tags lessons
// @Accept multipart/form-data
// @Produce json
// @Param lessonID path string true "Lesson ID"
// @Param audio formData file true "Audio recording"
// @Param duration_seconds formData int false "Recording duration in seconds"
// @Success 200 {object} models.LessonResponse "Upload accepted"
// @Failure 400 {object} map[string]string "Unsupported audio format"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /lessons/{lessonID}/upload [post]
// @Security BearerAuth
func (h *LessonHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	lessonID := chi.URLParam(r, "lessonID")

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	durationSeconds := 0
	if v := r.FormValue("duration_seconds"); v != "" {
		durationSeconds, _ = strconv.Atoi(v)
	}

	lesson, err := h.lessonService.Upload(r.Context(), lessonID, userID, header.Header.Get("Content-Type"), file, durationSeconds)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}

// List handles GET /lessons
// @Summary List lessons
// @Description List the teacher's lessons, newest first. Optionally filtered by student.
// @Tags lessons
// @Produce json
// @Param student_id query string false "Filter by student"
// @Success 200 {array} models.LessonResponse "Lessons"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /lessons [get]
// @Security BearerAuth
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	studentID := r.URL.Query().Get("student_id")

	lessons, err := h.lessonService.List(r.Context(), userID, studentID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lessons)
}

// Get handles GET /lessons/{lessonID}
// @Summary Get a lesson
// @Description Retrieve a lesson with its transcript and generated outputs.
// @Tags lessons
// @Produce json
// @Param lessonID path string true "Lesson ID"
// @Success 200 {object} models.LessonDetailResponse "Lesson"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /lessons/{lessonID} [get]
// @Security BearerAuth
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	lessonID := chi.URLParam(r, "lessonID")

	lesson, err := h.lessonService.Get(r.Context(), lessonID, userID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}

// GetStatus handles GET /lessons/{lessonID}/status
// @Summary Get lesson processing status
// @Description Lightweight status payload for polling while a lesson processes.
// @Tags lessons
// @Produce json
// @Param lessonID path string true "Lesson ID"
// @Success 200 {object} models.LessonStatusResponse "Status"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /lessons/{lessonID}/status [get]
// @Security BearerAuth
func (h *LessonHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	lessonID := chi.URLParam(r, "lessonID")

	status, err := h.lessonService.GetStatus(r.Context(), lessonID, userID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, status)
}

// Reprocess handles POST /lessons/{lessonID}/process
// @Summary Retry lesson processing
// @Description Re-run the pipeline for a failed or stuck lesson.
// @Tags lessons
// @Produce json
// @Param lessonID path string true "Lesson ID"
// @Success 200 {object} models.LessonResponse "Reprocessing started"
// @Failure 400 {object} map[string]string "Lesson cannot be reprocessed"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /lessons/{lessonID}/process [post]
// @Security BearerAuth
func (h *LessonHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	lessonID := chi.URLParam(r, "lessonID")

	lesson, err := h.lessonService.Reprocess(r.Context(), lessonID, userID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}
