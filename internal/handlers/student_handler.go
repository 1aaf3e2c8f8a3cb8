package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/notesquared/backend/internal/auth/middleware"
	"github.com/notesquared/backend/internal/models"
)

// StudentService is the interface that wraps methods for student roster business logic
type StudentService interface {
	// Method Create adds a student to the teacher's roster.
	//
	// "ownerID" parameter is the authenticated teacher.
	// "req" parameter contains the student's details.
	//
	// If the request is invalid or some other error occurs, the error will be returned together with "nil" value.
	Create(ctx context.Context, ownerID string, req *models.CreateStudentRequest) (*models.Student, error)
	// Method Get retrieves one student from the teacher's roster.
	//
	// "studentID" parameter is used to retrieve a student by ID.
	// "ownerID" parameter scopes the lookup to the authenticated teacher.
	//
	// If student with such ID does not exist for this teacher, the error will be returned together with "nil" value.
	Get(ctx context.Context, studentID, ownerID string) (*models.Student, error)
	// Method List retrieves the teacher's roster with lesson counts.
	//
	// "ownerID" parameter is the authenticated teacher.
	// "includeArchived" parameter controls whether archived students are included.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context, ownerID string, includeArchived bool) ([]models.StudentResponse, error)
	// Method Update applies a partial update to a student.
	//
	// "studentID" parameter is used to update a student by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	// "req" parameter carries the fields to change.
	//
	// If the request is invalid or some other error occurs, the error will be returned together with "nil" value.
	Update(ctx context.Context, studentID, ownerID string, req *models.UpdateStudentRequest) (*models.Student, error)
	// Method Archive hides a student from the default roster view.
	//
	// "studentID" parameter is used to archive a student by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	//
	// If some error occurs during data update, the error will be returned.
	Archive(ctx context.Context, studentID, ownerID string) error
	// Method Restore returns an archived student to the roster.
	//
	// "studentID" parameter is used to restore a student by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	//
	// If some error occurs during data update, the error will be returned.
	Restore(ctx context.Context, studentID, ownerID string) error
}

// StudentHandler handles student roster HTTP requests
type StudentHandler struct {
	BaseHandler
	studentService StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentService StudentService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		studentService: studentService,
	}
}

// RegisterRoutes registers all student handler routes
// Note: This assumes the router is already scoped to /v1 and authenticated
func (h *StudentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/students", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/instruments", h.Instruments)
		r.Get("/{studentID}", h.Get)
		r.Patch("/{studentID}", h.Update)
		r.Post("/{studentID}/archive", h.Archive)
		r.Post("/{studentID}/restore", h.Restore)
	})
}

// List handles GET /students
// @Summary List students
// @Description List the teacher's students with lesson counts. Archived students are excluded unless include_archived=true.
// @Tags students
// @Produce json
// @Param include_archived query bool false "Include archived students"
// @Success 200 {array} models.StudentResponse "Students"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /students [get]
// @Security BearerAuth
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	students, err := h.studentService.List(r.Context(), userID, includeArchived)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, students)
}

// Create handles POST /students
// @Summary Create a student
// @Description Add a student to the teacher's roster.
// @Tags students
// @Accept json
// @Produce json
// @Param request body models.CreateStudentRequest true "Student details"
// @Success 201 {object} models.Student "Student created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /students [post]
// @Security BearerAuth
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())

	var req models.CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	student, err := h.studentService.Create(r.Context(), userID, &req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, student)
}

// Instruments handles GET /students/instruments
// @Summary List instrument choices
// @Description List the instruments a student can be registered with.
// @Tags students
// @Produce json
// @Success 200 {array} string "Instruments"
// @Router /students/instruments [get]
// @Security BearerAuth
func (h *StudentHandler) Instruments(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, models.Instruments)
}

// Get handles GET /students/{studentID}
// @Summary Get a student
// @Description Retrieve one student from the teacher's roster.
// @Tags students
// @Produce json
// @Param studentID path string true "Student ID"
// @Success 200 {object} models.Student "Student"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{studentID} [get]
// @Security BearerAuth
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	studentID := chi.URLParam(r, "studentID")

	student, err := h.studentService.Get(r.Context(), studentID, userID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, student)
}

// Update handles PATCH /students/{studentID}
// @Summary Update a student
// @Description Apply a partial update to a student. Omitted fields are left unchanged.
// @Tags students
// @Accept json
// @Produce json
// @Param studentID path string true "Student ID"
// @Param request body models.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} models.Student "Updated student"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{studentID} [patch]
// @Security BearerAuth
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	studentID := chi.URLParam(r, "studentID")

	var req models.UpdateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	student, err := h.studentService.Update(r.Context(), studentID, userID, &req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, student)
}

// Archive handles POST /students/{studentID}/archive
// @Summary Archive a student
// @Description Hide a student from the default roster view. Lessons are kept.
// @Tags students
// @Produce json
// @Param studentID path string true "Student ID"
// @Success 200 {object} map[string]string "Student archived"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{studentID}/archive [post]
// @Security BearerAuth
func (h *StudentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	studentID := chi.URLParam(r, "studentID")

	if err := h.studentService.Archive(r.Context(), studentID, userID); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "student archived"})
}

// Restore handles POST /students/{studentID}/restore
// @Summary Restore a student
// @Description Return an archived student to the roster.
// @Tags students
// @Produce json
// @Param studentID path string true "Student ID"
// @Success 200 {object} map[string]string "Student restored"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{studentID}/restore [post]
// @Security BearerAuth
func (h *StudentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	studentID := chi.URLParam(r, "studentID")

	if err := h.studentService.Restore(r.Context(), studentID, userID); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "student restored"})
}
