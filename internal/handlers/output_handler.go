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

// OutputService is the interface that wraps methods for generated output business logic
type OutputService interface {
	// Method Get retrieves one output.
	//
	// "outputID" parameter is used to retrieve an output by ID.
	// "ownerID" parameter scopes the lookup to the authenticated teacher.
	//
	// If output with such ID does not exist for this teacher, the error will be returned together with "nil" value.
	Get(ctx context.Context, outputID, ownerID string) (*models.OutputResponse, error)
	// Method Update edits an output's content, preserving the original for revert.
	//
	// "outputID" parameter is used to update an output by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	// "req" parameter carries the new content.
	//
	// If the request is invalid or some other error occurs, the error will be returned together with "nil" value.
	Update(ctx context.Context, outputID, ownerID string, req *models.UpdateOutputRequest) (*models.OutputResponse, error)
	// Method Revert restores an edited output to its generated content.
	//
	// "outputID" parameter is used to revert an output by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	//
	// If the output was never edited or some other error occurs, the error will be returned together with "nil" value.
	Revert(ctx context.Context, outputID, ownerID string) (*models.OutputResponse, error)
	// Method Share marks an output as shared and, for parent emails, enqueues delivery.
	//
	// "outputID" parameter is used to mark an output by ID.
	// "ownerID" parameter scopes the update to the authenticated teacher.
	//
	// If some error occurs during data update, the error will be returned together with "nil" value.
	Share(ctx context.Context, outputID, ownerID string) (*models.OutputResponse, error)
}

// OutputHandler handles generated output HTTP requests
type OutputHandler struct {
	BaseHandler
	outputService OutputService
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(outputService OutputService, logger *zap.Logger) *OutputHandler {
	return &OutputHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		outputService: outputService,
	}
}

// RegisterRoutes registers all output handler routes
// Note: This assumes the router is already scoped to /v1 and authenticated
func (h *OutputHandler) RegisterRoutes(r chi.Router) {
	r.Route("/outputs", func(r chi.Router) {
		r.Get("/{outputID}", h.Get)
		r.Patch("/{outputID}", h.Update)
		r.Post("/{outputID}/share", h.Share)
		r.Post("/{outputID}/revert", h.Revert)
	})
}

// Get handles GET /outputs/{outputID}
// @Summary Get an output
// @Description Retrieve one generated output.
// @Tags outputs
// @Produce json
// @Param outputID path string true "Output ID"
// @Success 200 {object} models.OutputResponse "Output"
// @Failure 404 {object} map[string]string "Output not found"
// @Router /outputs/{outputID} [get]
// @Security BearerAuth
func (h *OutputHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	outputID := chi.URLParam(r, "outputID")

	output, err := h.outputService.Get(r.Context(), outputID, userID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, output)
}

// Update handles PATCH /outputs/{outputID}
// @Summary Edit an output
// @Description Replace an output's content. The generated content is preserved so the edit can be reverted.
// @Tags outputs
// @Accept json
// @Produce json
// @Param outputID path string true "Output ID"
// @Param request body models.UpdateOutputRequest true "New content"
// @Success 200 {object} models.OutputResponse "Updated output"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Output not found"
// @Router /outputs/{outputID} [patch]
// @Security BearerAuth
func (h *OutputHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	outputID := chi.URLParam(r, "outputID")

	var req models.UpdateOutputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := h.outputService.Update(r.Context(), outputID, userID, &req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, output)
}

// Share handles POST /outputs/{outputID}/share
// @Summary Share an output
// @Description Mark an output as shared. Sharing a parent email also delivers it to the parent on file.
// @Tags outputs
// @Produce json
// @Param outputID path string true "Output ID"
// @Success 200 {object} models.OutputResponse "Shared output"
// @Failure 404 {object} map[string]string "Output not found"
// @Router /outputs/{outputID}/share [post]
// @Security BearerAuth
func (h *OutputHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	outputID := chi.URLParam(r, "outputID")

	output, err := h.outputService.Share(r.Context(), outputID, userID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, output)
}

// Revert handles POST /outputs/{outputID}/revert
// @Summary Revert an output
// @Description Restore an edited output to its generated content.
// @Tags outputs
// @Produce json
// @Param outputID path string true "Output ID"
// @Success 200 {object} models.OutputResponse "Reverted output"
// @Failure 400 {object} map[string]string "No original content to revert to"
// @Failure 404 {object} map[string]string "Output not found"
// @Router /outputs/{outputID}/revert [post]
// @Security BearerAuth
func (h *OutputHandler) Revert(w http.ResponseWriter, r *http.Request) {
	userID, _ := authmw.GetUserID(r.Context())
	outputID := chi.URLParam(r, "outputID")

	output, err := h.outputService.Revert(r.Context(), outputID, userID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, output)
}
