package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/models"
	"github.com/notesquared/backend/internal/pipeline"
	"github.com/notesquared/backend/internal/repositories"
)

// OutputRepository is the interface that wraps methods for Output table data access
type OutputRepository interface {
	// Method GetByID retrieves an output joined with its lesson's owner.
	//
	// "outputID" parameter is used to retrieve an output by ID.
	//
	// If output with such ID does not exist, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, outputID string) (*repositories.OutputWithOwner, error)
	// Method UpdateContent replaces an output's content, preserving the
	// original on the first edit.
	//
	// "outputID" parameter is used to update an output by ID.
	// "content" parameter is the new content.
	//
	// If some error occurs during data update, the error will be returned.
	UpdateContent(ctx context.Context, outputID, content string) error
	// Method Revert restores an output's original content. Reverting an
	// output whose content already equals the original is a no-op.
	//
	// "outputID" parameter is used to revert an output by ID.
	//
	// If some error occurs during data update, the error will be returned.
	Revert(ctx context.Context, outputID string) error
	// Method MarkShared flags an output as shared.
	//
	// "outputID" parameter is used to mark an output by ID.
	//
	// If some error occurs during data update, the error will be returned.
	MarkShared(ctx context.Context, outputID string) error
}

// outputService implements generated output management
type outputService struct {
	outputRepo OutputRepository
	tasks      TaskEnqueuer
	logger     *zap.Logger
}

// NewOutputService creates a new output service
func NewOutputService(outputRepo OutputRepository, tasks TaskEnqueuer, logger *zap.Logger) *outputService {
	return &outputService{
		outputRepo: outputRepo,
		tasks:      tasks,
		logger:     logger,
	}
}

// getOwned loads an output and checks it belongs to the given user. A foreign
// output is reported as not found rather than forbidden.
func (s *outputService) getOwned(ctx context.Context, outputID, ownerID string) (*models.Output, error) {
	item, err := s.outputRepo.GetByID(ctx, outputID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("output not found")
	}
	return &item.Output, nil
}

// Get retrieves one output
func (s *outputService) Get(ctx context.Context, outputID, ownerID string) (*models.OutputResponse, error) {
	output, err := s.getOwned(ctx, outputID, ownerID)
	if err != nil {
		return nil, err
	}
	resp := outputResponse(output)
	return &resp, nil
}

// Update edits an output's content. The pre-edit content is preserved so the
// edit can be reverted later.
func (s *outputService) Update(ctx context.Context, outputID, ownerID string, req *models.UpdateOutputRequest) (*models.OutputResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("content cannot be empty")
	}

	if _, err := s.getOwned(ctx, outputID, ownerID); err != nil {
		return nil, err
	}

	if err := s.outputRepo.UpdateContent(ctx, outputID, req.Content); err != nil {
		return nil, err
	}

	return s.Get(ctx, outputID, ownerID)
}

// Revert restores an edited output to its generated content. Reverting an
// output that already matches its original succeeds and changes nothing.
func (s *outputService) Revert(ctx context.Context, outputID, ownerID string) (*models.OutputResponse, error) {
	output, err := s.getOwned(ctx, outputID, ownerID)
	if err != nil {
		return nil, err
	}

	if output.OriginalContent == "" {
		return nil, fmt.Errorf("no original content to revert to")
	}

	if err := s.outputRepo.Revert(ctx, outputID); err != nil {
		return nil, err
	}

	return s.Get(ctx, outputID, ownerID)
}

// Share marks an output as shared. Sharing a parent email also enqueues its
// delivery to the student's parent when a parent address is on file.
func (s *outputService) Share(ctx context.Context, outputID, ownerID string) (*models.OutputResponse, error) {
	output, err := s.getOwned(ctx, outputID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.outputRepo.MarkShared(ctx, outputID); err != nil {
		return nil, err
	}

	if output.OutputType == models.OutputParentEmail {
		if _, err := s.tasks.EnqueueContext(ctx, pipeline.NewParentEmailTask(outputID)); err != nil {
			// Sharing succeeded, delivery is best effort
			s.logger.Warn("failed to enqueue parent email delivery",
				zap.Error(err),
				zap.String("outputID", outputID))
		}
	}

	s.logger.Info("Output shared",
		zap.String("outputID", outputID),
		zap.String("type", string(output.OutputType)))

	return s.Get(ctx, outputID, ownerID)
}
