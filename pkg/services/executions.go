package services

import (
	"context"
	"log/slog"

	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

const (
	defaultExecutionPageSize = 50
	maxExecutionPageSize     = 200
)

// ExecutionService exposes the run history. Logs are written only by the
// engine; this service is strictly read-only.
type ExecutionService struct {
	logs   persistence.ExecutionLogRepository
	logger *slog.Logger
}

func NewExecutionService(persist persistence.Persistence, logger *slog.Logger) *ExecutionService {
	return &ExecutionService{
		logs:   persist.ExecutionLogRepository(),
		logger: logger.With("module", "execution_service"),
	}
}

func (s *ExecutionService) Get(ctx context.Context, id string) (*models.ExecutionLog, error) {
	return s.logs.GetByID(ctx, id)
}

// List returns logs newest-first, clamping the page size so a missing limit
// never turns into a full table scan over years of history.
func (s *ExecutionService) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.ExecutionLog, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultExecutionPageSize
	}

	if opts.Limit > maxExecutionPageSize {
		opts.Limit = maxExecutionPageSize
	}

	if opts.Offset < 0 {
		opts.Offset = 0
	}

	return s.logs.List(ctx, opts)
}

func (s *ExecutionService) CountByWorkflow(ctx context.Context, workflowID string) (int64, error) {
	return s.logs.CountByWorkflow(ctx, workflowID)
}
