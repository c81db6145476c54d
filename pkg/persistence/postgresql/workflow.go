package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

// WorkflowRepository handles workflow definition rows. Conditions and actions
// are stored as JSONB documents; the trigger pair is flattened into indexed
// columns so matching queries stay cheap.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , name
  , description
  , category
  , is_template
  , trigger_entity_type
  , trigger_event_kind
  , conditions
  , actions
  , status
  , execution_count
  , last_executed_at
  , created_by
  , created_at
  , updated_at
`

func (r *WorkflowRepository) List(ctx context.Context, opts persistence.ListWorkflowsOptions) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE 1=1`
	args := make([]any, 0, 3)

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if opts.Category != nil {
		args = append(args, string(*opts.Category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}

	if opts.CreatedBy != "" {
		args = append(args, opts.CreatedBy)
		query += fmt.Sprintf(" AND created_by = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer r.closeRows(ctx, rows)

	return r.collect(rows)
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	workflow, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStorageError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	conditions, err := json.Marshal(workflow.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode conditions: %w", err)
	}

	actions, err := json.Marshal(workflow.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}

	query := `
		INSERT INTO workflows (` + workflowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , description = EXCLUDED.description
		  , category = EXCLUDED.category
		  , is_template = EXCLUDED.is_template
		  , trigger_entity_type = EXCLUDED.trigger_entity_type
		  , trigger_event_kind = EXCLUDED.trigger_event_kind
		  , conditions = EXCLUDED.conditions
		  , actions = EXCLUDED.actions
		  , status = EXCLUDED.status
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		string(workflow.Category),
		workflow.IsTemplate,
		string(workflow.Trigger.EntityType),
		string(workflow.Trigger.EventKind),
		conditions,
		actions,
		string(workflow.Status),
		workflow.ExecutionCount,
		workflow.LastExecutedAt,
		workflow.CreatedBy,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStorageError("Save", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return persistence.NewStorageError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStorageError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewStorageError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) ListActiveByTrigger(ctx context.Context, trigger models.Trigger) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE status = $1
		  AND trigger_entity_type = $2
		  AND trigger_event_kind = $3
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query,
		string(models.WorkflowStatusActive),
		string(trigger.EntityType),
		string(trigger.EventKind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows by trigger: %w", err)
	}

	defer r.closeRows(ctx, rows)

	return r.collect(rows)
}

// RecordExecution updates only the engine-owned summary counters. GREATEST
// keeps the write-back monotonic when concurrent runs of the same workflow
// land out of order.
func (r *WorkflowRepository) RecordExecution(ctx context.Context, id string, count int64, at time.Time) error {
	query := `
		UPDATE workflows
		SET execution_count = GREATEST(execution_count, $2)
		  , last_executed_at = GREATEST(COALESCE(last_executed_at, $3), $3)
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, count, at)
	if err != nil {
		return persistence.NewStorageError("RecordExecution", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStorageError("RecordExecution", id, err)
	}

	if affected == 0 {
		return persistence.NewStorageError("RecordExecution", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WorkflowRepository) scan(row rowScanner) (*models.Workflow, error) {
	var (
		workflow       models.Workflow
		conditions     []byte
		actions        []byte
		lastExecutedAt sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Category,
		&workflow.IsTemplate,
		&workflow.Trigger.EntityType,
		&workflow.Trigger.EventKind,
		&conditions,
		&actions,
		&workflow.Status,
		&workflow.ExecutionCount,
		&lastExecutedAt,
		&workflow.CreatedBy,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(conditions, &workflow.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode conditions: %w", err)
	}

	if err := json.Unmarshal(actions, &workflow.Actions); err != nil {
		return nil, fmt.Errorf("failed to decode actions: %w", err)
	}

	if lastExecutedAt.Valid {
		workflow.LastExecutedAt = &lastExecutedAt.Time
	}

	return &workflow, nil
}

func (r *WorkflowRepository) collect(rows *sql.Rows) ([]*models.Workflow, error) {
	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
