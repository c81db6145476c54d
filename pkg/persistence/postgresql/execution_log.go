package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

// ExecutionLogRepository persists run records. Action results live in a JSONB
// column; finalized rows are guarded by a status check in every UPDATE so
// history is write-once.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionLogRepository(db *sql.DB, logger *slog.Logger) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db, logger: logger}
}

const logColumns = `
	id
  , workflow_id
  , workflow_name
  , triggered_by
  , trigger_entity_id
  , started_at
  , completed_at
  , status
  , action_results
  , error
`

func (r *ExecutionLogRepository) Create(ctx context.Context, log *models.ExecutionLog) error {
	results, err := json.Marshal(log.ActionResults)
	if err != nil {
		return fmt.Errorf("failed to encode action results: %w", err)
	}

	query := `
		INSERT INTO execution_logs (` + logColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.WorkflowID,
		log.WorkflowName,
		log.TriggeredBy,
		log.TriggerEntityID,
		log.StartedAt,
		log.CompletedAt,
		string(log.Status),
		results,
		log.Error,
	)
	if err != nil {
		return persistence.NewStorageError("Create", log.ID, err)
	}

	return nil
}

func (r *ExecutionLogRepository) AppendResult(ctx context.Context, logID string, result models.ActionResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode action result: %w", err)
	}

	query := `
		UPDATE execution_logs
		SET action_results = action_results || $2::jsonb
		WHERE id = $1 AND status = $3
	`

	res, err := r.db.ExecContext(ctx, query, logID, encoded, string(models.RunStatusRunning))
	if err != nil {
		return persistence.NewStorageError("AppendResult", logID, err)
	}

	return r.requireRunningRow(ctx, res, "AppendResult", logID)
}

func (r *ExecutionLogRepository) Finalize(ctx context.Context, log *models.ExecutionLog) error {
	results, err := json.Marshal(log.ActionResults)
	if err != nil {
		return fmt.Errorf("failed to encode action results: %w", err)
	}

	query := `
		UPDATE execution_logs
		SET status = $2, completed_at = $3, action_results = $4, error = $5
		WHERE id = $1 AND status = $6
	`

	res, err := r.db.ExecContext(ctx, query,
		log.ID,
		string(log.Status),
		log.CompletedAt,
		results,
		log.Error,
		string(models.RunStatusRunning),
	)
	if err != nil {
		return persistence.NewStorageError("Finalize", log.ID, err)
	}

	return r.requireRunningRow(ctx, res, "Finalize", log.ID)
}

// requireRunningRow distinguishes a missing log from one that was already
// finalized when a guarded UPDATE touched no rows.
func (r *ExecutionLogRepository) requireRunningRow(ctx context.Context, res sql.Result, op, logID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return persistence.NewStorageError(op, logID, err)
	}

	if affected > 0 {
		return nil
	}

	var exists bool

	err = r.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM execution_logs WHERE id = $1)", logID).Scan(&exists)
	if err != nil {
		return persistence.NewStorageError(op, logID, err)
	}

	if exists {
		return persistence.NewStorageError(op, logID, persistence.ErrExecutionLogFinalized)
	}

	return persistence.NewStorageError(op, logID, persistence.ErrExecutionLogNotFound)
}

func (r *ExecutionLogRepository) GetByID(ctx context.Context, id string) (*models.ExecutionLog, error) {
	query := `SELECT ` + logColumns + ` FROM execution_logs WHERE id = $1`

	log, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStorageError("GetByID", id, persistence.ErrExecutionLogNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution log: %w", err)
	}

	return log, nil
}

func (r *ExecutionLogRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.ExecutionLog, error) {
	query := `SELECT ` + logColumns + ` FROM execution_logs WHERE 1=1`
	args := make([]any, 0, 6)

	if opts.WorkflowID != "" {
		args = append(args, opts.WorkflowID)
		query += fmt.Sprintf(" AND workflow_id = $%d", len(args))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND started_at >= $%d", len(args))
	}

	if opts.Until != nil {
		args = append(args, *opts.Until)
		query += fmt.Sprintf(" AND started_at <= $%d", len(args))
	}

	query += " ORDER BY started_at DESC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	logs := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		log, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		logs = append(logs, log)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}

	return logs, nil
}

func (r *ExecutionLogRepository) CountByWorkflow(ctx context.Context, workflowID string) (int64, error) {
	var count int64

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM execution_logs WHERE workflow_id = $1", workflowID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count execution logs: %w", err)
	}

	return count, nil
}

func (r *ExecutionLogRepository) scan(row rowScanner) (*models.ExecutionLog, error) {
	var (
		log         models.ExecutionLog
		completedAt sql.NullTime
		results     []byte
	)

	err := row.Scan(
		&log.ID,
		&log.WorkflowID,
		&log.WorkflowName,
		&log.TriggeredBy,
		&log.TriggerEntityID,
		&log.StartedAt,
		&completedAt,
		&log.Status,
		&results,
		&log.Error,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(results, &log.ActionResults); err != nil {
		return nil, fmt.Errorf("failed to decode action results: %w", err)
	}

	if completedAt.Valid {
		log.CompletedAt = &completedAt.Time
	}

	return &log, nil
}
