package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"slices"
	"sync"

	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

// ExecutionLogRepository stores one JSON file per run under
// <root>/executions. Finalized logs are write-once.
type ExecutionLogRepository struct {
	root string
	mu   sync.RWMutex
}

func NewExecutionLogRepository(root string) *ExecutionLogRepository {
	return &ExecutionLogRepository{root: root}
}

func (lr *ExecutionLogRepository) dir() string {
	return path.Join(lr.root, "executions")
}

func (lr *ExecutionLogRepository) filePath(id string) string {
	return path.Join(lr.dir(), id+".json")
}

func (lr *ExecutionLogRepository) Create(ctx context.Context, log *models.ExecutionLog) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if err := os.MkdirAll(lr.dir(), 0o755); err != nil {
		return persistence.NewStorageError("Create", log.ID, err)
	}

	return lr.write(log)
}

func (lr *ExecutionLogRepository) AppendResult(ctx context.Context, logID string, result models.ActionResult) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	log, err := lr.read(logID)
	if err != nil {
		return err
	}

	if log.Finalized() {
		return persistence.NewStorageError("AppendResult", logID, persistence.ErrExecutionLogFinalized)
	}

	log.ActionResults = append(log.ActionResults, result)

	return lr.write(log)
}

func (lr *ExecutionLogRepository) Finalize(ctx context.Context, log *models.ExecutionLog) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	stored, err := lr.read(log.ID)
	if err != nil {
		return err
	}

	if stored.Finalized() {
		return persistence.NewStorageError("Finalize", log.ID, persistence.ErrExecutionLogFinalized)
	}

	return lr.write(log)
}

func (lr *ExecutionLogRepository) GetByID(ctx context.Context, id string) (*models.ExecutionLog, error) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	return lr.read(id)
}

func (lr *ExecutionLogRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.ExecutionLog, error) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	root := os.DirFS(lr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, persistence.NewStorageError("List", "", err)
	}

	logs := make([]*models.ExecutionLog, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		log, err := lr.read(file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if opts.WorkflowID != "" && log.WorkflowID != opts.WorkflowID {
			continue
		}

		if opts.Status != nil && log.Status != *opts.Status {
			continue
		}

		if opts.Since != nil && log.StartedAt.Before(*opts.Since) {
			continue
		}

		if opts.Until != nil && log.StartedAt.After(*opts.Until) {
			continue
		}

		logs = append(logs, log)
	}

	slices.SortFunc(logs, func(a, b *models.ExecutionLog) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return paginate(logs, opts.Offset, opts.Limit), nil
}

func (lr *ExecutionLogRepository) CountByWorkflow(ctx context.Context, workflowID string) (int64, error) {
	logs, err := lr.List(ctx, persistence.ListExecutionsOptions{WorkflowID: workflowID})
	if err != nil {
		return 0, err
	}

	return int64(len(logs)), nil
}

func (lr *ExecutionLogRepository) read(id string) (*models.ExecutionLog, error) {
	data, err := os.ReadFile(lr.filePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStorageError("GetByID", id, persistence.ErrExecutionLogNotFound)
		}

		return nil, persistence.NewStorageError("GetByID", id, err)
	}

	var log models.ExecutionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, persistence.NewStorageError("GetByID", id, err)
	}

	return &log, nil
}

func (lr *ExecutionLogRepository) write(log *models.ExecutionLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return persistence.NewStorageError("Save", log.ID, err)
	}

	if err := os.WriteFile(lr.filePath(log.ID), data, 0o644); err != nil {
		return persistence.NewStorageError("Save", log.ID, err)
	}

	return nil
}

func paginate(logs []*models.ExecutionLog, offset, limit int) []*models.ExecutionLog {
	if offset >= len(logs) {
		return []*models.ExecutionLog{}
	}

	logs = logs[offset:]

	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}

	return logs
}
