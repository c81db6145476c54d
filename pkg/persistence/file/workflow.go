package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

// WorkflowRepository stores one JSON file per workflow definition under
// <root>/workflows.
type WorkflowRepository struct {
	root string
	mu   sync.RWMutex
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return path.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) filePath(id string) string {
	return path.Join(wr.dir(), id+".json")
}

func (wr *WorkflowRepository) List(ctx context.Context, opts persistence.ListWorkflowsOptions) ([]*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	all, err := wr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if opts.Status != nil && workflow.Status != *opts.Status {
			continue
		}

		if opts.Category != nil && workflow.Category != *opts.Category {
			continue
		}

		if opts.CreatedBy != "" && workflow.CreatedBy != opts.CreatedBy {
			continue
		}

		filtered = append(filtered, workflow)
	}

	slices.SortFunc(filtered, func(a, b *models.Workflow) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return filtered, nil
}

func (wr *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	return wr.read(id)
}

func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if err := os.MkdirAll(wr.dir(), 0o755); err != nil {
		return persistence.NewStorageError("Save", workflow.ID, err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewStorageError("Save", workflow.ID, err)
	}

	if err := os.WriteFile(wr.filePath(workflow.ID), data, 0o644); err != nil {
		return persistence.NewStorageError("Save", workflow.ID, err)
	}

	return nil
}

func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	err := os.Remove(wr.filePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewStorageError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewStorageError("Delete", id, err)
	}

	return nil
}

func (wr *WorkflowRepository) ListActiveByTrigger(ctx context.Context, trigger models.Trigger) ([]*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	all, err := wr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.Status != models.WorkflowStatusActive {
			continue
		}

		if workflow.Trigger != trigger {
			continue
		}

		matched = append(matched, workflow)
	}

	slices.SortFunc(matched, func(a, b *models.Workflow) int {
		if a.ID < b.ID {
			return -1
		}

		if a.ID > b.ID {
			return 1
		}

		return 0
	})

	return matched, nil
}

// RecordExecution writes the counter-store totals back onto the definition
// record. Concurrent runs may land out of order, so the write-back is
// monotonic: a stale total never overwrites a newer one.
func (wr *WorkflowRepository) RecordExecution(ctx context.Context, id string, count int64, at time.Time) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	workflow, err := wr.read(id)
	if err != nil {
		return err
	}

	if count > workflow.ExecutionCount {
		workflow.ExecutionCount = count
	}

	if workflow.LastExecutedAt == nil || at.After(*workflow.LastExecutedAt) {
		workflow.LastExecutedAt = &at
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewStorageError("RecordExecution", id, err)
	}

	if err := os.WriteFile(wr.filePath(id), data, 0o644); err != nil {
		return persistence.NewStorageError("RecordExecution", id, err)
	}

	return nil
}

func (wr *WorkflowRepository) read(id string) (*models.Workflow, error) {
	data, err := os.ReadFile(wr.filePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStorageError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewStorageError("GetByID", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, persistence.NewStorageError("GetByID", id, err)
	}

	return &workflow, nil
}

func (wr *WorkflowRepository) loadAll(_ context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(wr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := wr.read(file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}
