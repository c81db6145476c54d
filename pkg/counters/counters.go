// Package counters tracks per-workflow execution counts. Increments must be
// atomic with respect to concurrent runs of the same workflow.
package counters

import (
	"context"
	"time"
)

// Store records terminal runs. Record returns the new total so callers can
// write the summary back onto the definition record.
type Store interface {
	Record(ctx context.Context, workflowID string, at time.Time) (int64, error)
	Get(ctx context.Context, workflowID string) (int64, *time.Time, error)
	Close() error
}
