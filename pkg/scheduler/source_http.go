package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
)

// HTTPOverdueSource asks the host application for overdue entities. The host
// owns the entity tables, so it decides what "overdue" means and marks the
// returned records as swept.
type HTTPOverdueSource struct {
	endpoint string
	client   *http.Client
}

type overdueRecord struct {
	EntityType models.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Snapshot   entity.Snapshot   `json:"snapshot"`
}

func NewHTTPOverdueSource(endpoint string) *HTTPOverdueSource {
	return &HTTPOverdueSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPOverdueSource) CollectOverdue(ctx context.Context, now time.Time) ([]events.EntityEvent, error) {
	url := fmt.Sprintf("%s?as_of=%s", s.endpoint, now.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overdue endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overdue endpoint returned status %d", resp.StatusCode)
	}

	var records []overdueRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode overdue records: %w", err)
	}

	overdue := make([]events.EntityEvent, 0, len(records))
	for _, record := range records {
		overdue = append(overdue, events.EntityEvent{
			EntityType: record.EntityType,
			EventKind:  models.EventOverdue,
			EntityID:   record.EntityID,
			Snapshot:   record.Snapshot,
		})
	}

	return overdue, nil
}
