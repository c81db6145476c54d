package cmd

import (
	"strings"

	"github.com/accrediq/engine/pkg/counters"
)

// NewCounterStore selects the execution counter backend. A redis:// URL
// gets the shared store; anything else falls back to the in-process one,
// which is fine for a single engine instance.
func NewCounterStore(url string) (counters.Store, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		return counters.NewRedisStore(url)
	}

	return counters.NewMemoryStore(), nil
}
