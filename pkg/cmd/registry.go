package cmd

import (
	"log/slog"

	"github.com/accrediq/engine/pkg/actions"
	"github.com/accrediq/engine/pkg/ai"
	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/registry"
)

// NewRegistry builds the action registry with the built-in handler set.
// Handlers forward side effects as commands on the bus; ai_generate
// additionally calls the text-generation service at aiServiceURL. An empty
// URL registers a generator that fails cleanly, so the other ten action
// types work without the service.
func NewRegistry(logger *slog.Logger, bus eventbus.EventBus, aiServiceURL string) *registry.Registry {
	reg := registry.NewRegistry(logger)
	dispatcher := actions.NewBusDispatcher(bus)

	var generator ai.TextGenerator = ai.Unavailable{}
	if aiServiceURL != "" {
		generator = ai.NewClient(aiServiceURL)
	}

	actions.RegisterDefaults(reg, dispatcher, generator)

	return reg
}
