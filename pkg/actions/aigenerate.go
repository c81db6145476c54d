package actions

import (
	"context"
	"fmt"

	"github.com/accrediq/engine/pkg/ai"
	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/registry"
)

// AIGenerateHandler generates text from the rendered prompt template and
// forwards a set_field command so the host writes the result into the
// configured target field through its own persistence path.
type AIGenerateHandler struct {
	dispatcher Dispatcher
	generator  ai.TextGenerator
}

func NewAIGenerateHandler(dispatcher Dispatcher, generator ai.TextGenerator) *AIGenerateHandler {
	return &AIGenerateHandler{dispatcher: dispatcher, generator: generator}
}

func (h *AIGenerateHandler) Execute(ctx context.Context, config map[string]any, snapshot entity.Snapshot) (registry.HandlerResult, error) {
	typed, err := models.DecodeActionConfig(models.ActionAIGenerate, config)
	if err != nil {
		return registry.HandlerResult{}, err
	}

	c := typed.(*models.AIGenerateConfig)

	generated, err := h.generator.Generate(ctx, c.PromptTemplate, ai.OutputFormat(c.OutputFormat))
	if err != nil {
		return registry.HandlerResult{}, fmt.Errorf("text generation failed: %w", err)
	}

	payload, err := payloadFor(&models.SetFieldConfig{Field: c.TargetField, Value: generated})
	if err != nil {
		return registry.HandlerResult{}, fmt.Errorf("failed to encode set_field payload: %w", err)
	}

	if err := h.dispatcher.Dispatch(ctx, models.ActionSetField, snapshot, payload); err != nil {
		return registry.HandlerResult{}, fmt.Errorf("failed to dispatch generated content: %w", err)
	}

	return registry.HandlerResult{
		Status:  models.ActionStatusCompleted,
		Message: fmt.Sprintf("generated %d characters into %q on %s", len(generated), c.TargetField, entityRef(snapshot)),
	}, nil
}
