// Package ai exposes the narrow text-generation interface the ai_generate
// action depends on. The engine never sees the model behind it.
package ai

import (
	"context"
	"errors"
)

// OutputFormat hints how the generated text should be shaped.
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
)

type TextGenerator interface {
	Generate(ctx context.Context, prompt string, format OutputFormat) (string, error)
}

// Unavailable is the generator used when no text-generation service is
// configured. Runs that reach an ai_generate action fail that action with a
// clear message instead of hanging or panicking.
type Unavailable struct{}

func (Unavailable) Generate(_ context.Context, _ string, _ OutputFormat) (string, error) {
	return "", errors.New("text generation service is not configured")
}
