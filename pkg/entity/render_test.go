package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTokens(t *testing.T) {
	t.Parallel()

	snapshot := Snapshot{
		"title":    "Fire safety audit",
		"score":    float64(92),
		"progress": 66.5,
		"approved": true,
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single token",
			input:    "Review {{entity.title}}",
			expected: "Review Fire safety audit",
		},
		{
			name:     "multiple tokens",
			input:    "{{entity.title}} scored {{entity.score}}",
			expected: "Fire safety audit scored 92",
		},
		{
			name:     "whitespace inside braces",
			input:    "{{ entity.title }}",
			expected: "Fire safety audit",
		},
		{
			name:     "unresolved token stays literal",
			input:    "Assigned to {{entity.assignee}}",
			expected: "Assigned to {{entity.assignee}}",
		},
		{
			name:     "fractional number keeps fraction",
			input:    "{{entity.progress}}% done",
			expected: "66.5% done",
		},
		{
			name:     "boolean renders as string",
			input:    "approved={{entity.approved}}",
			expected: "approved=true",
		},
		{
			name:     "no tokens",
			input:    "plain text",
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, RenderTokens(tt.input, snapshot))
		})
	}
}

func TestRenderConfig(t *testing.T) {
	t.Parallel()

	snapshot := Snapshot{"title": "CAPA-42", "owner": "jmorales"}

	config := map[string]any{
		"message": "Escalating {{entity.title}}",
		"count":   float64(3),
		"roles":   []any{"lead for {{entity.owner}}", "auditor"},
		"nested": map[string]any{
			"subject": "{{entity.title}} overdue",
		},
	}

	rendered := RenderConfig(config, snapshot)

	assert.Equal(t, "Escalating CAPA-42", rendered["message"])
	assert.Equal(t, float64(3), rendered["count"])
	assert.Equal(t, []any{"lead for jmorales", "auditor"}, rendered["roles"])
	assert.Equal(t, "CAPA-42 overdue", rendered["nested"].(map[string]any)["subject"])

	// Original config must stay untouched.
	assert.Equal(t, "Escalating {{entity.title}}", config["message"])
	assert.Equal(t, "{{entity.title}} overdue", config["nested"].(map[string]any)["subject"])
}

func TestRenderConfig_Nil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, RenderConfig(nil, Snapshot{}))
}
