package registry

import "github.com/accrediq/engine/pkg/models"

// configSchemas holds the JSON schema for each action type's config map.
// Validation happens at save time, not run time, to fail fast on wrong key
// names and missing required fields.
var configSchemas = map[models.ActionType]map[string]any{
	models.ActionSendNotification: {
		"type": "object",
		"properties": map[string]any{
			"title":           map[string]any{"type": "string", "minLength": 1},
			"message":         map[string]any{"type": "string", "minLength": 1},
			"recipient_roles": roleList(),
			"priority":        priorityEnum(),
		},
		"required":             []string{"title", "message", "recipient_roles"},
		"additionalProperties": false,
	},
	models.ActionAssignUser: {
		"type": "object",
		"properties": map[string]any{
			"user_ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"roles":    roleList(),
		},
		"anyOf": []any{
			map[string]any{"required": []string{"user_ids"}},
			map[string]any{"required": []string{"roles"}},
		},
		"additionalProperties": false,
	},
	models.ActionChangeStatus: {
		"type": "object",
		"properties": map[string]any{
			"target_status": map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []string{"target_status"},
		"additionalProperties": false,
	},
	models.ActionCreateTask: {
		"type": "object",
		"properties": map[string]any{
			"title":           map[string]any{"type": "string", "minLength": 1},
			"description":     map[string]any{"type": "string"},
			"assign_to_roles": roleList(),
			"priority":        priorityEnum(),
		},
		"required":             []string{"title", "assign_to_roles"},
		"additionalProperties": false,
	},
	models.ActionCreateCAPA: {
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
			"severity":    map[string]any{"type": "string", "enum": []string{"minor", "major", "critical"}},
			"owner_role":  map[string]any{"type": "string", "minLength": 1},
			"due_in_days": map[string]any{"type": "integer", "minimum": 0},
		},
		"required":             []string{"title", "owner_role"},
		"additionalProperties": false,
	},
	models.ActionSendEmailDigest: {
		"type": "object",
		"properties": map[string]any{
			"subject":         map[string]any{"type": "string", "minLength": 1},
			"body":            map[string]any{"type": "string"},
			"recipient_roles": roleList(),
		},
		"required":             []string{"subject", "recipient_roles"},
		"additionalProperties": false,
	},
	models.ActionAddComment: {
		"type": "object",
		"properties": map[string]any{
			"comment": map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []string{"comment"},
		"additionalProperties": false,
	},
	models.ActionSetField: {
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{"type": "string", "minLength": 1},
			"value": map[string]any{"type": "string"},
		},
		"required":             []string{"field", "value"},
		"additionalProperties": false,
	},
	models.ActionEscalate: {
		"type": "object",
		"properties": map[string]any{
			"message":           map[string]any{"type": "string", "minLength": 1},
			"escalate_to_roles": roleList(),
		},
		"required":             []string{"message", "escalate_to_roles"},
		"additionalProperties": false,
	},
	models.ActionStartApprovalChain: {
		"type": "object",
		"properties": map[string]any{
			"chain_name":     map[string]any{"type": "string", "minLength": 1},
			"approver_roles": roleList(),
			"due_in_days":    map[string]any{"type": "integer", "minimum": 0},
		},
		"required":             []string{"chain_name", "approver_roles"},
		"additionalProperties": false,
	},
	models.ActionAIGenerate: {
		"type": "object",
		"properties": map[string]any{
			"prompt_template": map[string]any{"type": "string", "minLength": 1},
			"target_field":    map[string]any{"type": "string", "minLength": 1},
			"output_format":   map[string]any{"type": "string", "enum": []string{"text", "markdown", "json"}},
		},
		"required":             []string{"prompt_template", "target_field"},
		"additionalProperties": false,
	},
}

func roleList() map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "string", "minLength": 1},
		"minItems": 1,
	}
}

func priorityEnum() map[string]any {
	return map[string]any{
		"type": "string",
		"enum": []string{"low", "medium", "high", "urgent"},
	}
}
