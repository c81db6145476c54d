package services

import (
	"context"
	"log/slog"

	"github.com/accrediq/engine/pkg/models"
)

// TemplateService serves the built-in template catalog and turns a template
// into a fresh draft definition. Templates themselves are never matched or
// executed; instantiation goes through the normal create path so every copy
// is validated like a hand-written definition.
type TemplateService struct {
	workflows *WorkflowService
	catalog   []models.Workflow
	logger    *slog.Logger
}

func NewTemplateService(workflows *WorkflowService, logger *slog.Logger) *TemplateService {
	return &TemplateService{
		workflows: workflows,
		catalog:   builtinTemplates(),
		logger:    logger.With("module", "template_service"),
	}
}

func (s *TemplateService) List() []models.Workflow {
	out := make([]models.Workflow, len(s.catalog))
	copy(out, s.catalog)

	return out
}

func (s *TemplateService) Get(templateID string) (*models.Workflow, bool) {
	for _, template := range s.catalog {
		if template.ID == templateID {
			copied := template

			return &copied, true
		}
	}

	return nil, false
}

// Instantiate creates a draft from a template. The copy gets its own identity
// and starts with clean counters; the template ID only survives in the log
// line below.
func (s *TemplateService) Instantiate(ctx context.Context, templateID, createdBy string) (*models.Workflow, error) {
	template, ok := s.Get(templateID)
	if !ok {
		return nil, NewValidationError("unknown template %q", templateID)
	}

	draft := *template
	draft.ID = ""
	draft.IsTemplate = false
	draft.CreatedBy = createdBy
	draft.Actions = make([]models.Action, len(template.Actions))

	for i, action := range template.Actions {
		action.ID = ""
		draft.Actions[i] = action
	}

	created, err := s.workflows.Create(ctx, &draft)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Template instantiated",
		"template_id", templateID,
		"workflow_id", created.ID,
		"created_by", createdBy)

	return created, nil
}

func builtinTemplates() []models.Workflow {
	return []models.Workflow{
		{
			ID:          "tpl-document-review-reminder",
			Name:        "Document review reminder",
			Description: "Notify the document owner and quality team when a controlled document becomes overdue for review.",
			Category:    models.CategoryCompliance,
			IsTemplate:  true,
			Trigger: models.Trigger{
				EntityType: models.EntityDocument,
				EventKind:  models.EventOverdue,
			},
			Conditions: models.ConditionGroup{
				Logic: models.LogicAnd,
				Conditions: []models.Condition{
					{Field: "status", Operator: models.OperatorNotEquals, Value: "archived"},
				},
			},
			Actions: []models.Action{
				{
					Type:  models.ActionSendNotification,
					Order: 1,
					Config: map[string]any{
						"title":           "Document review overdue",
						"message":         "{{entity.title}} is past its review date.",
						"recipient_roles": []any{"quality_manager", "document_owner"},
						"priority":        "high",
					},
				},
				{
					Type:         models.ActionCreateTask,
					Order:        2,
					DelayMinutes: 1440,
					Config: map[string]any{
						"title":           "Review document {{entity.title}}",
						"description":     "Scheduled review for {{entity.title}} is overdue.",
						"assign_to_roles": []any{"document_owner"},
						"priority":        "high",
					},
				},
			},
		},
		{
			ID:          "tpl-incident-capa",
			Name:        "Open CAPA for severe incidents",
			Description: "Open a corrective action and alert leadership when a high-severity incident is reported.",
			Category:    models.CategorySafety,
			IsTemplate:  true,
			Trigger: models.Trigger{
				EntityType: models.EntityIncident,
				EventKind:  models.EventCreated,
			},
			Conditions: models.ConditionGroup{
				Logic: models.LogicOr,
				Conditions: []models.Condition{
					{Field: "severity", Operator: models.OperatorEquals, Value: "high"},
					{Field: "severity", Operator: models.OperatorEquals, Value: "critical"},
				},
			},
			Actions: []models.Action{
				{
					Type:  models.ActionCreateCAPA,
					Order: 1,
					Config: map[string]any{
						"title":       "CAPA for incident {{entity.title}}",
						"description": "Automatically opened from incident {{entity.id}} with severity {{entity.severity}}.",
						"severity":    "major",
						"owner_role":  "quality_manager",
						"due_in_days": 14,
					},
				},
				{
					Type:  models.ActionSendNotification,
					Order: 2,
					Config: map[string]any{
						"title":           "Severe incident reported",
						"message":         "{{entity.title}} was reported with severity {{entity.severity}}.",
						"recipient_roles": []any{"safety_officer", "administrator"},
						"priority":        "urgent",
					},
				},
			},
		},
		{
			ID:          "tpl-capa-escalation",
			Name:        "Escalate stalled CAPAs",
			Description: "Escalate a corrective action to the quality manager when it becomes overdue.",
			Category:    models.CategoryQuality,
			IsTemplate:  true,
			Trigger: models.Trigger{
				EntityType: models.EntityCAPA,
				EventKind:  models.EventOverdue,
			},
			Actions: []models.Action{
				{
					Type:  models.ActionEscalate,
					Order: 1,
					Config: map[string]any{
						"message":           "CAPA {{entity.title}} is overdue.",
						"escalate_to_roles": []any{"quality_manager"},
					},
				},
				{
					Type:         models.ActionSendEmailDigest,
					Order:        2,
					DelayMinutes: 2880,
					Config: map[string]any{
						"subject":         "Overdue corrective actions",
						"recipient_roles": []any{"quality_manager"},
					},
				},
			},
		},
		{
			ID:          "tpl-training-assignment",
			Name:        "Training completion follow-up",
			Description: "Record completion and notify the trainee's supervisor when a training is completed.",
			Category:    models.CategoryTraining,
			IsTemplate:  true,
			Trigger: models.Trigger{
				EntityType: models.EntityTraining,
				EventKind:  models.EventCompleted,
			},
			Actions: []models.Action{
				{
					Type:  models.ActionSetField,
					Order: 1,
					Config: map[string]any{
						"field": "completionAcknowledged",
						"value": "true",
					},
				},
				{
					Type:  models.ActionSendNotification,
					Order: 2,
					Config: map[string]any{
						"title":           "Training completed",
						"message":         "{{entity.title}} was completed.",
						"recipient_roles": []any{"supervisor"},
						"priority":        "medium",
					},
				},
			},
		},
		{
			ID:          "tpl-audit-finding-summary",
			Name:        "Summarize approved audits",
			Description: "Generate an executive summary when an audit is approved and store it on the audit record.",
			Category:    models.CategoryGeneral,
			IsTemplate:  true,
			Trigger: models.Trigger{
				EntityType: models.EntityAudit,
				EventKind:  models.EventApproved,
			},
			Actions: []models.Action{
				{
					Type:  models.ActionAIGenerate,
					Order: 1,
					Config: map[string]any{
						"prompt_template": "Write a short executive summary of audit {{entity.title}} with score {{entity.score}} and {{entity.findingsCount}} findings.",
						"output_format":   "markdown",
						"target_field":    "executiveSummary",
					},
				},
			},
		},
	}
}
