package models

import (
	"encoding/json"
	"fmt"
)

// ActionType selects which handler runs an action and which config shape the
// action carries.
type ActionType string

const (
	ActionSendNotification   ActionType = "send_notification"
	ActionAssignUser         ActionType = "assign_user"
	ActionChangeStatus       ActionType = "change_status"
	ActionCreateTask         ActionType = "create_task"
	ActionCreateCAPA         ActionType = "create_capa"
	ActionSendEmailDigest    ActionType = "send_email_digest"
	ActionAddComment         ActionType = "add_comment"
	ActionSetField           ActionType = "set_field"
	ActionEscalate           ActionType = "escalate"
	ActionStartApprovalChain ActionType = "start_approval_chain"
	ActionAIGenerate         ActionType = "ai_generate"
)

func ActionTypes() []ActionType {
	return []ActionType{
		ActionSendNotification,
		ActionAssignUser,
		ActionChangeStatus,
		ActionCreateTask,
		ActionCreateCAPA,
		ActionSendEmailDigest,
		ActionAddComment,
		ActionSetField,
		ActionEscalate,
		ActionStartApprovalChain,
		ActionAIGenerate,
	}
}

func (t ActionType) Valid() bool {
	for _, known := range ActionTypes() {
		if t == known {
			return true
		}
	}

	return false
}

// Action is one ordered, optionally delayed side effect of a workflow.
// Config stays a raw map on the wire; DecodeConfig turns it into the typed
// struct for the action's type.
type Action struct {
	ID           string         `json:"id"`
	Type         ActionType     `json:"type"          validate:"required"`
	Config       map[string]any `json:"config"`
	DelayMinutes int            `json:"delay_minutes" validate:"min=0"`
	Order        int            `json:"order"         validate:"min=1"`
}

// SendNotificationConfig delivers an in-app notification to one or more roles.
type SendNotificationConfig struct {
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	RecipientRoles []string `json:"recipient_roles"`
	Priority       string   `json:"priority"`
}

type AssignUserConfig struct {
	UserIDs []string `json:"user_ids,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

type ChangeStatusConfig struct {
	TargetStatus string `json:"target_status"`
}

type CreateTaskConfig struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	AssignToRoles []string `json:"assign_to_roles"`
	Priority      string   `json:"priority"`
}

type CreateCAPAConfig struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	OwnerRole   string `json:"owner_role"`
	DueInDays   int    `json:"due_in_days"`
}

type SendEmailDigestConfig struct {
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	RecipientRoles []string `json:"recipient_roles"`
}

type AddCommentConfig struct {
	Comment string `json:"comment"`
}

type SetFieldConfig struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type EscalateConfig struct {
	Message         string   `json:"message"`
	EscalateToRoles []string `json:"escalate_to_roles"`
}

type StartApprovalChainConfig struct {
	ChainName     string   `json:"chain_name"`
	ApproverRoles []string `json:"approver_roles"`
	DueInDays     int      `json:"due_in_days"`
}

// AIGenerateConfig asks the text-generation backend to fill TargetField on
// the triggering entity.
type AIGenerateConfig struct {
	PromptTemplate string `json:"prompt_template"`
	TargetField    string `json:"target_field"`
	OutputFormat   string `json:"output_format"`
}

// DecodeActionConfig converts a raw config map into the typed config struct
// for the given action type. The map is round-tripped through JSON so wire
// payloads and persisted definitions decode identically.
func DecodeActionConfig(actionType ActionType, config map[string]any) (any, error) {
	var target any

	switch actionType {
	case ActionSendNotification:
		target = &SendNotificationConfig{}
	case ActionAssignUser:
		target = &AssignUserConfig{}
	case ActionChangeStatus:
		target = &ChangeStatusConfig{}
	case ActionCreateTask:
		target = &CreateTaskConfig{}
	case ActionCreateCAPA:
		target = &CreateCAPAConfig{}
	case ActionSendEmailDigest:
		target = &SendEmailDigestConfig{}
	case ActionAddComment:
		target = &AddCommentConfig{}
	case ActionSetField:
		target = &SetFieldConfig{}
	case ActionEscalate:
		target = &EscalateConfig{}
	case ActionStartApprovalChain:
		target = &StartApprovalChainConfig{}
	case ActionAIGenerate:
		target = &AIGenerateConfig{}
	default:
		return nil, fmt.Errorf("unknown action type %q", actionType)
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config for %s: %w", actionType, err)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("failed to decode config for %s: %w", actionType, err)
	}

	return target, nil
}
