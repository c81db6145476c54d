package actions

import (
	"context"
	"fmt"

	"github.com/accrediq/engine/pkg/ai"
	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/registry"
)

// forwardingHandler decodes the typed config for its action type and
// dispatches it as a command. The decode doubles as a run-time sanity check;
// the real validation happened at save time.
type forwardingHandler struct {
	actionType models.ActionType
	dispatcher Dispatcher
	describe   func(config any, snapshot entity.Snapshot) string
}

func (h *forwardingHandler) Execute(ctx context.Context, config map[string]any, snapshot entity.Snapshot) (registry.HandlerResult, error) {
	typed, err := models.DecodeActionConfig(h.actionType, config)
	if err != nil {
		return registry.HandlerResult{}, err
	}

	payload, err := payloadFor(typed)
	if err != nil {
		return registry.HandlerResult{}, fmt.Errorf("failed to encode %s payload: %w", h.actionType, err)
	}

	if err := h.dispatcher.Dispatch(ctx, h.actionType, snapshot, payload); err != nil {
		return registry.HandlerResult{}, fmt.Errorf("failed to dispatch %s: %w", h.actionType, err)
	}

	return registry.HandlerResult{
		Status:  models.ActionStatusCompleted,
		Message: h.describe(typed, snapshot),
	}, nil
}

func entityRef(snapshot entity.Snapshot) string {
	title, ok := snapshot.GetString("title")
	if !ok || title == "" {
		title, _ = snapshot.GetString("name")
	}

	id, _ := snapshot.GetString("id")

	switch {
	case title != "" && id != "":
		return fmt.Sprintf("%s (%s)", title, id)
	case title != "":
		return title
	case id != "":
		return id
	default:
		return "entity"
	}
}

func NewSendNotificationHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionSendNotification,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.SendNotificationConfig)

			return fmt.Sprintf("notification %q sent to %v for %s", c.Title, c.RecipientRoles, entityRef(snapshot))
		},
	}
}

func NewAssignUserHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionAssignUser,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.AssignUserConfig)
			if len(c.UserIDs) > 0 {
				return fmt.Sprintf("assigned users %v to %s", c.UserIDs, entityRef(snapshot))
			}

			return fmt.Sprintf("assigned roles %v to %s", c.Roles, entityRef(snapshot))
		},
	}
}

func NewChangeStatusHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionChangeStatus,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.ChangeStatusConfig)

			return fmt.Sprintf("status of %s changed to %q", entityRef(snapshot), c.TargetStatus)
		},
	}
}

func NewCreateTaskHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionCreateTask,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.CreateTaskConfig)

			return fmt.Sprintf("task %q created for roles %v from %s", c.Title, c.AssignToRoles, entityRef(snapshot))
		},
	}
}

func NewCreateCAPAHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionCreateCAPA,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.CreateCAPAConfig)

			return fmt.Sprintf("CAPA %q opened from %s", c.Title, entityRef(snapshot))
		},
	}
}

func NewSendEmailDigestHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionSendEmailDigest,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.SendEmailDigestConfig)

			return fmt.Sprintf("email digest %q queued for %v", c.Subject, c.RecipientRoles)
		},
	}
}

func NewAddCommentHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionAddComment,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			return "comment added to " + entityRef(snapshot)
		},
	}
}

func NewSetFieldHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionSetField,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.SetFieldConfig)

			return fmt.Sprintf("field %q set on %s", c.Field, entityRef(snapshot))
		},
	}
}

func NewEscalateHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionEscalate,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.EscalateConfig)

			return fmt.Sprintf("%s escalated to %v", entityRef(snapshot), c.EscalateToRoles)
		},
	}
}

func NewStartApprovalChainHandler(dispatcher Dispatcher) registry.Handler {
	return &forwardingHandler{
		actionType: models.ActionStartApprovalChain,
		dispatcher: dispatcher,
		describe: func(config any, snapshot entity.Snapshot) string {
			c := config.(*models.StartApprovalChainConfig)

			return fmt.Sprintf("approval chain %q started for %s", c.ChainName, entityRef(snapshot))
		},
	}
}

// RegisterDefaults installs the built-in handler set. The dispatcher carries
// every side effect except text generation, which goes through the generator.
func RegisterDefaults(reg *registry.Registry, dispatcher Dispatcher, generator ai.TextGenerator) {
	reg.Register(models.ActionSendNotification, NewSendNotificationHandler(dispatcher))
	reg.Register(models.ActionAssignUser, NewAssignUserHandler(dispatcher))
	reg.Register(models.ActionChangeStatus, NewChangeStatusHandler(dispatcher))
	reg.Register(models.ActionCreateTask, NewCreateTaskHandler(dispatcher))
	reg.Register(models.ActionCreateCAPA, NewCreateCAPAHandler(dispatcher))
	reg.Register(models.ActionSendEmailDigest, NewSendEmailDigestHandler(dispatcher))
	reg.Register(models.ActionAddComment, NewAddCommentHandler(dispatcher))
	reg.Register(models.ActionSetField, NewSetFieldHandler(dispatcher))
	reg.Register(models.ActionEscalate, NewEscalateHandler(dispatcher))
	reg.Register(models.ActionStartApprovalChain, NewStartApprovalChainHandler(dispatcher))
	reg.Register(models.ActionAIGenerate, NewAIGenerateHandler(dispatcher, generator))
}
