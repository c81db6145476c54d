package entity

import "github.com/accrediq/engine/pkg/models"

// fieldCatalog is the known attribute set per entity type. Save-time
// validation checks condition fields against it; at run time unknown fields
// simply resolve as missing.
var fieldCatalog = map[models.EntityType][]string{
	models.EntityDocument: {
		"id", "title", "status", "version", "category", "department",
		"owner", "approvedBy", "dueDate", "reviewDate", "tags",
	},
	models.EntityProject: {
		"id", "name", "status", "stage", "lead", "department",
		"startDate", "endDate", "progress",
	},
	models.EntityChecklistItem: {
		"id", "title", "status", "chapter", "standard", "assignee",
		"dueDate", "complianceLevel", "evidence",
	},
	models.EntityCAPA: {
		"id", "title", "status", "severity", "source", "owner",
		"rootCause", "dueDate", "closedAt", "effectiveness",
	},
	models.EntityPDCACycle: {
		"id", "title", "status", "phase", "owner", "objective",
		"startDate", "targetDate",
	},
	models.EntityIncident: {
		"id", "title", "status", "severity", "type", "location",
		"reportedBy", "occurredAt", "summary", "harmLevel",
	},
	models.EntityRisk: {
		"id", "title", "status", "category", "likelihood", "impact",
		"score", "owner", "mitigation", "reviewDate",
	},
	models.EntityAudit: {
		"id", "title", "status", "type", "auditor", "department",
		"scheduledDate", "findingsCount", "score",
	},
	models.EntityTraining: {
		"id", "title", "status", "trainer", "audience", "dueDate",
		"completionRate", "mandatory",
	},
	models.EntityTask: {
		"id", "title", "status", "priority", "assignee", "createdBy",
		"dueDate", "completedAt", "description",
	},
}

// Fields returns the known attribute names for an entity type.
func Fields(entityType models.EntityType) []string {
	return fieldCatalog[entityType]
}

// HasField reports whether a field name is resolvable for an entity type.
func HasField(entityType models.EntityType, field string) bool {
	for _, known := range fieldCatalog[entityType] {
		if known == field {
			return true
		}
	}

	return false
}
