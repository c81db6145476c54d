// Package conditions evaluates workflow condition groups against entity
// snapshots.
package conditions

import (
	"strconv"
	"strings"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
)

// listSeparator splits in_list comparison values.
const listSeparator = ","

// Evaluate applies a condition group to an entity snapshot. Evaluation is
// pure: it depends only on the group and the snapshot, performs no I/O and
// never panics, so recorded runs can be replayed offline.
//
// AND short-circuits on the first false condition, OR on the first true one.
// An empty condition list is vacuously true.
func Evaluate(group models.ConditionGroup, snapshot entity.Snapshot) bool {
	if len(group.Conditions) == 0 {
		return true
	}

	for _, condition := range group.Conditions {
		passed := evaluateCondition(condition, snapshot)

		switch group.Logic {
		case models.LogicOr:
			if passed {
				return true
			}
		default:
			if !passed {
				return false
			}
		}
	}

	return group.Logic != models.LogicOr
}

func evaluateCondition(condition models.Condition, snapshot entity.Snapshot) bool {
	value, present := snapshot.Get(condition.Field)

	switch condition.Operator {
	case models.OperatorEquals:
		return present && entity.Stringify(value) == condition.Value
	case models.OperatorNotEquals:
		return !present || entity.Stringify(value) != condition.Value
	case models.OperatorContains:
		return present && strings.Contains(entity.Stringify(value), condition.Value)
	case models.OperatorGreaterThan:
		return compareNumeric(value, present, condition.Value, func(field, ref float64) bool {
			return field > ref
		})
	case models.OperatorLessThan:
		return compareNumeric(value, present, condition.Value, func(field, ref float64) bool {
			return field < ref
		})
	case models.OperatorIsEmpty:
		return entity.IsEmpty(value, present)
	case models.OperatorIsNotEmpty:
		return !entity.IsEmpty(value, present)
	case models.OperatorInList:
		return present && inList(entity.Stringify(value), condition.Value)
	default:
		return false
	}
}

// compareNumeric fails closed: when either side cannot be parsed as a number
// the condition is false rather than an error, so malformed data cannot
// accidentally trigger an action.
func compareNumeric(value any, present bool, reference string, cmp func(field, ref float64) bool) bool {
	if !present {
		return false
	}

	fieldNum, err := strconv.ParseFloat(strings.TrimSpace(entity.Stringify(value)), 64)
	if err != nil {
		return false
	}

	refNum, err := strconv.ParseFloat(strings.TrimSpace(reference), 64)
	if err != nil {
		return false
	}

	return cmp(fieldNum, refNum)
}

func inList(value, list string) bool {
	for _, item := range strings.Split(list, listSeparator) {
		if strings.TrimSpace(item) == value {
			return true
		}
	}

	return false
}
