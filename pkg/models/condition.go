package models

// LogicOperator combines the atomic conditions of a group.
type LogicOperator string

const (
	LogicAnd LogicOperator = "and"
	LogicOr  LogicOperator = "or"
)

// Operator is the comparison applied by a single condition.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorIsEmpty     Operator = "is_empty"
	OperatorIsNotEmpty  Operator = "is_not_empty"
	OperatorInList      Operator = "in_list"
)

func Operators() []Operator {
	return []Operator{
		OperatorEquals,
		OperatorNotEquals,
		OperatorContains,
		OperatorGreaterThan,
		OperatorLessThan,
		OperatorIsEmpty,
		OperatorIsNotEmpty,
		OperatorInList,
	}
}

func (o Operator) Valid() bool {
	for _, known := range Operators() {
		if o == known {
			return true
		}
	}

	return false
}

// Condition compares one entity field against a literal value.
type Condition struct {
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required"`
	Value    string   `json:"value"`
}

// ConditionGroup gates whether a matched trigger actually fires.
// An empty condition list always passes.
type ConditionGroup struct {
	Logic      LogicOperator `json:"logic"      validate:"omitempty,oneof=and or"`
	Conditions []Condition   `json:"conditions" validate:"dive"`
}
