// Package entity provides uniform read access to domain-entity snapshots and
// token substitution for action text templates.
package entity

import (
	"fmt"
	"reflect"
	"strconv"
)

// Snapshot is the point-in-time field values of the domain object that
// triggered an event. Field names are flat identifiers; the engine never
// dereferences nested paths.
type Snapshot map[string]any

// Get resolves a field by name. Unknown fields report ok=false, never an
// error, so partially populated entities evaluate safely.
func (s Snapshot) Get(field string) (any, bool) {
	if s == nil {
		return nil, false
	}

	value, ok := s[field]

	return value, ok
}

// GetString resolves a field and coerces it to its normalized string form.
func (s Snapshot) GetString(field string) (string, bool) {
	value, ok := s.Get(field)
	if !ok {
		return "", false
	}

	return Stringify(value), true
}

// Stringify normalizes a snapshot value to its string-cast form. Floats that
// hold integral values print without a fraction so JSON-decoded numbers
// compare naturally against authored values.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}

		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return Stringify(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsEmpty reports whether a resolved value counts as empty: missing entirely,
// nil, an empty string, or an empty collection.
func IsEmpty(value any, present bool) bool {
	if !present || value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return v == ""
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}
