package validation

import (
	"slices"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	if !slices.Contains(allowed, value) {
		v[field] = "invalid_value"
	}
}

// NonEmptyMap flags a nil or empty map (e.g. a measurement snapshot with no
// entries).
func NonEmptyMap(field string, m map[string]string, v Violations) {
	if len(m) == 0 {
		v[field] = "required"
	}
}
