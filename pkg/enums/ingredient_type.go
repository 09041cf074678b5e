package enums

import (
	"fmt"
	"strings"
)

// IngredientType classifies how an ingredient attaches to a menu item.
type IngredientType string

const (
	// IngredientTypeRequired is always included and never priced.
	IngredientTypeRequired IngredientType = "required"
	// IngredientTypeChoice belongs to a pick-exactly-one group.
	IngredientTypeChoice IngredientType = "choice"
	// IngredientTypeOptional may be added any number of times up to once each.
	IngredientTypeOptional IngredientType = "optional"
)

var validIngredientTypes = []IngredientType{
	IngredientTypeRequired,
	IngredientTypeChoice,
	IngredientTypeOptional,
}

// String implements fmt.Stringer.
func (t IngredientType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known IngredientType.
func (t IngredientType) IsValid() bool {
	for _, candidate := range validIngredientTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Selectable reports whether a customer can pick this type on a cart item.
func (t IngredientType) Selectable() bool {
	return t == IngredientTypeChoice || t == IngredientTypeOptional
}

// ParseIngredientType converts raw input into an IngredientType.
func ParseIngredientType(value string) (IngredientType, error) {
	normalized := IngredientType(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid ingredient type %q", value)
}
