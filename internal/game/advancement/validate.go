package advancement

import (
	"fmt"
	"strconv"
)

// Item type categories with restriction-specific rules.
const (
	ItemTypeFeature = "feature"
	ItemTypePower   = "power"
)

// ValidationError reports an item failing a strict type restriction.
// It names the mismatched type, subtype, or level so the configuration UI
// can surface a precise message instead of crashing the wizard.
type ValidationError struct {
	ItemName string
	ItemType string
	Field    string // "type", "subtype", or "level"
	Want     string
	Got      string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("item %q: %s mismatch: want %q, got %q", e.ItemName, e.Field, e.Want, e.Got)
}

// ValidateItemType checks item against a restriction.
//
// Rules:
//   - Base type: item.Type must equal restriction.Type when set.
//   - Feature subtype: when the restricted type is "feature" and a subtype
//     is set, item.Subtype must match.
//   - Power level: when the restricted type is "power" and restriction.Level
//     parses as an integer, item.Level must equal it exactly; a non-numeric
//     level means no restriction.
//
// When strict is false a failing item yields (false, nil); when strict is
// true it yields (false, *ValidationError) naming the mismatch.
//
// Precondition: item must be non-nil. Restriction fields are normalized at
// content load time; unknown restriction types are rejected there.
func ValidateItemType(item *ItemData, r Restriction, strict bool) (bool, error) {
	if item == nil {
		panic("advancement: ValidateItemType precondition violated: item must be non-nil")
	}

	fail := func(field, want, got string) (bool, error) {
		if !strict {
			return false, nil
		}
		return false, &ValidationError{
			ItemName: item.Name,
			ItemType: item.Type,
			Field:    field,
			Want:     want,
			Got:      got,
		}
	}

	if r.Type != "" && item.Type != r.Type {
		return fail("type", r.Type, item.Type)
	}
	if r.Type == ItemTypeFeature && r.Subtype != "" && item.Subtype != r.Subtype {
		return fail("subtype", r.Subtype, item.Subtype)
	}
	if r.Type == ItemTypePower {
		if want, err := strconv.Atoi(r.Level); err == nil && item.Level != want {
			return fail("level", r.Level, strconv.Itoa(item.Level))
		}
	}
	return true, nil
}
