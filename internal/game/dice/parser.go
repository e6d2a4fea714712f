package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: Count >= 1, Sides >= 2 after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d10", "1d10", "2d6+3", "4d8-2"
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	// Count before 'd' defaults to 1 when omitted.
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
	}
	if count < 1 {
		return Expression{}, fmt.Errorf("dice: die count must be >= 1 in %q", raw)
	}

	rest := s[dIdx+1:]
	modifier := 0
	plusIdx := strings.IndexAny(rest, "+-")
	sidesStr := rest
	if plusIdx >= 0 {
		sidesStr = rest[:plusIdx]
		var err error
		modifier, err = strconv.Atoi(rest[plusIdx:])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: die sides must be >= 2 in %q", raw)
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Average returns the rounded-up statistical mean of the expression:
// count * (sides + 1) / 2 + modifier, with the per-die mean rounded up.
// This matches the tabletop convention for taking average hit points.
//
// Postcondition: return value == Count * ceil((Sides+1)/2) + Modifier.
func (e Expression) Average() int {
	perDie := (e.Sides + 2) / 2 // ceil((sides+1)/2) for integer sides
	return e.Count*perDie + e.Modifier
}

// IsDiceExpression reports whether s parses as a dice expression.
// Used to distinguish dice formulas from scalars in scale-value tables.
func IsDiceExpression(s string) bool {
	_, err := Parse(s)
	return err == nil
}
