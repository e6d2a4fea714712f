package scripting

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
)

// Evaluator computes numeric results for arithmetic formulas such as
// "math.ceil(level / 2) + 1". Each evaluation runs in a fresh sandboxed
// LState, so an Evaluator is safe for concurrent use.
type Evaluator struct {
	instLimit int
}

// NewEvaluator creates an Evaluator with the given per-evaluation opcode
// limit; 0 uses DefaultInstructionLimit.
func NewEvaluator(instLimit int) *Evaluator {
	return &Evaluator{instLimit: instLimit}
}

// Evaluate resolves formula with vars bound as Lua globals and returns the
// result truncated to an int.
//
// Precondition: formula must be a single Lua expression.
// Postcondition: Returns the numeric result, or an error when the formula
// fails to parse, exceeds the instruction limit, or yields anything but a
// finite number in integer range.
func (e *Evaluator) Evaluate(formula string, vars map[string]int) (int, error) {
	if formula == "" {
		return 0, fmt.Errorf("scripting: empty formula")
	}

	L := newSandboxedState(e.instLimit)
	defer L.Close()

	for name, value := range vars {
		L.SetGlobal(name, lua.LNumber(value))
	}

	if err := L.DoString("return " + formula); err != nil {
		return 0, fmt.Errorf("scripting: evaluating %q: %w", formula, err)
	}

	ret := L.Get(-1)
	num, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("scripting: formula %q returned %s, want number", formula, ret.Type())
	}
	f := float64(num)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("scripting: formula %q returned non-finite result", formula)
	}
	// math.huge is MaxFloat64, which passes the finite check but overflows
	// the int conversion. 2^53 bounds the exactly representable integers.
	if math.Abs(f) >= 1<<53 {
		return 0, fmt.Errorf("scripting: formula %q result %g exceeds integer range", formula, f)
	}
	return int(f), nil
}
