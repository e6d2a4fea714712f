package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEvaluateArithmetic(t *testing.T) {
	e := NewEvaluator(0)

	tests := []struct {
		formula string
		vars    map[string]int
		want    int
	}{
		{"1 + 2", nil, 3},
		{"2 + level", map[string]int{"level": 5}, 7},
		{"5 + level * 2", map[string]int{"level": 10}, 25},
		{"math.ceil(level / 2)", map[string]int{"level": 7}, 4},
		{"math.floor(level / 2)", map[string]int{"level": 7}, 3},
		{"math.max(1, level - 3)", map[string]int{"level": 1}, 1},
	}
	for _, tt := range tests {
		got, err := e.Evaluate(tt.formula, tt.vars)
		require.NoError(t, err, "formula %q", tt.formula)
		assert.Equal(t, tt.want, got, "formula %q", tt.formula)
	}
}

func TestEvaluateEmptyFormula(t *testing.T) {
	e := NewEvaluator(0)
	_, err := e.Evaluate("", nil)
	assert.Error(t, err)
}

func TestEvaluateSyntaxError(t *testing.T) {
	e := NewEvaluator(0)
	_, err := e.Evaluate("1 +", nil)
	assert.Error(t, err)
}

func TestEvaluateNonNumericResult(t *testing.T) {
	e := NewEvaluator(0)
	_, err := e.Evaluate(`"text"`, nil)
	assert.Error(t, err)
}

func TestEvaluateNonFiniteResult(t *testing.T) {
	e := NewEvaluator(0)
	_, err := e.Evaluate("0/0", nil)
	assert.Error(t, err)

	_, err = e.Evaluate("math.huge", nil)
	assert.Error(t, err)
}

func TestEvaluateOverflowingResult(t *testing.T) {
	e := NewEvaluator(0)
	for _, formula := range []string{"2^60", "-2^60", "2^53"} {
		_, err := e.Evaluate(formula, nil)
		assert.Error(t, err, "formula %q exceeds the exactly representable integers", formula)
	}

	n, err := e.Evaluate("2^52", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1<<52, n)
}

func TestEvaluateInstructionLimit(t *testing.T) {
	e := NewEvaluator(100)
	_, err := e.Evaluate("(function() local n = 0 while true do n = n + 1 end end)()", nil)
	assert.Error(t, err, "infinite loop must hit the instruction limit")
}

func TestSandboxBlocksEscapes(t *testing.T) {
	e := NewEvaluator(0)
	for _, formula := range []string{
		`os.time()`,
		`io.read()`,
		`require("os")`,
		`load("return 1")()`,
		`dofile("/etc/passwd")`,
	} {
		_, err := e.Evaluate(formula, nil)
		assert.Error(t, err, "formula %q must be blocked", formula)
	}
}

func TestEvaluateLinearFormulaProperty(t *testing.T) {
	e := NewEvaluator(0)
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 50).Draw(t, "a")
		b := rapid.IntRange(0, 10).Draw(t, "b")
		level := rapid.IntRange(1, 20).Draw(t, "level")

		got, err := e.Evaluate("a + b * level", map[string]int{
			"a": a, "b": b, "level": level,
		})
		require.NoError(t, err)
		assert.Equal(t, a+b*level, got)
	})
}
