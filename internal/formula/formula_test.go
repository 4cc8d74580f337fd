package formula

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	vars := map[string]float64{"num1": 7, "num2": 3, "price": 2.5}
	tests := []struct {
		expr string
		want float64
	}{
		{"num1 + num2", 10},
		{"num1 - num2", 4},
		{"num1 * num2", 21},
		{"num1 / 2", 3.5},
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"-num2 + num1", 4},
		{"--3", 3},
		{"price * 4", 10},
		{"  42  ", 42},
		{"num1 - num2 - 1", 3},
		{"24 / 4 / 2", 3},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr, vars)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEval_Errors(t *testing.T) {
	vars := map[string]float64{"a": 1, "zero": 0}

	_, err := Eval("a / zero", vars)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Eval("a + b", vars)
	var unknown *UnknownVariableError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "b", unknown.Name)

	for _, bad := range []string{"", "a +", "(a + 1", "a + 1)", "a ^ 2", "1..2", "a b", "os.Exit(1)"} {
		_, err := Eval(bad, vars)
		var syn *SyntaxError
		assert.True(t, errors.As(err, &syn), "expected syntax error for %q, got %v", bad, err)
	}
}

func TestVariables(t *testing.T) {
	e, err := Parse("(apples + oranges) * apples - 2")
	require.NoError(t, err)
	assert.Equal(t, []string{"apples", "oranges"}, e.Variables())
	assert.Equal(t, "(apples + oranges) * apples - 2", e.String())

	e, err = Parse("12 * 3")
	require.NoError(t, err)
	assert.Empty(t, e.Variables())
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("planet"))
	assert.True(t, IsIdentifier("num_2"))
	assert.False(t, IsIdentifier("2num"))
	assert.False(t, IsIdentifier("a + b"))
	assert.False(t, IsIdentifier(""))
}
