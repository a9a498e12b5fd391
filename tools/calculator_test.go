package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/taskweave/tool"
)

func testToolContext() *tool.Context {
	return tool.NewContext(context.Background(), "s1", "c1", []string{"assistant"}, nil)
}

func TestCalculatorEvaluates(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"2 + 2", "4"},
		{"10 - 3 - 2", "5"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"-5 + 3", "-2"},
		{"--4", "4"},
		{"3.5 * 2", "7"},
		{"7 / 2", "3.5"},
		{"((1 + 2) * (3 + 4))", "21"},
	}

	calc := NewCalculator()
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			result, err := calc.Call(testToolContext(), map[string]any{"expression": tc.expr})
			require.NoError(t, err)
			assert.Equal(t, tc.want, result)
		})
	}
}

func TestCalculatorErrors(t *testing.T) {
	cases := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"division by zero", "1 / 0"},
		{"trailing garbage", "2 + 2 x"},
		{"missing operand", "2 +"},
		{"unbalanced parens", "(2 + 3"},
		{"letters", "two plus two"},
	}

	calc := NewCalculator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Call(testToolContext(), map[string]any{"expression": tc.expr})
			assert.Error(t, err)
		})
	}
}

func TestCalculatorSpec(t *testing.T) {
	calc := NewCalculator()
	spec := calc.Spec()
	assert.Equal(t, "calculator", calc.Name())
	assert.Equal(t, "calculator", spec.Name)
	require.Contains(t, spec.Parameters, "expression")
	assert.True(t, spec.Parameters["expression"].Required)
}
