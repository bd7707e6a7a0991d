package primitives_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/blockvm/internal/ir"
)

// binary returns a one-block script applying opcode to two literals.
func binary(opcode, x, y string, a, b any) string {
	return fmt.Sprintf(`
      - id: top
        opcode: %s
        top_level: true
        inputs: {%s: %q, %s: %q}
`, opcode, x, fmt.Sprint(a), y, fmt.Sprint(b))
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op   string
		a, b any
		want ir.Value
	}{
		{"operator_add", 2, 3, ir.Int(5)},
		{"operator_add", "0.25", "1", ir.Float(1.25)},
		{"operator_subtract", 2, 5, ir.Int(-3)},
		{"operator_multiply", "2", "3.5", ir.Int(7)},
		{"operator_divide", 7, 2, ir.Float(3.5)},
		{"operator_add", "abc", 4, ir.Int(4)},
		{"operator_mod", 7, 3, ir.Int(1)},
		{"operator_mod", -1, 3, ir.Int(2)},
		{"operator_mod", 7, -3, ir.Int(-2)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s(%v,%v)", tt.op, tt.a, tt.b), func(t *testing.T) {
			got := click(t, binary(tt.op, "NUM1", "NUM2", tt.a, tt.b))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		op   string
		a, b any
		want bool
	}{
		{"operator_lt", 2, 10, true},
		{"operator_lt", "apple", "Banana", true},
		{"operator_gt", "10", "9", true},
		{"operator_equals", "ABC", "abc", true},
		{"operator_equals", "1.0", 1, true},
		{"operator_equals", "a", "b", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s(%v,%v)", tt.op, tt.a, tt.b), func(t *testing.T) {
			got := click(t, binary(tt.op, "OPERAND1", "OPERAND2", tt.a, tt.b))
			assert.Equal(t, ir.Bool(tt.want), got)
		})
	}
}

func TestLogic(t *testing.T) {
	assert.Equal(t, ir.Bool(false), click(t, binary("operator_and", "OPERAND1", "OPERAND2", "true", "false")))
	assert.Equal(t, ir.Bool(true), click(t, binary("operator_or", "OPERAND1", "OPERAND2", "0", "true")))
	assert.Equal(t, ir.Bool(true), click(t, `
      - id: top
        opcode: operator_not
        top_level: true
        inputs: {OPERAND: "false"}
`))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, ir.String("hello world"), click(t, binary("operator_join", "STRING1", "STRING2", "hello ", "world")))
	assert.Equal(t, ir.Bool(true), click(t, binary("operator_contains", "STRING1", "STRING2", "Hello", "ELL")))
	assert.Equal(t, ir.String("é"), click(t, binary("operator_letter_of", "LETTER", "STRING", 2, "héllo")))
	assert.Equal(t, ir.String(""), click(t, binary("operator_letter_of", "LETTER", "STRING", 9, "abc")))
	assert.Equal(t, ir.Int(5), click(t, `
      - id: top
        opcode: operator_length
        top_level: true
        inputs: {STRING: héllo}
`))
}

func TestRoundAndMathop(t *testing.T) {
	assert.Equal(t, ir.Int(3), click(t, `
      - id: top
        opcode: operator_round
        top_level: true
        inputs: {NUM: 2.5}
`))

	tests := []struct {
		op   string
		num  string
		want ir.Value
	}{
		{"abs", "-3", ir.Int(3)},
		{"floor", "2.7", ir.Int(2)},
		{"ceiling", "2.1", ir.Int(3)},
		{"sqrt", "16", ir.Int(4)},
		{"10 ^", "2", ir.Int(100)},
		{"ln", "1", ir.Int(0)},
		{"nonsense", "5", ir.Int(0)},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got := click(t, fmt.Sprintf(`
      - id: top
        opcode: operator_mathop
        top_level: true
        fields: {OPERATOR: %q}
        inputs: {NUM: %q}
`, tt.op, tt.num))
			assert.Equal(t, tt.want, got)
		})
	}
}
