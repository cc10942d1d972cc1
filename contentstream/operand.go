package contentstream

import (
	"fmt"
	"strings"
)

// Operand is a value that precedes an operator in a content stream.
type Operand interface {
	fmt.Stringer
	operand()
}

// Number is a numeric operand. Integers and reals are not distinguished.
type Number float64

// String is a literal or hex string operand holding raw bytes. How the
// bytes map to text depends on the font in use.
type String []byte

// Name is a name operand without its leading slash.
type Name string

// Bool is a boolean operand.
type Bool bool

// Null is the null operand.
type Null struct{}

// Array is an array operand.
type Array []Operand

// Dict is a dictionary operand, as found in marked-content properties.
type Dict map[string]Operand

func (Number) operand() {}
func (String) operand() {}
func (Name) operand()   {}
func (Bool) operand()   {}
func (Null) operand()   {}
func (Array) operand()  {}
func (Dict) operand()   {}

func (n Number) String() string { return fmt.Sprintf("%g", float64(n)) }
func (s String) String() string { return fmt.Sprintf("(%s)", string(s)) }
func (n Name) String() string   { return "/" + string(n) }
func (b Bool) String() string   { return fmt.Sprintf("%t", bool(b)) }
func (Null) String() string     { return "null" }

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (d Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for k, v := range d {
		sb.WriteString(" /" + k + " " + v.String())
	}
	sb.WriteString(" >>")
	return sb.String()
}

// Float returns op as a number.
func Float(op Operand) (float64, bool) {
	n, ok := op.(Number)
	return float64(n), ok
}

// Floats returns the first n operands as numbers. It fails when there are
// fewer than n operands or one of them is not a number.
func Floats(ops []Operand, n int) ([]float64, error) {
	if len(ops) < n {
		return nil, fmt.Errorf("need %d numeric operands, got %d", n, len(ops))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, ok := Float(ops[i])
		if !ok {
			return nil, fmt.Errorf("operand %d is %T, not a number", i, ops[i])
		}
		out[i] = v
	}
	return out, nil
}
