package contentstream

import (
	"errors"
	"io"
	"reflect"
	"testing"
)

func parseAll(t *testing.T, input string) []Operation {
	t.Helper()
	ops, err := NewParser([]byte(input)).Parse()
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	return ops
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Operation
	}{
		{
			name:  "no operands",
			input: "q",
			want:  []Operation{{Operator: "q"}},
		},
		{
			name:  "integer operand",
			input: "100 Tz",
			want:  []Operation{{Operator: "Tz", Operands: []Operand{Number(100)}}},
		},
		{
			name:  "real and signed operands",
			input: "-1.5 +.25 Td",
			want:  []Operation{{Operator: "Td", Operands: []Operand{Number(-1.5), Number(0.25)}}},
		},
		{
			name:  "font selection",
			input: "/F1 12 Tf",
			want:  []Operation{{Operator: "Tf", Operands: []Operand{Name("F1"), Number(12)}}},
		},
		{
			name:  "star operators",
			input: "T* f*",
			want:  []Operation{{Operator: "T*"}, {Operator: "f*"}},
		},
		{
			name:  "quote operators",
			input: "(a) ' 1 2 (b) \"",
			want: []Operation{
				{Operator: "'", Operands: []Operand{String("a")}},
				{Operator: "\"", Operands: []Operand{Number(1), Number(2), String("b")}},
			},
		},
		{
			name:  "operator with digit",
			input: "500 0 d0",
			want:  []Operation{{Operator: "d0", Operands: []Operand{Number(500), Number(0)}}},
		},
		{
			name:  "keywords",
			input: "true false null X",
			want:  []Operation{{Operator: "X", Operands: []Operand{Bool(true), Bool(false), Null{}}}},
		},
		{
			name:  "comments are skipped",
			input: "q % save state\n1 0 0 1 5 5 cm %trailing",
			want: []Operation{
				{Operator: "q"},
				{Operator: "cm", Operands: []Operand{Number(1), Number(0), Number(0), Number(1), Number(5), Number(5)}},
			},
		},
		{
			name:  "operators without separating space",
			input: "BT/F1 9 Tf(Hi)Tj ET",
			want: []Operation{
				{Operator: "BT"},
				{Operator: "Tf", Operands: []Operand{Name("F1"), Number(9)}},
				{Operator: "Tj", Operands: []Operand{String("Hi")}},
				{Operator: "ET"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAll(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "(Hello World)", "Hello World"},
		{"nested parentheses", "(a (b) c)", "a (b) c"},
		{"escapes", `(a\nb\tc\\d\(e\))`, "a\nb\tc\\d(e)"},
		{"octal", `(\101\102\7)`, "AB\x07"},
		{"line continuation", "(ab\\\ncd)", "abcd"},
		{"unknown escape", `(\q)`, "q"},
		{"hex", "<48656C6C6F>", "Hello"},
		{"hex with spaces", "<48 65 6c>", "Hel"},
		{"hex odd length", "<414>", "A@"},
		{"empty hex", "<>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := parseAll(t, tt.input+" Tj")
			if len(ops) != 1 || len(ops[0].Operands) != 1 {
				t.Fatalf("unexpected operations %v", ops)
			}
			s, ok := ops[0].Operands[0].(String)
			if !ok {
				t.Fatalf("operand is %T, want String", ops[0].Operands[0])
			}
			if string(s) != tt.want {
				t.Errorf("got %q, want %q", string(s), tt.want)
			}
		})
	}
}

func TestParseNameEscapes(t *testing.T) {
	ops := parseAll(t, "/A#20B /C#2 Do")
	want := []Operand{Name("A B"), Name("C#2")}
	if !reflect.DeepEqual(ops[0].Operands, want) {
		t.Errorf("got %v, want %v", ops[0].Operands, want)
	}
}

func TestParseArray(t *testing.T) {
	ops := parseAll(t, "[(Hel) -120 (lo) [1 2]] TJ")
	want := Array{String("Hel"), Number(-120), String("lo"), Array{Number(1), Number(2)}}
	if !reflect.DeepEqual(ops[0].Operands[0], want) {
		t.Errorf("got %v, want %v", ops[0].Operands[0], want)
	}
}

func TestParseDict(t *testing.T) {
	ops := parseAll(t, "/Span <</ActualText (x) /MCID 3>> BDC EMC")
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	dict, ok := ops[0].Operands[1].(Dict)
	if !ok {
		t.Fatalf("operand is %T, want Dict", ops[0].Operands[1])
	}
	if !reflect.DeepEqual(dict["ActualText"], String("x")) || dict["MCID"] != Number(3) {
		t.Errorf("unexpected dict %v", dict)
	}
}

func TestParseInlineImage(t *testing.T) {
	input := "q BI /W 2 /H 1 /BPC 8 /CS /G ID \x00\xffEIx\x10 EI Q (after) Tj"
	ops := parseAll(t, input)

	var names []string
	for _, op := range ops {
		names = append(names, op.Operator)
	}
	want := []string{"q", "BI", "Q", "Tj"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got operators %v, want %v", names, want)
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"(unclosed",
		"<4G>",
		"<414",
		"[1 2",
		"<< /A 1",
		"<< 1 2 >>",
		") Tj",
		"BI /W 1 ID data",
	}
	for _, input := range inputs {
		if _, err := NewParser([]byte(input)).Parse(); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
		}
	}
}

func TestNextStreams(t *testing.T) {
	p := NewParser([]byte("BT (a) Tj ET 1 2"))

	var got []string
	for {
		op, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		got = append(got, op.Operator)
	}
	if !reflect.DeepEqual(got, []string{"BT", "Tj", "ET"}) {
		t.Errorf("got %v", got)
	}

	if _, err := p.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next after end returned %v, want io.EOF", err)
	}
}

func TestParsersAreIndependent(t *testing.T) {
	a := NewParser([]byte("1 2 "))
	if _, err := a.Parse(); err != nil {
		t.Fatal(err)
	}
	ops := parseAll(t, "q")
	if len(ops[0].Operands) != 0 {
		t.Errorf("operands leaked between parsers: %v", ops[0].Operands)
	}
}

func TestFloats(t *testing.T) {
	got, err := Floats([]Operand{Number(1), Number(2.5), Name("x")}, 2)
	if err != nil || !reflect.DeepEqual(got, []float64{1, 2.5}) {
		t.Errorf("Floats = %v, %v", got, err)
	}
	if _, err := Floats([]Operand{Number(1)}, 2); err == nil {
		t.Error("expected error for too few operands")
	}
	if _, err := Floats([]Operand{Name("x")}, 1); err == nil {
		t.Error("expected error for non-numeric operand")
	}
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		op   Operand
		want string
	}{
		{Number(1.5), "1.5"},
		{String("hi"), "(hi)"},
		{Name("F1"), "/F1"},
		{Bool(true), "true"},
		{Null{}, "null"},
		{Array{Number(1), Name("a")}, "[1 /a]"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%T.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}
