package contentstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Operation is one operator together with the operands that preceded it.
type Operation struct {
	Operator string
	Operands []Operand
}

// Parser tokenizes a decoded content stream into operations.
type Parser struct {
	data  []byte
	pos   int
	stack []Operand
}

// NewParser creates a parser over decoded (already decompressed) data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse returns every operation in the stream, in order.
func (p *Parser) Parse() ([]Operation, error) {
	var ops []Operation
	for {
		op, err := p.Next()
		if errors.Is(err, io.EOF) {
			return ops, nil
		}
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
}

// Next returns the next operation, or io.EOF at the end of the stream.
// Operands left over at the end of the stream are discarded.
func (p *Parser) Next() (Operation, error) {
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			p.stack = nil
			return Operation{}, io.EOF
		}

		start := p.pos
		if isLetter(p.data[p.pos]) || p.data[p.pos] == '\'' || p.data[p.pos] == '"' {
			if kw, ok := p.keyword(); ok {
				p.stack = append(p.stack, kw)
				continue
			}
			op := Operation{Operator: p.readOperator(), Operands: p.stack}
			p.stack = nil
			if op.Operator == "BI" {
				if err := p.skipInlineImage(); err != nil {
					return Operation{}, fmt.Errorf("at position %d: %w", start, err)
				}
			}
			return op, nil
		}

		v, err := p.parseOperand()
		if err != nil {
			return Operation{}, fmt.Errorf("at position %d: %w", start, err)
		}
		p.stack = append(p.stack, v)
	}
}

// keyword consumes true, false or null when they stand alone.
func (p *Parser) keyword() (Operand, bool) {
	end := p.pos
	for end < len(p.data) && isRegular(p.data[end]) {
		end++
	}
	var v Operand
	switch string(p.data[p.pos:end]) {
	case "true":
		v = Bool(true)
	case "false":
		v = Bool(false)
	case "null":
		v = Null{}
	default:
		return nil, false
	}
	p.pos = end
	return v, true
}

func (p *Parser) readOperator() string {
	start := p.pos
	p.pos++
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// skipInlineImage moves past the dictionary and binary data of an inline
// image, leaving the parser after the EI operator.
func (p *Parser) skipInlineImage() error {
	idx := bytes.Index(p.data[p.pos:], []byte("ID"))
	if idx < 0 {
		return errors.New("inline image without ID")
	}
	p.pos += idx + 2
	for i := p.pos; i+1 < len(p.data); i++ {
		if p.data[i] == 'E' && p.data[i+1] == 'I' &&
			(i == 0 || isWhitespace(p.data[i-1])) &&
			(i+2 == len(p.data) || isWhitespace(p.data[i+2]) || isDelimiter(p.data[i+2])) {
			p.pos = i + 2
			return nil
		}
	}
	return errors.New("inline image without EI")
}

func (p *Parser) parseOperand() (Operand, error) {
	p.skipSpaceAndComments()
	if p.pos >= len(p.data) {
		return nil, io.ErrUnexpectedEOF
	}

	c := p.data[p.pos]
	switch {
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.parseNumber()
	case c == '(':
		return p.parseString()
	case c == '<' && p.peek(1) == '<':
		return p.parseDict()
	case c == '<':
		return p.parseHexString()
	case c == '/':
		return p.parseName(), nil
	case c == '[':
		return p.parseArray()
	case isLetter(c):
		if kw, ok := p.keyword(); ok {
			return kw, nil
		}
	}
	return nil, fmt.Errorf("unexpected character %q", c)
}

func (p *Parser) parseNumber() (Operand, error) {
	start := p.pos
	if p.data[p.pos] == '+' || p.data[p.pos] == '-' {
		p.pos++
	}
	seenDot := false
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isDigit(c) {
			p.pos++
		} else if c == '.' && !seenDot {
			seenDot = true
			p.pos++
		} else {
			break
		}
	}

	text := string(p.data[start:p.pos])
	switch text {
	case "+", "-", ".", "+.", "-.":
		// Some producers write a bare sign for zero.
		return Number(0), nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return Number(v), nil
}

func (p *Parser) parseString() (Operand, error) {
	p.pos++ // (
	var out []byte
	depth := 1

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return String(out), nil
			}
			out = append(out, c)
		case '\\':
			out = p.appendEscape(out)
		default:
			out = append(out, c)
		}
	}
	return nil, errors.New("unclosed string")
}

// appendEscape handles the character after a backslash.
func (p *Parser) appendEscape(out []byte) []byte {
	if p.pos >= len(p.data) {
		return out
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case 'n':
		return append(out, '\n')
	case 'r':
		return append(out, '\r')
	case 't':
		return append(out, '\t')
	case 'b':
		return append(out, '\b')
	case 'f':
		return append(out, '\f')
	case '\r':
		if p.peek(0) == '\n' {
			p.pos++
		}
		return out
	case '\n':
		return out
	}
	if c >= '0' && c <= '7' {
		v := int(c - '0')
		for i := 0; i < 2 && p.pos < len(p.data); i++ {
			d := p.data[p.pos]
			if d < '0' || d > '7' {
				break
			}
			v = v*8 + int(d-'0')
			p.pos++
		}
		return append(out, byte(v))
	}
	return append(out, c)
}

func (p *Parser) parseHexString() (Operand, error) {
	p.pos++ // <
	var out []byte
	var hi byte
	half := false

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++
		if c == '>' {
			if half {
				out = append(out, hi<<4)
			}
			return String(out), nil
		}
		if isWhitespace(c) {
			continue
		}
		if !isHexDigit(c) {
			return nil, fmt.Errorf("invalid hex digit %q", c)
		}
		if half {
			out = append(out, hi<<4|hexValue(c))
		} else {
			hi = hexValue(c)
		}
		half = !half
	}
	return nil, errors.New("unclosed hex string")
}

func (p *Parser) parseName() Operand {
	p.pos++ // /
	var out []byte
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if !isRegular(c) {
			break
		}
		if c == '#' && p.pos+2 < len(p.data) && isHexDigit(p.data[p.pos+1]) && isHexDigit(p.data[p.pos+2]) {
			out = append(out, hexValue(p.data[p.pos+1])<<4|hexValue(p.data[p.pos+2]))
			p.pos += 3
			continue
		}
		out = append(out, c)
		p.pos++
	}
	return Name(out)
}

func (p *Parser) parseArray() (Operand, error) {
	p.pos++ // [
	arr := Array{}
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			return nil, errors.New("unclosed array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func (p *Parser) parseDict() (Operand, error) {
	p.pos += 2 // <<
	dict := Dict{}
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			return nil, errors.New("unclosed dictionary")
		}
		if p.data[p.pos] == '>' && p.peek(1) == '>' {
			p.pos += 2
			return dict, nil
		}
		if p.data[p.pos] != '/' {
			return nil, errors.New("dictionary key must be a name")
		}
		key := p.parseName().(Name)
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		dict[string(key)] = v
	}
}

func (p *Parser) peek(offset int) byte {
	if p.pos+offset < len(p.data) {
		return p.data[p.pos+offset]
	}
	return 0
}

func (p *Parser) skipSpaceAndComments() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) {
			p.pos++
			continue
		}
		if c == '%' {
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		return
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// isRegular reports whether c can be part of a name or operator token.
func isRegular(c byte) bool {
	return !isWhitespace(c) && !isDelimiter(c)
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
