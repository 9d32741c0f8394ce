package glsl

import (
	"fmt"
	"strings"
	"text/scanner"
)

// kind is the scalar family of an expression. GLSL ES 1.00 has no
// implicit conversion between int and float.
type kind int

const (
	floatKind kind = iota
	intKind
)

func (k kind) String() string {
	if k == intKind {
		return "const int"
	}
	return "float"
}

// kindError is a diagnostic found while typing a right-hand side.
type kindError struct {
	line int
	msg  string
}

// translator types a right-hand side by recursive descent over + - * /
// with unary signs, parentheses, literals, names and constructor calls,
// and emits the equivalent expr source. Tokens must already be validated.
type translator struct {
	toks []token
	pos  int
	err  *kindError
}

// translate returns the kind of rhs and its expr source, or the first
// operation that mixes int and float operands.
func translate(rhs []token) (kind, string, *kindError) {
	t := &translator{toks: rhs}
	k, code := t.expr()
	if t.err == nil && t.pos < len(t.toks) {
		// Leftovers are a syntax error; expr reports it.
		var b strings.Builder
		b.WriteString(code)
		for _, tok := range t.toks[t.pos:] {
			b.WriteString(" " + tok.text)
		}
		code = b.String()
	}
	return k, code, t.err
}

func (t *translator) peek() string {
	if t.pos < len(t.toks) {
		return t.toks[t.pos].text
	}
	return ""
}

func (t *translator) expr() (kind, string) {
	k, code := t.term()
	for op := t.peek(); op == "+" || op == "-"; op = t.peek() {
		line := t.toks[t.pos].line
		t.pos++
		rk, rcode := t.term()
		k = t.binary(op, line, k, rk)
		code = code + " " + op + " " + rcode
	}
	return k, code
}

func (t *translator) term() (kind, string) {
	k, code := t.unary()
	for op := t.peek(); op == "*" || op == "/"; op = t.peek() {
		line := t.toks[t.pos].line
		t.pos++
		rk, rcode := t.unary()
		if op == "/" && k == intKind && rk == intKind {
			// Integer division truncates toward zero.
			code = "int(" + code + " / " + rcode + ")"
		} else {
			code = code + " " + op + " " + rcode
		}
		k = t.binary(op, line, k, rk)
	}
	return k, code
}

func (t *translator) binary(op string, line int, l, r kind) kind {
	if l != r && t.err == nil {
		t.err = &kindError{line: line, msg: fmt.Sprintf(
			"'%s' : wrong operand types - no operation '%s' exists that takes a left-hand operand of type '%s' and a right operand of type '%s' (or there is no acceptable conversion)",
			op, op, l, r)}
	}
	return l
}

func (t *translator) unary() (kind, string) {
	if op := t.peek(); op == "-" || op == "+" {
		t.pos++
		k, code := t.unary()
		return k, "(" + op + code + ")"
	}
	return t.primary()
}

func (t *translator) primary() (kind, string) {
	if t.pos >= len(t.toks) {
		return floatKind, ""
	}
	tok := t.toks[t.pos]
	t.pos++
	switch {
	case tok.tok == scanner.Int:
		return intKind, tok.text
	case tok.tok == scanner.Float:
		return floatKind, tok.text
	case tok.text == "(":
		k, code := t.expr()
		if t.peek() == ")" {
			t.pos++
		}
		return k, "(" + code + ")"
	case tok.tok == scanner.Ident && t.peek() == "(":
		// Constructors take int arguments and always yield float types.
		t.pos++
		var args []string
		for t.pos < len(t.toks) && t.peek() != ")" {
			_, arg := t.expr()
			args = append(args, arg)
			if t.peek() != "," {
				break
			}
			t.pos++
			if t.peek() == ")" && t.err == nil {
				t.err = &kindError{line: t.toks[t.pos].line, msg: "')' : syntax error"}
			}
		}
		if t.peek() == ")" {
			t.pos++
		}
		return floatKind, ctorPrefix + tok.text + "(" + strings.Join(args, ", ") + ")"
	case tok.tok == scanner.Ident:
		return floatKind, varPrefix + tok.text
	}
	return floatKind, tok.text
}
