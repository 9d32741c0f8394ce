// Package glsl compiles and evaluates a small subset of the OpenGL ES
// Shading Language 1.00, enough for fixed-function style WebGL shaders.
//
// Supported: #version 100, default precision statements, attribute,
// uniform and varying declarations of float and vecN, and a single
// void main() made of assignments to gl_Position, gl_PointSize,
// gl_FragColor or varyings. Right-hand sides are float arithmetic and
// vecN constructors; they are evaluated with expr. Integer literals are
// typed int as in GLSL: they may be combined with each other and passed to
// constructors, but never converted to float implicitly.
//
// Diagnostics follow the ANGLE info log format:
//
//	ERROR: 0:3: 'foo' : undeclared identifier
package glsl

import (
	"fmt"
	"strings"
	"text/scanner"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Prefixes keep GLSL names clear of expr keywords and builtins.
const (
	varPrefix  = "var_"
	ctorPrefix = "ctor_"
)

var constructors = []expr.Option{
	expr.Function(ctorPrefix+"float", construct(1)),
	expr.Function(ctorPrefix+"vec2", construct(2)),
	expr.Function(ctorPrefix+"vec3", construct(3)),
	expr.Function(ctorPrefix+"vec4", construct(4)),
}

// Shader is a compiled shader stage.
type Shader struct {
	Stage      Stage
	Attributes []Decl
	Uniforms   []Decl
	Varyings   []Decl

	assigns []assignment
}

type assignment struct {
	target  string
	typ     Type
	line    int
	program *vm.Program
}

// Writes reports whether main assigns to name.
func (s *Shader) Writes(name string) bool {
	for _, a := range s.assigns {
		if a.target == name {
			return true
		}
	}
	return false
}

// Run executes main with the given inputs, keyed by variable name. Missing
// inputs read as zero. The result maps every assigned output to its final
// value.
func (s *Shader) Run(inputs map[string]Vec) (map[string]Vec, error) {
	env := make(map[string]any)
	for _, d := range s.readable() {
		env[varPrefix+d.Name] = envValue(inputs[d.Name], d.Type)
	}
	out := make(map[string]Vec, len(s.assigns))
	for _, a := range s.assigns {
		res, err := expr.Run(a.program, env)
		if err != nil {
			return nil, fmt.Errorf("glsl: line %d: %w", a.line, err)
		}
		v, err := toVec(res)
		if err != nil {
			return nil, fmt.Errorf("glsl: line %d: %w", a.line, err)
		}
		out[a.target] = v
		if _, ok := env[varPrefix+a.target]; ok {
			env[varPrefix+a.target] = envValue(v, a.typ)
		}
	}
	return out, nil
}

func (s *Shader) readable() []Decl {
	decls := make([]Decl, 0, len(s.Attributes)+len(s.Uniforms)+len(s.Varyings))
	decls = append(decls, s.Attributes...)
	decls = append(decls, s.Uniforms...)
	return append(decls, s.Varyings...)
}

// Compile parses and checks source for the given stage. On failure the
// returned error is an *Error carrying the info log.
func Compile(stage Stage, source string) (*Shader, error) {
	p := &parser{
		stage: stage,
		sh:    &Shader{Stage: stage},
		names: make(map[string]Decl),
	}
	src := p.preprocess(source)
	p.tokenize(src)
	p.parse()
	if len(p.diags) > 0 {
		return nil, &Error{Diagnostics: p.diags}
	}
	return p.sh, nil
}

type token struct {
	tok  rune
	text string
	line int
}

type parser struct {
	stage     Stage
	toks      []token
	pos       int
	lastLine  int
	diags     []Diagnostic
	sh        *Shader
	names     map[string]Decl
	precision bool
	hasMain   bool
}

func (p *parser) errorf(line int, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Line: line, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) syntaxError(t token) {
	if t.tok == scanner.EOF {
		p.errorf(t.line, "'' : syntax error, unexpected end of file")
		return
	}
	p.errorf(t.line, "'%s' : syntax error", t.text)
}

// preprocess validates directives and blanks their lines so that line
// numbers stay intact for the scanner.
func (p *parser) preprocess(src string) string {
	lines := strings.Split(src, "\n")
	seenCode := false
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if !strings.HasPrefix(t, "#") {
			if t != "" && !strings.HasPrefix(t, "//") {
				seenCode = true
			}
			continue
		}
		fields := strings.Fields(t[1:])
		switch {
		case len(fields) == 0:
		case fields[0] == "version":
			if seenCode {
				p.errorf(i+1, "'#version' : #version directive must occur before anything else")
			} else if len(fields) != 2 || fields[1] != "100" {
				p.errorf(i+1, "'%s' : version number not supported", strings.Join(fields[1:], " "))
			}
		default:
			p.errorf(i+1, "'#%s' : unsupported preprocessor directive", fields[0])
		}
		lines[i] = ""
	}
	return strings.Join(lines, "\n")
}

func (p *parser) tokenize(src string) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanComments | scanner.SkipComments
	s.Error = func(s *scanner.Scanner, msg string) {
		p.errorf(s.Pos().Line, "'' : %s", msg)
	}
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		p.toks = append(p.toks, token{tok: tok, text: s.TokenText(), line: s.Position.Line})
	}
	p.lastLine = s.Pos().Line
}

func (p *parser) peek() token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token{tok: scanner.EOF, line: p.lastLine}
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) expect(text string) bool {
	t := p.next()
	if t.text != text {
		p.syntaxError(t)
		return false
	}
	return true
}

func (p *parser) parse() {
	for p.pos < len(p.toks) {
		t := p.next()
		var ok bool
		switch t.text {
		case "precision":
			ok = p.parsePrecision()
		case "attribute":
			ok = p.parseDecl(Attribute, t)
		case "uniform":
			ok = p.parseDecl(Uniform, t)
		case "varying":
			ok = p.parseDecl(Varying, t)
		case "void":
			ok = p.parseMain()
		case ";":
			ok = true
		default:
			p.syntaxError(t)
		}
		if !ok {
			return
		}
	}
	if !p.hasMain {
		p.errorf(p.lastLine, "'' : Missing main()")
	}
}

func isPrecision(s string) bool {
	return s == "lowp" || s == "mediump" || s == "highp"
}

func (p *parser) parsePrecision() bool {
	q := p.next()
	if !isPrecision(q.text) {
		p.syntaxError(q)
		return false
	}
	t := p.next()
	switch t.text {
	case "float":
		p.precision = true
	case "int":
	default:
		if t.tok != scanner.Ident {
			p.syntaxError(t)
			return false
		}
		p.errorf(t.line, "'%s' : illegal type argument for default precision qualifier", t.text)
	}
	return p.expect(";")
}

func (p *parser) parseDecl(q Qualifier, at token) bool {
	if q == Attribute && p.stage == Fragment {
		p.errorf(at.line, "'attribute' : supported in vertex shaders only")
	}
	t := p.next()
	hasPrecision := false
	if isPrecision(t.text) {
		hasPrecision = true
		t = p.next()
	}
	typ := parseType(t.text)
	if typ == Invalid {
		if t.tok == scanner.Ident {
			p.errorf(t.line, "'%s' : type not supported for %s", t.text, q)
		} else {
			p.syntaxError(t)
		}
		return false
	}
	for {
		n := p.next()
		if n.tok != scanner.Ident {
			p.syntaxError(n)
			return false
		}
		switch {
		case strings.HasPrefix(n.text, "gl_"):
			p.errorf(n.line, "'%s' : reserved built-in name", n.text)
		case p.names[n.text].Name != "":
			p.errorf(n.line, "'%s' : redefinition", n.text)
		case p.stage == Fragment && q != Attribute && !hasPrecision && !p.precision:
			p.errorf(n.line, "'%s' : No precision specified for (float)", n.text)
		}
		d := Decl{Qualifier: q, Type: typ, Name: n.text, Line: n.line}
		p.names[n.text] = d
		switch q {
		case Attribute:
			p.sh.Attributes = append(p.sh.Attributes, d)
		case Uniform:
			p.sh.Uniforms = append(p.sh.Uniforms, d)
		case Varying:
			p.sh.Varyings = append(p.sh.Varyings, d)
		}

		sep := p.next()
		if sep.text == ";" {
			return true
		}
		if sep.text != "," {
			p.syntaxError(sep)
			return false
		}
	}
}

func (p *parser) parseMain() bool {
	name := p.next()
	if name.text != "main" {
		if name.tok == scanner.Ident {
			p.errorf(name.line, "'%s' : only main() may be defined", name.text)
		} else {
			p.syntaxError(name)
		}
		return false
	}
	if p.hasMain {
		p.errorf(name.line, "'main' : function already has a body")
	}
	if !p.expect("(") {
		return false
	}
	t := p.next()
	if t.text == "void" {
		t = p.next()
	}
	if t.text != ")" {
		p.syntaxError(t)
		return false
	}
	if !p.expect("{") {
		return false
	}
	for {
		t := p.peek()
		switch {
		case t.tok == scanner.EOF:
			p.syntaxError(t)
			return false
		case t.text == "}":
			p.next()
			p.hasMain = true
			return true
		case t.text == ";":
			p.next()
		default:
			if !p.parseAssignment() {
				return false
			}
		}
	}
}

func (p *parser) parseAssignment() bool {
	target := p.next()
	if target.tok != scanner.Ident {
		p.syntaxError(target)
		return false
	}
	if parseType(target.text) != Invalid {
		p.errorf(target.line, "'%s' : local variables are not supported", target.text)
		return false
	}
	if !p.expect("=") {
		return false
	}
	var rhs []token
	depth := 0
	for {
		t := p.next()
		if t.tok == scanner.EOF || (t.text == "}" && depth == 0) {
			p.syntaxError(t)
			return false
		}
		if t.text == ";" && depth == 0 {
			if len(rhs) == 0 {
				p.syntaxError(t)
				return false
			}
			break
		}
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				p.syntaxError(t)
				return false
			}
		}
		rhs = append(rhs, t)
	}
	p.compileAssignment(target, rhs)
	return true
}

// writable returns the type of an assignable name, reporting a diagnostic
// when the name cannot be written in this stage.
func (p *parser) writable(t token) (Type, bool) {
	switch {
	case t.text == Position && p.stage == Vertex:
		return Vec4, true
	case t.text == PointSize && p.stage == Vertex:
		return Float, true
	case t.text == FragColor && p.stage == Fragment:
		return Vec4, true
	}
	d, ok := p.names[t.text]
	if !ok {
		p.errorf(t.line, "'%s' : undeclared identifier", t.text)
		return Invalid, false
	}
	switch {
	case d.Qualifier == Attribute:
		p.errorf(t.line, "'%s' : l-value required (can't modify an attribute)", t.text)
	case d.Qualifier == Uniform:
		p.errorf(t.line, "'%s' : l-value required (can't modify a uniform)", t.text)
	case p.stage == Fragment:
		p.errorf(t.line, "'%s' : l-value required (can't modify a varying)", t.text)
	default:
		return d.Type, true
	}
	return Invalid, false
}

func (p *parser) compileAssignment(target token, rhs []token) {
	typ, ok := p.writable(target)
	if !p.validate(rhs) || !ok {
		return
	}
	k, code, kerr := translate(rhs)
	if kerr != nil {
		p.errorf(kerr.line, "%s", kerr.msg)
		return
	}
	if k == intKind {
		p.errorf(target.line, "'assign' : cannot convert from '%s' to '%s'", k, typ)
		return
	}
	env := p.zeroEnv()
	opts := append([]expr.Option{expr.Env(env)}, constructors...)
	program, err := expr.Compile(code, opts...)
	if err != nil {
		p.errorf(rhs[0].line, "'=' : %s", firstLine(err.Error()))
		return
	}
	res, err := expr.Run(program, env)
	if err != nil {
		p.errorf(rhs[0].line, "'=' : %s", firstLine(err.Error()))
		return
	}
	v, err := toVec(res)
	if err != nil {
		p.errorf(rhs[0].line, "'=' : %s", err)
		return
	}
	if v.Type() != typ {
		p.errorf(target.line, "'assign' : cannot convert from '%s' to '%s'", v.Type(), typ)
		return
	}
	p.sh.assigns = append(p.sh.assigns, assignment{
		target:  target.text,
		typ:     typ,
		line:    target.line,
		program: program,
	})
}

// validate reports unknown names, calls and operators in a right-hand
// side.
func (p *parser) validate(rhs []token) bool {
	ok := true
	for i, t := range rhs {
		switch {
		case t.tok == scanner.Ident && i+1 < len(rhs) && rhs[i+1].text == "(":
			if parseType(t.text) == Invalid {
				p.errorf(t.line, "'%s' : no matching overloaded function found", t.text)
				ok = false
				continue
			}
		case t.tok == scanner.Ident:
			d, declared := p.names[t.text]
			if !declared || (d.Qualifier == Attribute && p.stage == Fragment) {
				p.errorf(t.line, "'%s' : undeclared identifier", t.text)
				ok = false
			}
		case t.tok == scanner.Int || t.tok == scanner.Float:
		case t.text == ".":
			p.errorf(t.line, "'.' : field selection is not supported")
			ok = false
		case strings.Contains("+-*/(),", t.text) && len(t.text) == 1:
		default:
			p.syntaxError(t)
			ok = false
		}
	}
	return ok
}

func (p *parser) zeroEnv() map[string]any {
	env := make(map[string]any, len(p.names))
	for _, d := range p.sh.readable() {
		env[varPrefix+d.Name] = envValue(nil, d.Type)
	}
	return env
}

// construct implements the vecN constructors: a single scalar is splatted,
// otherwise components are consumed in order and every argument must
// contribute at least one.
func construct(n int) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		if len(params) == 0 {
			return nil, fmt.Errorf("constructor %s needs arguments", typeOfSize(n))
		}
		out := make(Vec, 0, n)
		for _, param := range params {
			v, err := toVec(param)
			if err != nil {
				return nil, err
			}
			if len(out) >= n {
				return nil, fmt.Errorf("too many arguments for %s constructor", typeOfSize(n))
			}
			out = append(out, v...)
		}
		if len(params) == 1 && len(out) == 1 {
			for len(out) < n {
				out = append(out, out[0])
			}
		}
		if len(out) < n {
			return nil, fmt.Errorf("not enough data provided for %s construction", typeOfSize(n))
		}
		if n == 1 {
			return out[0], nil
		}
		return out[:n], nil
	}
}

func toVec(v any) (Vec, error) {
	switch x := v.(type) {
	case Vec:
		return x, nil
	case float64:
		return Vec{x}, nil
	case int:
		return Vec{float64(x)}, nil
	case float32:
		return Vec{float64(x)}, nil
	}
	return nil, fmt.Errorf("cannot convert %T to a float type", v)
}

// fit resizes v to t, zero filling missing components.
func fit(v Vec, t Type) Vec {
	out := make(Vec, t.Size())
	copy(out, v)
	return out
}

// envValue is the expr representation of a value: float64 for float,
// Vec for vectors.
func envValue(v Vec, t Type) any {
	v = fit(v, t)
	if t == Float {
		return v[0]
	}
	return v
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
