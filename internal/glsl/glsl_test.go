package glsl

import (
	"errors"
	"strings"
	"testing"
)

const (
	vertexSrc = `attribute vec4 position;
void main() {
    gl_Position = position;
}`
	fragmentSrc = `void main() {
    gl_FragColor = vec4(1.0, 0.0, 0.0, 1.0);
}`
)

func mustCompile(t *testing.T, stage Stage, src string) *Shader {
	t.Helper()
	sh, err := Compile(stage, src)
	if err != nil {
		var ge *Error
		if errors.As(err, &ge) {
			t.Fatalf("Compile(%v) failed:\n%s", stage, ge.Log())
		}
		t.Fatalf("Compile(%v) failed: %v", stage, err)
	}
	return sh
}

func equalVec(a, b Vec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompilePassThroughVertex(t *testing.T) {
	sh := mustCompile(t, Vertex, vertexSrc)
	if len(sh.Attributes) != 1 || sh.Attributes[0].Name != "position" || sh.Attributes[0].Type != Vec4 {
		t.Fatalf("Attributes = %+v", sh.Attributes)
	}
	if !sh.Writes(Position) {
		t.Error("shader should write gl_Position")
	}

	out, err := sh.Run(map[string]Vec{"position": {0.5, -0.5, 0, 1}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := (Vec{0.5, -0.5, 0, 1}); !equalVec(out[Position], want) {
		t.Errorf("gl_Position = %v, want %v", out[Position], want)
	}
}

func TestCompileSolidFragment(t *testing.T) {
	sh := mustCompile(t, Fragment, fragmentSrc)
	out, err := sh.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := (Vec{1, 0, 0, 1}); !equalVec(out[FragColor], want) {
		t.Errorf("gl_FragColor = %v, want %v", out[FragColor], want)
	}
}

func TestConstructorsAndArithmetic(t *testing.T) {
	src := `#version 100
precision mediump float;
uniform float scale;
varying vec2 uv;
void main() {
    gl_FragColor = vec4(vec2(0.25 * scale), uv);
}`
	sh := mustCompile(t, Fragment, src)
	out, err := sh.Run(map[string]Vec{"scale": {2}, "uv": {0.1, 0.2}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := (Vec{0.5, 0.5, 0.1, 0.2}); !equalVec(out[FragColor], want) {
		t.Errorf("gl_FragColor = %v, want %v", out[FragColor], want)
	}
}

func TestVaryingWrittenThenRead(t *testing.T) {
	src := `attribute vec4 position;
attribute vec3 color;
varying vec3 v_color;
void main() {
    v_color = color;
    gl_Position = vec4(v_color, 1);
}`
	sh := mustCompile(t, Vertex, src)
	out, err := sh.Run(map[string]Vec{"color": {1, 2, 3}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := (Vec{1, 2, 3, 1}); !equalVec(out[Position], want) {
		t.Errorf("gl_Position = %v, want %v", out[Position], want)
	}
	if want := (Vec{1, 2, 3}); !equalVec(out["v_color"], want) {
		t.Errorf("v_color = %v, want %v", out["v_color"], want)
	}
}

func TestIntArithmeticInConstructors(t *testing.T) {
	tests := []struct {
		name string
		rhs  string
		want Vec
	}{
		{"int arguments", "vec4(1, 0, 0, 1)", Vec{1, 0, 0, 1}},
		{"int division truncates", "vec4(7 / 2, -7 / 2, 1 / 2, 1)", Vec{3, -3, 0, 1}},
		{"int sum", "vec4(1 + 2 * 3, 0, 0, 1)", Vec{7, 0, 0, 1}},
		{"float constructor", "vec4(float(1) / 2.0, 0.0, 0.0, 1.0)", Vec{0.5, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := mustCompile(t, Vertex, "void main() { gl_Position = "+tt.rhs+"; }")
			out, err := sh.Run(nil)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !equalVec(out[Position], tt.want) {
				t.Errorf("gl_Position = %v, want %v", out[Position], tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		src   string
		want  string
	}{
		{"garbage", Vertex, "not a shader", "ERROR: 0:1: 'not' : syntax error"},
		{"undeclared", Vertex, "void main() {\n gl_Position = foo;\n}", "ERROR: 0:2: 'foo' : undeclared identifier"},
		{"attribute in fragment", Fragment, "attribute vec4 p;\nvoid main() {}", "supported in vertex shaders only"},
		{"missing precision", Fragment, "varying vec4 c;\nvoid main() { gl_FragColor = c; }", "No precision specified for (float)"},
		{"wrong type", Vertex, "void main() { gl_Position = vec3(1.0); }", "cannot convert from 'vec3' to 'vec4'"},
		{"not enough data", Vertex, "void main() { gl_Position = vec4(1.0, 2.0); }", "not enough data"},
		{"missing main", Vertex, "attribute vec4 p;", "Missing main()"},
		{"missing semicolon", Vertex, "void main() { gl_Position = vec4(1.0) }", "'}' : syntax error"},
		{"write attribute", Vertex, "attribute vec4 p;\nvoid main() { p = vec4(0.0); }", "can't modify an attribute"},
		{"write varying in fragment", Fragment, "precision mediump float;\nvarying vec4 c;\nvoid main() { c = vec4(0.0); }", "can't modify a varying"},
		{"fragment output in vertex", Vertex, "void main() { gl_FragColor = vec4(1.0); }", "'gl_FragColor' : undeclared identifier"},
		{"field selection", Vertex, "attribute vec4 p;\nvoid main() { gl_Position = p.xyzw; }", "field selection"},
		{"extension", Vertex, "#extension GL_OES_standard_derivatives : enable\nvoid main() {}", "unsupported preprocessor directive"},
		{"late version", Vertex, "void main() {}\n#version 100", "must occur before anything else"},
		{"redefinition", Vertex, "attribute vec4 p;\nattribute vec2 p;\nvoid main() {}", "'p' : redefinition"},
		{"two mains", Vertex, "void main() {}\nvoid main() {}", "already has a body"},
		{"unknown function", Vertex, "void main() { gl_Position = mat4(1.0); }", "no matching overloaded function"},
		{"unterminated", Vertex, "void main() {", "unexpected end of file"},
		{"int literal to float", Vertex, "void main() { gl_PointSize = 1; }", "ERROR: 0:1: 'assign' : cannot convert from 'const int' to 'float'"},
		{"int division to float", Vertex, "void main() { gl_PointSize = 1 / 2; }", "cannot convert from 'const int' to 'float'"},
		{"mixed operands", Vertex, "void main() {\n gl_PointSize = 2.0 * 3;\n}", "ERROR: 0:2: '*' : wrong operand types"},
		{"dangling comma", Vertex, "void main() { gl_Position = vec4(1.0, ); }", "ERROR: 0:1: ')' : syntax error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.stage, tt.src)
			if err == nil {
				t.Fatal("Compile succeeded, want error")
			}
			var ge *Error
			if !errors.As(err, &ge) {
				t.Fatalf("error %T is not *Error", err)
			}
			if !strings.Contains(ge.Log(), tt.want) {
				t.Errorf("log = %q, want it to contain %q", ge.Log(), tt.want)
			}
		})
	}
}

func TestLinkAssignsLocations(t *testing.T) {
	vs := mustCompile(t, Vertex, "attribute vec4 a;\nattribute vec4 b;\nattribute vec4 c;\nvoid main() { gl_Position = a; }")
	fs := mustCompile(t, Fragment, fragmentSrc)

	p, err := Link(vs, fs, map[string]uint32{"b": 0, "unused": 5})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	want := map[string]uint32{"b": 0, "a": 1, "c": 2}
	for name, loc := range want {
		got, ok := p.AttribLocation(name)
		if !ok || got != loc {
			t.Errorf("AttribLocation(%q) = %d, %v; want %d", name, got, ok, loc)
		}
	}
	if _, ok := p.AttribLocation("unused"); ok {
		t.Error("binding for an undeclared attribute must be ignored")
	}
	attrs := p.Attributes()
	if attrs[0].Name != "b" || attrs[1].Name != "a" || attrs[2].Name != "c" {
		t.Errorf("Attributes order = %v", attrs)
	}
}

func TestLinkErrors(t *testing.T) {
	vs := mustCompile(t, Vertex, "attribute vec4 a;\nattribute vec4 b;\nvarying vec3 v;\nvoid main() { gl_Position = a; }")

	tests := []struct {
		name     string
		vs, fs   *Shader
		bindings map[string]uint32
		want     string
	}{
		{"missing fragment", vs, nil, nil, "no compiled fragment shader"},
		{"swapped stages", mustCompile(t, Fragment, fragmentSrc), vs, nil, "no compiled vertex shader"},
		{"undeclared varying", vs, mustCompile(t, Fragment, "precision mediump float;\nvarying vec3 w;\nvoid main() {}"), nil, "'w' is not declared"},
		{"varying type mismatch", vs, mustCompile(t, Fragment, "precision mediump float;\nvarying vec4 v;\nvoid main() {}"), nil, "Types of varying 'v' differ"},
		{"aliasing", vs, mustCompile(t, Fragment, fragmentSrc), map[string]uint32{"a": 3, "b": 3}, "aliases attribute"},
		{"out of range", vs, mustCompile(t, Fragment, fragmentSrc), map[string]uint32{"a": MaxVertexAttribs}, "exceeds the maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Link(tt.vs, tt.fs, tt.bindings)
			var ge *Error
			if !errors.As(err, &ge) {
				t.Fatalf("Link err = %v, want *Error", err)
			}
			if !strings.HasPrefix(ge.Log(), "ERROR: ") || !strings.Contains(ge.Log(), tt.want) {
				t.Errorf("log = %q, want it to contain %q", ge.Log(), tt.want)
			}
		})
	}
}

func TestShadeFragmentDefaultsToBlack(t *testing.T) {
	vs := mustCompile(t, Vertex, vertexSrc)
	fs := mustCompile(t, Fragment, "void main() {}")
	p, err := Link(vs, fs, nil)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	c, err := p.ShadeFragment(nil, nil)
	if err != nil {
		t.Fatalf("ShadeFragment: %v", err)
	}
	if want := (Vec{0, 0, 0, 1}); !equalVec(c, want) {
		t.Errorf("color = %v, want %v", c, want)
	}
}
