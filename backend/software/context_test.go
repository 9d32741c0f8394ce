// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package software

import (
	"encoding/binary"
	"image/color"
	"strings"
	"testing"

	"golang.org/x/mobile/exp/f32"

	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/gl"
	"github.com/webtri/webtri/host"
)

const (
	passThroughVS = "attribute vec4 position;\nvoid main() { gl_Position = position; }"
	redFS         = "void main() { gl_FragColor = vec4(1.0, 0.0, 0.0, 1.0); }"
)

func compile(t *testing.T, c *Context, typ gl.Enum, src string) gl.Shader {
	t.Helper()
	s := c.CreateShader(typ)
	c.ShaderSource(s, src)
	c.CompileShader(s)
	if ok, _ := c.GetShaderParameter(s, gl.CompileStatus).(bool); !ok {
		log, _ := c.GetShaderInfoLog(s)
		t.Fatalf("compile %s failed: %s", typ, log)
	}
	return s
}

func link(t *testing.T, c *Context, vsSrc, fsSrc string) gl.Program {
	t.Helper()
	p := c.CreateProgram()
	c.AttachShader(p, compile(t, c, gl.VertexShader, vsSrc))
	c.AttachShader(p, compile(t, c, gl.FragmentShader, fsSrc))
	c.BindAttribLocation(p, 0, "position")
	c.LinkProgram(p)
	if ok, _ := c.GetProgramParameter(p, gl.LinkStatus).(bool); !ok {
		log, _ := c.GetProgramInfoLog(p)
		t.Fatalf("link failed: %s", log)
	}
	return p
}

func upload(c *Context, vertices ...float32) gl.Buffer {
	b := c.CreateBuffer()
	c.BindBuffer(gl.ArrayBuffer, b)
	c.BufferData(gl.ArrayBuffer, f32.Bytes(binary.LittleEndian, vertices...), gl.StaticDraw)
	c.VertexAttribPointer(0, 3, gl.Float, false, 0, 0)
	c.EnableVertexAttribArray(0)
	return b
}

func pixel(c *Context, x, y int) color.RGBA {
	return c.Framebuffer().RGBAAt(x, y)
}

var (
	red   = color.RGBA{R: 255, A: 255}
	black = color.RGBA{A: 255}
)

func TestDrawTriangle(t *testing.T) {
	c := NewContext(64, 64)
	c.UseProgram(link(t, c, passThroughVS, redFS))
	upload(c, -0.7, -0.7, 0, 0.7, -0.7, 0, 0, 0.7, 0)

	c.ClearColor(0, 0, 0, 1)
	c.Clear(gl.ColorBufferBit)
	c.DrawArrays(gl.Triangles, 0, 3)
	if e := c.GetError(); e != gl.NoError {
		t.Fatalf("GetError = %s", e)
	}

	if got := pixel(c, 32, 32); got != red {
		t.Errorf("center = %v, want red", got)
	}
	for _, p := range [][2]int{{0, 0}, {63, 0}, {0, 63}, {63, 63}} {
		if got := pixel(c, p[0], p[1]); got != black {
			t.Errorf("corner %v = %v, want black", p, got)
		}
	}
	// The apex points up: near the top only the middle column is covered.
	if got := pixel(c, 32, 12); got != red {
		t.Errorf("apex = %v, want red", got)
	}
	if got := pixel(c, 8, 12); got != black {
		t.Errorf("beside apex = %v, want black", got)
	}
}

func TestDrawClipsToViewport(t *testing.T) {
	c := NewContext(16, 16)
	c.UseProgram(link(t, c, passThroughVS, redFS))
	upload(c, -3, -3, 0, 3, -3, 0, 0, 3, 0)
	c.DrawArrays(gl.Triangles, 0, 3)

	if got := pixel(c, 8, 8); got != red {
		t.Errorf("center = %v, want red", got)
	}
	if e := c.GetError(); e != gl.NoError {
		t.Errorf("GetError = %s", e)
	}
}

func TestDrawDiscardsBehindEye(t *testing.T) {
	c := NewContext(8, 8)
	c.UseProgram(link(t, c, passThroughVS, redFS))
	b := c.CreateBuffer()
	c.BindBuffer(gl.ArrayBuffer, b)
	c.BufferData(gl.ArrayBuffer, f32.Bytes(binary.LittleEndian,
		-1, -1, 0, -1,
		1, -1, 0, -1,
		0, 1, 0, -1,
	), gl.StaticDraw)
	c.VertexAttribPointer(0, 4, gl.Float, false, 16, 0)
	c.EnableVertexAttribArray(0)
	c.DrawArrays(gl.Triangles, 0, 3)

	if e := c.GetError(); e != gl.NoError {
		t.Fatalf("GetError = %s", e)
	}
	if got := pixel(c, 4, 4); got != (color.RGBA{}) {
		t.Errorf("pixel = %v, want untouched", got)
	}
}

func TestClearColorClamps(t *testing.T) {
	c := NewContext(2, 2)
	c.ClearColor(2, -1, 0.5, 1)
	c.Clear(gl.ColorBufferBit | gl.DepthBufferBit)
	if got, want := pixel(c, 1, 1), (color.RGBA{R: 255, G: 0, B: 128, A: 255}); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
	c.Clear(0x1)
	if e := c.GetError(); e != gl.InvalidValue {
		t.Errorf("Clear(bad mask) error = %s, want INVALID_VALUE", e)
	}
}

func TestCompileFailureLog(t *testing.T) {
	c := NewContext(1, 1)
	s := c.CreateShader(gl.FragmentShader)
	c.ShaderSource(s, "void main() { gl_FragColor = nope; }")
	c.CompileShader(s)

	if ok := c.GetShaderParameter(s, gl.CompileStatus); ok != false {
		t.Errorf("CompileStatus = %v, want false", ok)
	}
	log, ok := c.GetShaderInfoLog(s)
	if !ok || !strings.Contains(log, "'nope' : undeclared identifier") {
		t.Errorf("info log = %q, %v", log, ok)
	}
}

func TestLinkRequiresCompiledShaders(t *testing.T) {
	c := NewContext(1, 1)
	p := c.CreateProgram()
	c.AttachShader(p, compile(t, c, gl.VertexShader, passThroughVS))
	c.LinkProgram(p)

	if ok := c.GetProgramParameter(p, gl.LinkStatus); ok != false {
		t.Errorf("LinkStatus = %v, want false", ok)
	}
	if log, _ := c.GetProgramInfoLog(p); !strings.Contains(log, "fragment shader") {
		t.Errorf("link log = %q", log)
	}
	c.UseProgram(p)
	if e := c.GetError(); e != gl.InvalidOperation {
		t.Errorf("UseProgram(unlinked) error = %s, want INVALID_OPERATION", e)
	}
}

func TestErrorFlags(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Context)
		want gl.Enum
	}{
		{"bad shader type", func(c *Context) { c.CreateShader(gl.Float) }, gl.InvalidEnum},
		{"buffer data unbound", func(c *Context) { c.BufferData(gl.ArrayBuffer, []byte{0}, gl.StaticDraw) }, gl.InvalidOperation},
		{"bad buffer target", func(c *Context) { c.BindBuffer(gl.Float, nil) }, gl.InvalidEnum},
		{"bad usage", func(c *Context) {
			c.BindBuffer(gl.ArrayBuffer, c.CreateBuffer())
			c.BufferData(gl.ArrayBuffer, nil, gl.Float)
		}, gl.InvalidEnum},
		{"attrib without buffer", func(c *Context) { c.VertexAttribPointer(0, 3, gl.Float, false, 0, 0) }, gl.InvalidOperation},
		{"attrib size", func(c *Context) { c.VertexAttribPointer(0, 5, gl.Float, false, 0, 0) }, gl.InvalidValue},
		{"attrib index", func(c *Context) { c.EnableVertexAttribArray(16) }, gl.InvalidValue},
		{"draw without program", func(c *Context) { c.DrawArrays(gl.Triangles, 0, 3) }, gl.InvalidOperation},
		{"draw bad mode", func(c *Context) { c.DrawArrays(gl.Float, 0, 3) }, gl.InvalidEnum},
		{"draw negative count", func(c *Context) { c.DrawArrays(gl.Triangles, 0, -1) }, gl.InvalidValue},
		{"foreign handle", func(c *Context) { c.CompileShader("not a shader") }, gl.InvalidValue},
		{"reserved attrib name", func(c *Context) { c.BindAttribLocation(c.CreateProgram(), 0, "gl_Vertex") }, gl.InvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(1, 1)
			tt.call(c)
			if got := c.GetError(); got != tt.want {
				t.Errorf("GetError = %s, want %s", got, tt.want)
			}
			if got := c.GetError(); got != gl.NoError {
				t.Errorf("second GetError = %s, want NO_ERROR", got)
			}
		})
	}
}

func TestDrawOutOfRange(t *testing.T) {
	const huge = 1 << 61
	triangle := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	tests := []struct {
		name         string
		vertices     []float32
		first, count int
	}{
		{"short buffer", triangle[:6], 0, 3},
		{"first past end", triangle, 3, 3},
		{"count past end", triangle, 1, 3},
		{"overflowing first", triangle, huge, 3},
		{"overflowing count", triangle, 0, huge},
		{"overflowing both", triangle, huge, huge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(4, 4)
			c.UseProgram(link(t, c, passThroughVS, redFS))
			upload(c, tt.vertices...)
			c.DrawArrays(gl.Triangles, tt.first, tt.count)
			if e := c.GetError(); e != gl.InvalidOperation {
				t.Errorf("GetError = %s, want INVALID_OPERATION", e)
			}
		})
	}
}

func TestAttribHolds(t *testing.T) {
	a := attrib{enabled: true, size: 3}
	tests := []struct {
		first, count, n int
		want            bool
	}{
		{0, 3, 36, true},
		{1, 2, 36, true},
		{1, 3, 36, false},
		{0, 1, 11, false},
		{1 << 62, 1 << 62, 36, false},
		{0, 1<<63 - 1, 36, false},
	}
	for _, tt := range tests {
		if got := a.holds(tt.first, tt.count, tt.n); got != tt.want {
			t.Errorf("holds(%d, %d, %d) = %v, want %v", tt.first, tt.count, tt.n, got, tt.want)
		}
	}
}

func TestDeleteSemantics(t *testing.T) {
	c := NewContext(8, 8)
	vs := compile(t, c, gl.VertexShader, passThroughVS)
	fs := compile(t, c, gl.FragmentShader, redFS)
	p := c.CreateProgram()
	c.AttachShader(p, vs)
	c.AttachShader(p, fs)
	c.LinkProgram(p)
	c.UseProgram(p)
	b := upload(c, -1, -1, 0, 1, -1, 0, 0, 1, 0)

	if got, want := c.Stats(), (Stats{Shaders: 2, Programs: 1, Buffers: 1}); got != want {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}

	c.DeleteShader(vs)
	c.DeleteShader(fs)
	c.DeleteProgram(p)
	c.DeleteBuffer(b)
	if got := c.Stats(); got != (Stats{}) {
		t.Errorf("Stats after delete = %+v, want zero", got)
	}
	if del, _ := c.GetShaderParameter(vs, gl.DeleteStatus).(bool); !del {
		t.Error("DeleteStatus = false after DeleteShader")
	}

	// The current program and the attribute's buffer stay usable.
	c.DrawArrays(gl.Triangles, 0, 3)
	if e := c.GetError(); e != gl.NoError {
		t.Fatalf("draw after delete: %s", e)
	}
	if got := pixel(c, 4, 4); got != red {
		t.Errorf("center = %v, want red", got)
	}

	c.BindBuffer(gl.ArrayBuffer, b)
	if e := c.GetError(); e != gl.InvalidOperation {
		t.Errorf("binding a deleted buffer = %s, want INVALID_OPERATION", e)
	}
}

func TestReadPixelsOrigin(t *testing.T) {
	c := NewContext(4, 4)
	c.UseProgram(link(t, c, passThroughVS, redFS))
	// Covers the top half of the canvas only.
	upload(c, -1, 0, 0, 3, 0, 0, -1, 4, 0)
	c.DrawArrays(gl.Triangles, 0, 3)

	top, err := c.ReadPixels(0, 2, 4, 2)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if got := top.RGBAAt(1, 1); got != red {
		t.Errorf("top half = %v, want red", got)
	}
	bottom, err := c.ReadPixels(0, 0, 4, 2)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if got := bottom.RGBAAt(1, 1); got != (color.RGBA{}) {
		t.Errorf("bottom half = %v, want empty", got)
	}

	if _, err := c.ReadPixels(0, 0, 5, 1); err == nil {
		t.Error("ReadPixels outside the buffer succeeded")
	}
}

func TestOpenRegistersCanvas(t *testing.T) {
	w, err := backend.OpenByName(Name, backend.Options{Width: 3, Height: 2})
	if err != nil {
		t.Fatalf("OpenByName: %v", err)
	}
	canvas, ok := w.Document().ElementByID(backend.DefaultCanvasID).(host.Canvas)
	if !ok {
		t.Fatal("no canvas in opened window")
	}
	ctx, err := canvas.GetContext("experimental-webgl")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	sc, ok := ctx.(*Context)
	if !ok {
		t.Fatalf("context is %T, want *Context", ctx)
	}
	if w, h := sc.DrawingBufferSize(); w != 3 || h != 2 {
		t.Errorf("DrawingBufferSize = %dx%d, want 3x2", w, h)
	}
	if ctx, _ := canvas.GetContext("2d"); ctx != nil {
		t.Errorf("GetContext(2d) = %v, want nil", ctx)
	}
}
