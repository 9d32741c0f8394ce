// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package software

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/gl"
	"github.com/webtri/webtri/internal/glsl"
)

type shader struct {
	typ      gl.Enum
	source   string
	compiled *glsl.Shader
	status   bool
	log      string
	deleted  bool
}

type program struct {
	vs, fs   *shader
	bindings map[string]uint32
	linked   *glsl.Program
	status   bool
	log      string
	deleted  bool
}

type buffer struct {
	data    []byte
	usage   gl.Enum
	deleted bool
}

type attrib struct {
	enabled bool
	size    int
	stride  int
	offset  int
	buf     *buffer
}

// Stats counts objects that were created and not deleted yet.
type Stats struct {
	Shaders  int
	Programs int
	Buffers  int
}

// Context is a CPU implementation of gl.Context drawing into an RGBA
// framebuffer.
//
// Triangles are flat shaded: the fragment shader runs once per triangle
// with the varyings of its last vertex, and a pixel is written when its
// coverage is at least one half. Blending, depth and stencil are not
// implemented.
type Context struct {
	fb    *image.RGBA
	mask  *image.Alpha
	rast  *vector.Rasterizer
	clear color.RGBA
	err   gl.Enum

	arrayBuffer *buffer
	current     *program
	attribs     [glsl.MaxVertexAttribs]attrib

	shaders  map[*shader]struct{}
	programs map[*program]struct{}
	buffers  map[*buffer]struct{}
}

var (
	_ gl.Context     = (*Context)(nil)
	_ gl.PixelReader = (*Context)(nil)
)

// NewContext returns a context with a width x height drawing buffer cleared
// to transparent black. Sizes below one are clamped to one.
func NewContext(width, height int) *Context {
	width, height = max(width, 1), max(height, 1)
	r := image.Rect(0, 0, width, height)
	return &Context{
		fb:       image.NewRGBA(r),
		mask:     image.NewAlpha(r),
		rast:     vector.NewRasterizer(width, height),
		shaders:  make(map[*shader]struct{}),
		programs: make(map[*program]struct{}),
		buffers:  make(map[*buffer]struct{}),
	}
}

// Stats reports the number of live objects.
func (c *Context) Stats() Stats {
	return Stats{
		Shaders:  len(c.shaders),
		Programs: len(c.programs),
		Buffers:  len(c.buffers),
	}
}

// Framebuffer returns the drawing buffer. Row 0 is the top of the canvas.
func (c *Context) Framebuffer() *image.RGBA { return c.fb }

func (c *Context) setError(e gl.Enum) {
	if c.err == gl.NoError {
		c.err = e
	}
	backend.Logger().Debug("software: gl error", "err", e)
}

// GetError implements gl.Context.
func (c *Context) GetError() gl.Enum {
	e := c.err
	c.err = gl.NoError
	return e
}

// ShadingLanguage implements gl.Context.
func (c *Context) ShadingLanguage() gl.Language { return gl.GLSLES100 }

func (c *Context) shaderOf(s gl.Shader) *shader {
	sh, ok := s.(*shader)
	if !ok || sh == nil {
		c.setError(gl.InvalidValue)
		return nil
	}
	return sh
}

func (c *Context) programOf(p gl.Program) *program {
	pr, ok := p.(*program)
	if !ok || pr == nil {
		c.setError(gl.InvalidValue)
		return nil
	}
	return pr
}

func (c *Context) bufferOf(b gl.Buffer) *buffer {
	buf, ok := b.(*buffer)
	if !ok || buf == nil {
		c.setError(gl.InvalidValue)
		return nil
	}
	return buf
}

// CreateShader implements gl.Context.
func (c *Context) CreateShader(typ gl.Enum) gl.Shader {
	if typ != gl.VertexShader && typ != gl.FragmentShader {
		c.setError(gl.InvalidEnum)
		return nil
	}
	sh := &shader{typ: typ}
	c.shaders[sh] = struct{}{}
	return sh
}

// ShaderSource implements gl.Context.
func (c *Context) ShaderSource(s gl.Shader, source string) {
	sh := c.shaderOf(s)
	if sh == nil {
		return
	}
	if sh.deleted {
		c.setError(gl.InvalidValue)
		return
	}
	sh.source = source
}

// CompileShader implements gl.Context.
func (c *Context) CompileShader(s gl.Shader) {
	sh := c.shaderOf(s)
	if sh == nil {
		return
	}
	if sh.deleted {
		c.setError(gl.InvalidValue)
		return
	}
	stage := glsl.Vertex
	if sh.typ == gl.FragmentShader {
		stage = glsl.Fragment
	}
	compiled, err := glsl.Compile(stage, sh.source)
	if err != nil {
		sh.compiled, sh.status, sh.log = nil, false, infoLog(err)
		backend.Logger().Debug("software: compile failed", "stage", stage, "log", sh.log)
		return
	}
	sh.compiled, sh.status, sh.log = compiled, true, ""
}

func infoLog(err error) string {
	var ge *glsl.Error
	if errors.As(err, &ge) {
		return ge.Log()
	}
	return err.Error()
}

// GetShaderParameter implements gl.Context.
func (c *Context) GetShaderParameter(s gl.Shader, pname gl.Enum) any {
	sh := c.shaderOf(s)
	if sh == nil {
		return nil
	}
	switch pname {
	case gl.CompileStatus:
		return sh.status
	case gl.DeleteStatus:
		return sh.deleted
	case gl.ShaderType:
		return sh.typ
	}
	c.setError(gl.InvalidEnum)
	return nil
}

// GetShaderInfoLog implements gl.Context.
func (c *Context) GetShaderInfoLog(s gl.Shader) (string, bool) {
	sh := c.shaderOf(s)
	if sh == nil {
		return "", false
	}
	return sh.log, true
}

// DeleteShader implements gl.Context. Programs keep using a deleted shader
// that is still attached to them.
func (c *Context) DeleteShader(s gl.Shader) {
	if s == nil {
		return
	}
	sh := c.shaderOf(s)
	if sh == nil || sh.deleted {
		return
	}
	sh.deleted = true
	delete(c.shaders, sh)
}

// CreateProgram implements gl.Context.
func (c *Context) CreateProgram() gl.Program {
	p := &program{bindings: make(map[string]uint32)}
	c.programs[p] = struct{}{}
	return p
}

// AttachShader implements gl.Context.
func (c *Context) AttachShader(p gl.Program, s gl.Shader) {
	pr, sh := c.programOf(p), c.shaderOf(s)
	if pr == nil || sh == nil {
		return
	}
	if pr.deleted || sh.deleted {
		c.setError(gl.InvalidValue)
		return
	}
	slot := &pr.vs
	if sh.typ == gl.FragmentShader {
		slot = &pr.fs
	}
	if *slot != nil {
		c.setError(gl.InvalidOperation)
		return
	}
	*slot = sh
}

// BindAttribLocation implements gl.Context. The binding applies at the
// next link.
func (c *Context) BindAttribLocation(p gl.Program, index uint32, name string) {
	pr := c.programOf(p)
	if pr == nil {
		return
	}
	switch {
	case index >= glsl.MaxVertexAttribs:
		c.setError(gl.InvalidValue)
	case len(name) >= 3 && name[:3] == "gl_":
		c.setError(gl.InvalidOperation)
	default:
		pr.bindings[name] = index
	}
}

// LinkProgram implements gl.Context.
func (c *Context) LinkProgram(p gl.Program) {
	pr := c.programOf(p)
	if pr == nil {
		return
	}
	if pr.deleted {
		c.setError(gl.InvalidValue)
		return
	}
	pr.linked, pr.status = nil, false
	switch {
	case pr.vs == nil || !pr.vs.status:
		pr.log = "ERROR: Attached vertex shader is not compiled"
		return
	case pr.fs == nil || !pr.fs.status:
		pr.log = "ERROR: Attached fragment shader is not compiled"
		return
	}
	linked, err := glsl.Link(pr.vs.compiled, pr.fs.compiled, pr.bindings)
	if err != nil {
		pr.log = infoLog(err)
		backend.Logger().Debug("software: link failed", "log", pr.log)
		return
	}
	pr.linked, pr.status, pr.log = linked, true, ""
}

// GetProgramParameter implements gl.Context.
func (c *Context) GetProgramParameter(p gl.Program, pname gl.Enum) any {
	pr := c.programOf(p)
	if pr == nil {
		return nil
	}
	switch pname {
	case gl.LinkStatus:
		return pr.status
	case gl.DeleteStatus:
		return pr.deleted
	}
	c.setError(gl.InvalidEnum)
	return nil
}

// GetProgramInfoLog implements gl.Context.
func (c *Context) GetProgramInfoLog(p gl.Program) (string, bool) {
	pr := c.programOf(p)
	if pr == nil {
		return "", false
	}
	return pr.log, true
}

// UseProgram implements gl.Context. A nil program unbinds.
func (c *Context) UseProgram(p gl.Program) {
	if p == nil {
		c.current = nil
		return
	}
	pr := c.programOf(p)
	if pr == nil {
		return
	}
	if pr.deleted || !pr.status {
		c.setError(gl.InvalidOperation)
		return
	}
	c.current = pr
}

// DeleteProgram implements gl.Context. A deleted program stays usable while
// it is current.
func (c *Context) DeleteProgram(p gl.Program) {
	if p == nil {
		return
	}
	pr := c.programOf(p)
	if pr == nil || pr.deleted {
		return
	}
	pr.deleted = true
	delete(c.programs, pr)
}

// CreateBuffer implements gl.Context.
func (c *Context) CreateBuffer() gl.Buffer {
	b := &buffer{}
	c.buffers[b] = struct{}{}
	return b
}

// BindBuffer implements gl.Context.
func (c *Context) BindBuffer(target gl.Enum, b gl.Buffer) {
	if target != gl.ArrayBuffer {
		c.setError(gl.InvalidEnum)
		return
	}
	if b == nil {
		c.arrayBuffer = nil
		return
	}
	buf := c.bufferOf(b)
	if buf == nil {
		return
	}
	if buf.deleted {
		c.setError(gl.InvalidOperation)
		return
	}
	c.arrayBuffer = buf
}

// BufferData implements gl.Context.
func (c *Context) BufferData(target gl.Enum, data []byte, usage gl.Enum) {
	switch {
	case target != gl.ArrayBuffer:
		c.setError(gl.InvalidEnum)
	case usage != gl.StreamDraw && usage != gl.StaticDraw && usage != gl.DynamicDraw:
		c.setError(gl.InvalidEnum)
	case c.arrayBuffer == nil:
		c.setError(gl.InvalidOperation)
	default:
		c.arrayBuffer.data = append(c.arrayBuffer.data[:0], data...)
		c.arrayBuffer.usage = usage
	}
}

// DeleteBuffer implements gl.Context. Deleting the bound buffer unbinds it;
// attribute pointers keep their reference.
func (c *Context) DeleteBuffer(b gl.Buffer) {
	if b == nil {
		return
	}
	buf := c.bufferOf(b)
	if buf == nil || buf.deleted {
		return
	}
	buf.deleted = true
	if c.arrayBuffer == buf {
		c.arrayBuffer = nil
	}
	delete(c.buffers, buf)
}

// VertexAttribPointer implements gl.Context. Only FLOAT data is supported.
func (c *Context) VertexAttribPointer(index uint32, size int, typ gl.Enum, normalized bool, stride, offset int) {
	switch {
	case index >= glsl.MaxVertexAttribs:
		c.setError(gl.InvalidValue)
	case size < 1 || size > 4:
		c.setError(gl.InvalidValue)
	case typ != gl.Float:
		c.setError(gl.InvalidEnum)
	case stride < 0 || stride > 255 || offset < 0:
		c.setError(gl.InvalidValue)
	case stride%4 != 0 || offset%4 != 0:
		c.setError(gl.InvalidOperation)
	case c.arrayBuffer == nil:
		c.setError(gl.InvalidOperation)
	default:
		a := &c.attribs[index]
		a.size, a.stride, a.offset, a.buf = size, stride, offset, c.arrayBuffer
	}
}

// EnableVertexAttribArray implements gl.Context.
func (c *Context) EnableVertexAttribArray(index uint32) {
	if index >= glsl.MaxVertexAttribs {
		c.setError(gl.InvalidValue)
		return
	}
	c.attribs[index].enabled = true
}

// ClearColor implements gl.Context.
func (c *Context) ClearColor(r, g, b, a float32) {
	c.clear = color.RGBA{
		R: unorm8(float64(r)),
		G: unorm8(float64(g)),
		B: unorm8(float64(b)),
		A: unorm8(float64(a)),
	}
}

// Clear implements gl.Context. Depth and stencil bits are accepted and
// ignored since there are no such buffers.
func (c *Context) Clear(mask gl.Enum) {
	if mask&^(gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit) != 0 {
		c.setError(gl.InvalidValue)
		return
	}
	if mask&gl.ColorBufferBit != 0 {
		draw.Draw(c.fb, c.fb.Bounds(), image.NewUniform(c.clear), image.Point{}, draw.Src)
	}
}

// DrawArrays implements gl.Context. Only TRIANGLES is rasterized.
func (c *Context) DrawArrays(mode gl.Enum, first, count int) {
	switch {
	case mode != gl.Triangles:
		c.setError(gl.InvalidEnum)
		return
	case first < 0 || count < 0:
		c.setError(gl.InvalidValue)
		return
	case c.current == nil || c.current.linked == nil:
		c.setError(gl.InvalidOperation)
		return
	}
	if count == 0 {
		return
	}
	if err := c.checkAttribs(first, count); err != nil {
		backend.Logger().Debug("software: draw rejected", "err", err)
		c.setError(gl.InvalidOperation)
		return
	}
	c.drawTriangles(c.current.linked, first, count)
}

// checkAttribs verifies that every enabled array used by the current
// program holds count vertices starting at first.
func (c *Context) checkAttribs(first, count int) error {
	for _, d := range c.current.linked.Attributes() {
		loc, _ := c.current.linked.AttribLocation(d.Name)
		a := c.attribs[loc]
		if !a.enabled {
			continue
		}
		if a.buf == nil {
			return fmt.Errorf("attribute %q has no buffer", d.Name)
		}
		if !a.holds(first, count, len(a.buf.data)) {
			return fmt.Errorf("attribute %q reads vertices %d+%d past a %d byte buffer", d.Name, first, count, len(a.buf.data))
		}
	}
	return nil
}

// holds reports whether a buffer of n bytes contains count vertices of a
// starting at first. count must be positive.
func (a attrib) holds(first, count, n int) bool {
	avail := n - a.offset - a.size*4
	if avail < 0 {
		return false
	}
	last := avail / a.effectiveStride()
	return first <= last && count-1 <= last-first
}

func (a attrib) effectiveStride() int {
	if a.stride == 0 {
		return a.size * 4
	}
	return a.stride
}

// DrawingBufferSize implements gl.PixelReader.
func (c *Context) DrawingBufferSize() (int, int) {
	b := c.fb.Bounds()
	return b.Dx(), b.Dy()
}

// ReadPixels implements gl.PixelReader. x and y address the bottom-left
// corner of the region, as in GL.
func (c *Context) ReadPixels(x, y, width, height int) (*image.RGBA, error) {
	fw, fh := c.DrawingBufferSize()
	if width < 0 || height < 0 || x < 0 || y < 0 || x+width > fw || y+height > fh {
		return nil, fmt.Errorf("software: read region %dx%d at (%d,%d) outside %dx%d buffer", width, height, x, y, fw, fh)
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	top := fh - (y + height)
	for row := 0; row < height; row++ {
		src := c.fb.PixOffset(x, top+row)
		copy(out.Pix[row*out.Stride:row*out.Stride+width*4], c.fb.Pix[src:src+width*4])
	}
	return out, nil
}

// unorm8 converts a normalized float to 8 bits, clamping to [0, 1].
func unorm8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
