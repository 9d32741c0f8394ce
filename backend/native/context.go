// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/gl"
)

const (
	maxVertexAttribs = 16
	targetFormat     = gputypes.TextureFormatBGRA8Unorm
	fenceTimeout     = 5 * time.Second

	// copyPitchAlignment is the row alignment required by texture to
	// buffer copies.
	copyPitchAlignment = 256
)

type shader struct {
	typ      gl.Enum
	source   string
	compiled *compiledShader
	status   bool
	log      string
	deleted  bool
}

type program struct {
	vs, fs  *shader
	status  bool
	log     string
	deleted bool

	vsModule  hal.ShaderModule
	fsModule  hal.ShaderModule
	vsEntry   string
	fsEntry   string
	layout    hal.PipelineLayout
	pipelines map[string]hal.RenderPipeline
}

type buffer struct {
	gpu     hal.Buffer
	size    int
	deleted bool
}

type attrib struct {
	enabled bool
	size    int
	stride  int
	offset  int
	buf     *buffer
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

// Context implements gl.Context on a wgpu HAL device. Shaders are WGSL,
// compiled to SPIR-V with naga. Every Clear and DrawArrays is submitted
// immediately as its own render pass into an offscreen BGRA texture.
type Context struct {
	dev    *Device
	width  uint32
	height uint32
	target hal.Texture
	view   hal.TextureView

	clear gputypes.Color
	err   gl.Enum

	arrayBuffer *buffer
	current     *program
	attribs     [maxVertexAttribs]attrib

	programs map[*program]struct{}
	buffers  map[*buffer]struct{}
}

var (
	_ gl.Context     = (*Context)(nil)
	_ gl.PixelReader = (*Context)(nil)
)

// NewContext creates a width x height render target on dev, cleared to
// transparent black.
func NewContext(dev *Device, width, height int) (*Context, error) {
	if dev == nil || dev.Device == nil || dev.Queue == nil {
		return nil, errors.New("native: nil device")
	}
	width, height = max(width, 1), max(height, 1)
	c := &Context{
		dev:      dev,
		width:    uint32(width),
		height:   uint32(height),
		programs: make(map[*program]struct{}),
		buffers:  make(map[*buffer]struct{}),
	}

	tex, err := dev.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         "webtri_target",
		Size:          hal.Extent3D{Width: c.width, Height: c.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create target texture: %w", err)
	}
	c.target = tex

	view, err := dev.Device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "webtri_target_view"})
	if err != nil {
		dev.Device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create target view: %w", err)
	}
	c.view = view

	if err := c.clearPass(gputypes.Color{}); err != nil {
		c.Close()
		return nil, fmt.Errorf("native: initial clear: %w", err)
	}
	return c, nil
}

// Close releases every GPU object created by the context. The device is
// left to its owner.
func (c *Context) Close() {
	d := c.dev.Device
	for p := range c.programs {
		c.releaseProgram(p)
	}
	for b := range c.buffers {
		d.DestroyBuffer(b.gpu)
		delete(c.buffers, b)
	}
	if c.view != nil {
		d.DestroyTextureView(c.view)
		c.view = nil
	}
	if c.target != nil {
		d.DestroyTexture(c.target)
		c.target = nil
	}
}

func (c *Context) setError(e gl.Enum) {
	if c.err == gl.NoError {
		c.err = e
	}
	backend.Logger().Debug("native: gl error", "err", e)
}

// gpuFailed records a HAL failure as a GL error.
func (c *Context) gpuFailed(op string, err error) {
	backend.Logger().Warn("native: GPU operation failed", "op", op, "err", err)
	c.setError(gl.OutOfMemory)
}

// GetError implements gl.Context.
func (c *Context) GetError() gl.Enum {
	e := c.err
	c.err = gl.NoError
	return e
}

// ShadingLanguage implements gl.Context.
func (c *Context) ShadingLanguage() gl.Language { return gl.WGSL }

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

// CreateShader implements gl.Context.
func (c *Context) CreateShader(typ gl.Enum) gl.Shader {
	if typ != gl.VertexShader && typ != gl.FragmentShader {
		c.setError(gl.InvalidEnum)
		return nil
	}
	return &shader{typ: typ}
}

// ShaderSource implements gl.Context.
func (c *Context) ShaderSource(s gl.Shader, source string) {
	if sh := c.shaderOf(s); sh != nil {
		sh.source = source
	}
}

// CompileShader implements gl.Context.
func (c *Context) CompileShader(s gl.Shader) {
	sh := c.shaderOf(s)
	if sh == nil {
		return
	}
	compiled, err := compileWGSL(sh.source, sh.typ == gl.FragmentShader)
	if err != nil {
		sh.compiled, sh.status, sh.log = nil, false, "ERROR: "+err.Error()
		backend.Logger().Debug("native: compile failed", "log", sh.log)
		return
	}
	sh.compiled, sh.status, sh.log = compiled, true, ""
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

// DeleteShader implements gl.Context. SPIR-V lives in the program's
// modules once linked, so a shader holds no GPU memory.
func (c *Context) DeleteShader(s gl.Shader) {
	if s == nil {
		return
	}
	if sh := c.shaderOf(s); sh != nil {
		sh.deleted = true
	}
}

// CreateProgram implements gl.Context.
func (c *Context) CreateProgram() gl.Program {
	p := &program{pipelines: make(map[string]hal.RenderPipeline)}
	c.programs[p] = struct{}{}
	return p
}

// AttachShader implements gl.Context.
func (c *Context) AttachShader(p gl.Program, s gl.Shader) {
	pr, sh := c.programOf(p), c.shaderOf(s)
	if pr == nil || sh == nil {
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

// BindAttribLocation implements gl.Context. WGSL fixes locations with
// @location, so the binding is only validated.
func (c *Context) BindAttribLocation(p gl.Program, index uint32, name string) {
	if c.programOf(p) == nil {
		return
	}
	switch {
	case index >= maxVertexAttribs:
		c.setError(gl.InvalidValue)
	case strings.HasPrefix(name, "gl_"):
		c.setError(gl.InvalidOperation)
	}
}

// LinkProgram implements gl.Context. It creates the shader modules and
// pipeline layout; pipelines are built at draw time for the vertex layout
// in use.
func (c *Context) LinkProgram(p gl.Program) {
	pr := c.programOf(p)
	if pr == nil {
		return
	}
	c.releaseGPU(pr)
	pr.status = false
	switch {
	case pr.vs == nil || !pr.vs.status:
		pr.log = "ERROR: Attached vertex shader is not compiled"
		return
	case pr.fs == nil || !pr.fs.status:
		pr.log = "ERROR: Attached fragment shader is not compiled"
		return
	}

	d := c.dev.Device
	vsMod, err := d.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "webtri_vs",
		Source: hal.ShaderSource{SPIRV: pr.vs.compiled.spirv},
	})
	if err != nil {
		pr.log = "ERROR: vertex module: " + err.Error()
		return
	}
	pr.vsModule = vsMod

	fsMod, err := d.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "webtri_fs",
		Source: hal.ShaderSource{SPIRV: pr.fs.compiled.spirv},
	})
	if err != nil {
		c.releaseGPU(pr)
		pr.log = "ERROR: fragment module: " + err.Error()
		return
	}
	pr.fsModule = fsMod

	layout, err := d.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: "webtri_layout"})
	if err != nil {
		c.releaseGPU(pr)
		pr.log = "ERROR: pipeline layout: " + err.Error()
		return
	}
	pr.layout = layout
	pr.vsEntry, pr.fsEntry = pr.vs.compiled.entry, pr.fs.compiled.entry
	pr.status, pr.log = true, ""
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

// UseProgram implements gl.Context.
func (c *Context) UseProgram(p gl.Program) {
	var next *program
	if p != nil {
		if next = c.programOf(p); next == nil {
			return
		}
		if next.deleted || !next.status {
			c.setError(gl.InvalidOperation)
			return
		}
	}
	prev := c.current
	c.current = next
	if prev != nil && prev != next && prev.deleted {
		c.releaseProgram(prev)
	}
}

// DeleteProgram implements gl.Context. The current program is released
// when it is replaced.
func (c *Context) DeleteProgram(p gl.Program) {
	if p == nil {
		return
	}
	pr := c.programOf(p)
	if pr == nil || pr.deleted {
		return
	}
	pr.deleted = true
	if pr != c.current {
		c.releaseProgram(pr)
	}
}

func (c *Context) releaseProgram(p *program) {
	c.releaseGPU(p)
	delete(c.programs, p)
}

func (c *Context) releaseGPU(p *program) {
	d := c.dev.Device
	for key, pipe := range p.pipelines {
		d.DestroyRenderPipeline(pipe)
		delete(p.pipelines, key)
	}
	if p.layout != nil {
		d.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.fsModule != nil {
		d.DestroyShaderModule(p.fsModule)
		p.fsModule = nil
	}
	if p.vsModule != nil {
		d.DestroyShaderModule(p.vsModule)
		p.vsModule = nil
	}
}

// CreateBuffer implements gl.Context. GPU memory is allocated by
// BufferData.
func (c *Context) CreateBuffer() gl.Buffer {
	return &buffer{}
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
	buf, ok := b.(*buffer)
	if !ok || buf == nil {
		c.setError(gl.InvalidValue)
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
		return
	case usage != gl.StreamDraw && usage != gl.StaticDraw && usage != gl.DynamicDraw:
		c.setError(gl.InvalidEnum)
		return
	case c.arrayBuffer == nil:
		c.setError(gl.InvalidOperation)
		return
	}
	b := c.arrayBuffer
	d := c.dev.Device
	if b.gpu != nil {
		d.DestroyBuffer(b.gpu)
		b.gpu, b.size = nil, 0
		delete(c.buffers, b)
	}
	if len(data) == 0 {
		return
	}
	// Buffer sizes and writes must be multiples of four bytes.
	padded := data
	if rem := len(data) % 4; rem != 0 {
		padded = append(append([]byte(nil), data...), make([]byte, 4-rem)...)
	}
	gpu, err := d.CreateBuffer(&hal.BufferDescriptor{
		Label: "webtri_vertices",
		Size:  uint64(len(padded)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		c.gpuFailed("create vertex buffer", err)
		return
	}
	c.dev.Queue.WriteBuffer(gpu, 0, padded)
	b.gpu, b.size = gpu, len(data)
	c.buffers[b] = struct{}{}
}

// DeleteBuffer implements gl.Context. GPU memory stays alive while an
// attribute array still points at the buffer.
func (c *Context) DeleteBuffer(b gl.Buffer) {
	if b == nil {
		return
	}
	buf, ok := b.(*buffer)
	if !ok || buf == nil {
		c.setError(gl.InvalidValue)
		return
	}
	if buf.deleted {
		return
	}
	buf.deleted = true
	if c.arrayBuffer == buf {
		c.arrayBuffer = nil
	}
	c.releaseBuffer(buf)
}

func (c *Context) releaseBuffer(b *buffer) {
	if !b.deleted || b.gpu == nil {
		return
	}
	for _, a := range c.attribs {
		if a.buf == b {
			return
		}
	}
	c.dev.Device.DestroyBuffer(b.gpu)
	b.gpu = nil
	delete(c.buffers, b)
}

// VertexAttribPointer implements gl.Context. Only FLOAT data is supported.
func (c *Context) VertexAttribPointer(index uint32, size int, typ gl.Enum, normalized bool, stride, offset int) {
	switch {
	case index >= maxVertexAttribs:
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
		prev := a.buf
		a.size, a.stride, a.offset, a.buf = size, stride, offset, c.arrayBuffer
		if prev != nil && prev != a.buf {
			c.releaseBuffer(prev)
		}
	}
}

// EnableVertexAttribArray implements gl.Context.
func (c *Context) EnableVertexAttribArray(index uint32) {
	if index >= maxVertexAttribs {
		c.setError(gl.InvalidValue)
		return
	}
	c.attribs[index].enabled = true
}

// ClearColor implements gl.Context.
func (c *Context) ClearColor(r, g, b, a float32) {
	c.clear = gputypes.Color{
		R: clamp01(float64(r)),
		G: clamp01(float64(g)),
		B: clamp01(float64(b)),
		A: clamp01(float64(a)),
	}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// Clear implements gl.Context.
func (c *Context) Clear(mask gl.Enum) {
	if mask&^(gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit) != 0 {
		c.setError(gl.InvalidValue)
		return
	}
	if mask&gl.ColorBufferBit == 0 {
		return
	}
	if err := c.clearPass(c.clear); err != nil {
		c.gpuFailed("clear", err)
	}
}

// DrawArrays implements gl.Context. Only TRIANGLES is supported.
func (c *Context) DrawArrays(mode gl.Enum, first, count int) {
	switch {
	case mode != gl.Triangles:
		c.setError(gl.InvalidEnum)
		return
	case first < 0 || count < 0:
		c.setError(gl.InvalidValue)
		return
	case c.current == nil || !c.current.status:
		c.setError(gl.InvalidOperation)
		return
	}
	if count == 0 {
		return
	}
	for i, a := range c.attribs {
		if !a.enabled {
			continue
		}
		if a.buf == nil || a.buf.gpu == nil || !a.holds(first, count, a.buf.size) {
			backend.Logger().Debug("native: attribute out of range", "index", i, "first", first, "count", count)
			c.setError(gl.InvalidOperation)
			return
		}
	}
	if err := c.drawPass(c.current, first, count); err != nil {
		c.gpuFailed("draw", err)
	}
}

// DrawingBufferSize implements gl.PixelReader.
func (c *Context) DrawingBufferSize() (int, int) {
	return int(c.width), int(c.height)
}

// ReadPixels implements gl.PixelReader. x and y address the bottom-left
// corner of the region, as in GL.
func (c *Context) ReadPixels(x, y, width, height int) (*image.RGBA, error) {
	fw, fh := c.DrawingBufferSize()
	if width < 0 || height < 0 || x < 0 || y < 0 || x+width > fw || y+height > fh {
		return nil, fmt.Errorf("native: read region %dx%d at (%d,%d) outside %dx%d buffer", width, height, x, y, fw, fh)
	}
	full, err := c.readback()
	if err != nil {
		return nil, err
	}
	top := fh - (y + height)
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		src := full.PixOffset(x, top+row)
		copy(out.Pix[row*out.Stride:row*out.Stride+width*4], full.Pix[src:src+width*4])
	}
	return out, nil
}
