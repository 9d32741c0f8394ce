// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

package webgl

import (
	"fmt"
	"image"
	"syscall/js"

	"github.com/webtri/webtri/gl"
)

const (
	rgba         = 0x1908
	unsignedByte = 0x1401
)

// Context forwards gl.Context calls to a WebGLRenderingContext. Object
// handles are the browser's own js.Value objects.
type Context struct {
	gl js.Value
}

var (
	_ gl.Context     = (*Context)(nil)
	_ gl.PixelReader = (*Context)(nil)
)

// Value returns the underlying WebGLRenderingContext.
func (c *Context) Value() js.Value { return c.gl }

// ShadingLanguage implements gl.Context.
func (c *Context) ShadingLanguage() gl.Language { return gl.GLSLES100 }

func handle(v js.Value) any {
	if !present(v) {
		return nil
	}
	return v
}

func value(h any) js.Value {
	if v, ok := h.(js.Value); ok {
		return v
	}
	return js.Null()
}

func (c *Context) CreateShader(typ gl.Enum) gl.Shader {
	return handle(c.gl.Call("createShader", int(typ)))
}

func (c *Context) ShaderSource(s gl.Shader, source string) {
	c.gl.Call("shaderSource", value(s), source)
}

func (c *Context) CompileShader(s gl.Shader) {
	c.gl.Call("compileShader", value(s))
}

func (c *Context) GetShaderParameter(s gl.Shader, pname gl.Enum) any {
	return parameter(c.gl.Call("getShaderParameter", value(s), int(pname)), pname)
}

func (c *Context) GetShaderInfoLog(s gl.Shader) (string, bool) {
	return infoLog(c.gl.Call("getShaderInfoLog", value(s)))
}

func (c *Context) DeleteShader(s gl.Shader) {
	c.gl.Call("deleteShader", value(s))
}

func (c *Context) CreateProgram() gl.Program {
	return handle(c.gl.Call("createProgram"))
}

func (c *Context) AttachShader(p gl.Program, s gl.Shader) {
	c.gl.Call("attachShader", value(p), value(s))
}

func (c *Context) BindAttribLocation(p gl.Program, index uint32, name string) {
	c.gl.Call("bindAttribLocation", value(p), index, name)
}

func (c *Context) LinkProgram(p gl.Program) {
	c.gl.Call("linkProgram", value(p))
}

func (c *Context) GetProgramParameter(p gl.Program, pname gl.Enum) any {
	return parameter(c.gl.Call("getProgramParameter", value(p), int(pname)), pname)
}

func (c *Context) GetProgramInfoLog(p gl.Program) (string, bool) {
	return infoLog(c.gl.Call("getProgramInfoLog", value(p)))
}

func (c *Context) UseProgram(p gl.Program) {
	c.gl.Call("useProgram", value(p))
}

func (c *Context) DeleteProgram(p gl.Program) {
	c.gl.Call("deleteProgram", value(p))
}

func (c *Context) CreateBuffer() gl.Buffer {
	return handle(c.gl.Call("createBuffer"))
}

func (c *Context) BindBuffer(target gl.Enum, b gl.Buffer) {
	c.gl.Call("bindBuffer", int(target), value(b))
}

// BufferData copies data into a Uint8Array before handing it to the
// browser.
func (c *Context) BufferData(target gl.Enum, data []byte, usage gl.Enum) {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	c.gl.Call("bufferData", int(target), arr, int(usage))
}

func (c *Context) DeleteBuffer(b gl.Buffer) {
	c.gl.Call("deleteBuffer", value(b))
}

func (c *Context) VertexAttribPointer(index uint32, size int, typ gl.Enum, normalized bool, stride, offset int) {
	c.gl.Call("vertexAttribPointer", index, size, int(typ), normalized, stride, offset)
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	c.gl.Call("enableVertexAttribArray", index)
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.gl.Call("clearColor", r, g, b, a)
}

func (c *Context) Clear(mask gl.Enum) {
	c.gl.Call("clear", int(mask))
}

func (c *Context) DrawArrays(mode gl.Enum, first, count int) {
	c.gl.Call("drawArrays", int(mode), first, count)
}

func (c *Context) GetError() gl.Enum {
	return gl.Enum(c.gl.Call("getError").Int())
}

// DrawingBufferSize implements gl.PixelReader.
func (c *Context) DrawingBufferSize() (int, int) {
	return c.gl.Get("drawingBufferWidth").Int(), c.gl.Get("drawingBufferHeight").Int()
}

// ReadPixels implements gl.PixelReader. The drawing buffer must still hold
// the frame, so read back in the same task as the draw or create the
// context with preserveDrawingBuffer.
func (c *Context) ReadPixels(x, y, width, height int) (*image.RGBA, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("webgl: negative read size %dx%d", width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	arr := js.Global().Get("Uint8Array").New(len(img.Pix))
	if _, err := call(c.gl, "readPixels", x, y, width, height, rgba, unsignedByte, arr); err != nil {
		return nil, fmt.Errorf("webgl: readPixels: %w", err)
	}
	js.CopyBytesToGo(img.Pix, arr)
	flipRows(img.Pix, img.Stride, height)
	return img, nil
}

func parameter(v js.Value, pname gl.Enum) any {
	switch {
	case !present(v):
		return nil
	case pname == gl.ShaderType:
		return gl.Enum(v.Int())
	case v.Type() == js.TypeBoolean:
		return v.Bool()
	}
	return nil
}

func infoLog(v js.Value) (string, bool) {
	if !present(v) {
		return "", false
	}
	return v.String(), true
}
