package webtri

import (
	"errors"

	"github.com/webtri/webtri/gl"
)

// Sentinel errors.
var (
	// ErrNoReadback is returned by Snapshot when the context cannot read
	// back its drawing buffer.
	ErrNoReadback = errors.New("webtri: context does not support pixel readback")

	// ErrNoShaderSource is returned by Draw when the shaders have no source
	// for the context's shading language.
	ErrNoShaderSource = errors.New("webtri: no shader source for context language")
)

// InitError reports why New could not acquire a rendering context.
type InitError struct {
	Msg string
	Err error
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return "webtri: " + e.Msg + ": " + e.Err.Error()
	}
	return "webtri: " + e.Msg
}

func (e *InitError) Unwrap() error { return e.Err }

// ShaderCompileError carries the info log of a shader that failed to
// compile.
type ShaderCompileError struct {
	Stage gl.Enum // gl.VertexShader or gl.FragmentShader
	Log   string
}

func (e *ShaderCompileError) Error() string {
	stage := "vertex"
	if e.Stage == gl.FragmentShader {
		stage = "fragment"
	}
	return "webtri: compile " + stage + " shader: " + e.Log
}

// LinkError carries the info log of a program that failed to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return "webtri: link program: " + e.Log
}

// BufferError reports a vertex buffer that could not be created.
type BufferError struct {
	Msg string
}

func (e *BufferError) Error() string {
	return "webtri: " + e.Msg
}
