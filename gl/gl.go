// Package gl defines the subset of the WebGL 1 rendering context used to
// draw a scene, independent of the backend that executes it.
//
// Backends implement Context: the browser binding in backend/webgl, the CPU
// reference in backend/software and the wgpu HAL context in backend/native.
// Enum values match the WebGL constants so the browser binding can pass
// them through unchanged.
package gl

import "image"

// Enum is a WebGL enumerant.
type Enum uint32

// Enumerants used by the scene.
const (
	NoError          Enum = 0
	Points           Enum = 0x0000
	Lines            Enum = 0x0001
	LineLoop         Enum = 0x0002
	LineStrip        Enum = 0x0003
	Triangles        Enum = 0x0004
	TriangleStrip    Enum = 0x0005
	TriangleFan      Enum = 0x0006
	DepthBufferBit   Enum = 0x0100
	StencilBufferBit Enum = 0x0400
	InvalidEnum      Enum = 0x0500
	InvalidValue     Enum = 0x0501
	InvalidOperation Enum = 0x0502
	OutOfMemory      Enum = 0x0505
	Float            Enum = 0x1406
	ColorBufferBit   Enum = 0x4000
	ArrayBuffer      Enum = 0x8892
	StreamDraw       Enum = 0x88E0
	StaticDraw       Enum = 0x88E4
	DynamicDraw      Enum = 0x88E8
	FragmentShader   Enum = 0x8B30
	VertexShader     Enum = 0x8B31
	ShaderType       Enum = 0x8B4F
	DeleteStatus     Enum = 0x8B80
	CompileStatus    Enum = 0x8B81
	LinkStatus       Enum = 0x8B82
)

// String returns the WebGL name of e.
func (e Enum) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case Triangles:
		return "TRIANGLES"
	case TriangleStrip:
		return "TRIANGLE_STRIP"
	case TriangleFan:
		return "TRIANGLE_FAN"
	case Lines:
		return "LINES"
	case LineLoop:
		return "LINE_LOOP"
	case LineStrip:
		return "LINE_STRIP"
	case DepthBufferBit:
		return "DEPTH_BUFFER_BIT"
	case StencilBufferBit:
		return "STENCIL_BUFFER_BIT"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case Float:
		return "FLOAT"
	case ColorBufferBit:
		return "COLOR_BUFFER_BIT"
	case ArrayBuffer:
		return "ARRAY_BUFFER"
	case StreamDraw:
		return "STREAM_DRAW"
	case StaticDraw:
		return "STATIC_DRAW"
	case DynamicDraw:
		return "DYNAMIC_DRAW"
	case FragmentShader:
		return "FRAGMENT_SHADER"
	case VertexShader:
		return "VERTEX_SHADER"
	case ShaderType:
		return "SHADER_TYPE"
	case DeleteStatus:
		return "DELETE_STATUS"
	case CompileStatus:
		return "COMPILE_STATUS"
	case LinkStatus:
		return "LINK_STATUS"
	default:
		return "UNKNOWN"
	}
}

// Language identifies the shading language a Context compiles.
type Language uint8

const (
	// GLSLES100 is the OpenGL ES Shading Language 1.00 used by WebGL 1.
	GLSLES100 Language = iota

	// WGSL is the WebGPU Shading Language.
	WGSL
)

// String returns the language name.
func (l Language) String() string {
	switch l {
	case GLSLES100:
		return "GLSL ES 1.00"
	case WGSL:
		return "WGSL"
	default:
		return "unknown"
	}
}

// Handle types. Each backend defines its own concrete objects; a nil
// handle means no object, as null does in WebGL.
type (
	Shader  any
	Program any
	Buffer  any
)

// Context is the WebGL 1 subset needed to draw one triangle.
//
// Methods follow WebGL semantics: they do not return errors. Failures are
// reported through status queries (GetShaderParameter, GetProgramParameter),
// nil object handles and the GetError flag.
type Context interface {
	// ShadingLanguage reports which language ShaderSource expects.
	ShadingLanguage() Language

	CreateShader(typ Enum) Shader
	ShaderSource(s Shader, source string)
	CompileShader(s Shader)
	// GetShaderParameter returns a bool for CompileStatus and DeleteStatus,
	// an Enum for ShaderType, or nil for an invalid query.
	GetShaderParameter(s Shader, pname Enum) any
	// GetShaderInfoLog reports false when the backend has no log to offer.
	GetShaderInfoLog(s Shader) (string, bool)
	DeleteShader(s Shader)

	CreateProgram() Program
	AttachShader(p Program, s Shader)
	BindAttribLocation(p Program, index uint32, name string)
	LinkProgram(p Program)
	GetProgramParameter(p Program, pname Enum) any
	GetProgramInfoLog(p Program) (string, bool)
	UseProgram(p Program)
	DeleteProgram(p Program)

	CreateBuffer() Buffer
	BindBuffer(target Enum, b Buffer)
	// BufferData uploads raw bytes to the buffer bound to target.
	BufferData(target Enum, data []byte, usage Enum)
	DeleteBuffer(b Buffer)

	VertexAttribPointer(index uint32, size int, typ Enum, normalized bool, stride, offset int)
	EnableVertexAttribArray(index uint32)

	ClearColor(r, g, b, a float32)
	Clear(mask Enum)
	DrawArrays(mode Enum, first, count int)

	// GetError returns and clears the oldest recorded error flag.
	GetError() Enum
}

// PixelReader is implemented by contexts whose drawing buffer can be read
// back to host memory.
type PixelReader interface {
	// DrawingBufferSize returns the drawing buffer dimensions in pixels.
	DrawingBufferSize() (width, height int)

	// ReadPixels returns the given region as RGBA. Unlike glReadPixels,
	// rows are ordered top to bottom.
	ReadPixels(x, y, width, height int) (*image.RGBA, error)
}
