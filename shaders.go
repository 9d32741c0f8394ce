package webtri

import (
	"encoding/binary"

	"golang.org/x/mobile/exp/f32"

	"github.com/webtri/webtri/gl"
)

// ShaderSource is a vertex and fragment shader pair in one language.
type ShaderSource struct {
	Vertex   string
	Fragment string
}

// Shaders holds the scene shaders for every supported shading language.
type Shaders struct {
	// Attribute is the name of the position input, bound to location 0
	// before linking.
	Attribute string

	GLSL ShaderSource
	WGSL ShaderSource
}

// For returns the pair written in lang, and false if there is none.
func (s Shaders) For(lang gl.Language) (ShaderSource, bool) {
	var src ShaderSource
	switch lang {
	case gl.GLSLES100:
		src = s.GLSL
	case gl.WGSL:
		src = s.WGSL
	}
	return src, src.Vertex != "" && src.Fragment != ""
}

// Pass-through vertex shader and solid red fragment shader.
const (
	glslVertex = `attribute vec4 position;
void main() {
    gl_Position = position;
}
`
	glslFragment = `void main() {
    gl_FragColor = vec4(1.0, 0.0, 0.0, 1.0);
}
`
	wgslVertex = `@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}
`
	wgslFragment = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`
)

// DefaultShaders returns the built-in shaders.
func DefaultShaders() Shaders {
	return Shaders{
		Attribute: "position",
		GLSL:      ShaderSource{Vertex: glslVertex, Fragment: glslFragment},
		WGSL:      ShaderSource{Vertex: wgslVertex, Fragment: wgslFragment},
	}
}

// VertexCount is the number of vertices drawn.
const VertexCount = 3

// Vertices returns the triangle in normalized device coordinates, three
// floats per vertex.
func Vertices() []float32 {
	return []float32{
		-0.7, -0.7, 0.0,
		0.7, -0.7, 0.0,
		0.0, 0.7, 0.0,
	}
}

// vertexData encodes the triangle as little-endian float32, the byte order
// of WebGL array buffers on every supported platform.
func vertexData() []byte {
	return f32.Bytes(binary.LittleEndian, Vertices()...)
}
