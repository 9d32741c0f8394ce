package glsl

import "fmt"

// Stage is a programmable pipeline stage.
type Stage uint8

const (
	Vertex Stage = iota
	Fragment
)

func (s Stage) String() string {
	if s == Vertex {
		return "vertex"
	}
	return "fragment"
}

// Type is a GLSL value type. Only float and its vectors are supported.
type Type uint8

const (
	Invalid Type = iota
	Float
	Vec2
	Vec3
	Vec4
)

// Size returns the number of components of t.
func (t Type) Size() int {
	switch t {
	case Float:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	}
	return 0
}

func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	}
	return "invalid"
}

func typeOfSize(n int) Type {
	switch n {
	case 1:
		return Float
	case 2:
		return Vec2
	case 3:
		return Vec3
	case 4:
		return Vec4
	}
	return Invalid
}

func parseType(name string) Type {
	switch name {
	case "float":
		return Float
	case "vec2":
		return Vec2
	case "vec3":
		return Vec3
	case "vec4":
		return Vec4
	}
	return Invalid
}

// Qualifier is a storage qualifier of a global declaration.
type Qualifier uint8

const (
	Attribute Qualifier = iota
	Uniform
	Varying
)

func (q Qualifier) String() string {
	switch q {
	case Attribute:
		return "attribute"
	case Uniform:
		return "uniform"
	}
	return "varying"
}

// Decl is a global variable declaration.
type Decl struct {
	Qualifier Qualifier
	Type      Type
	Name      string
	Line      int
}

// Vec is a float or vector value. Its length is the component count.
type Vec []float64

// Type returns the GLSL type matching the length of v.
func (v Vec) Type() Type { return typeOfSize(len(v)) }

func (v Vec) String() string {
	return fmt.Sprintf("%s%v", v.Type(), []float64(v))
}

// Builtin output variables.
const (
	Position  = "gl_Position"
	PointSize = "gl_PointSize"
	FragColor = "gl_FragColor"
)

// MaxVertexAttribs is the number of attribute locations a program may use.
const MaxVertexAttribs = 16
