package glsl

import (
	"fmt"
	"sort"
)

// Program is a linked vertex and fragment shader pair.
type Program struct {
	Vertex   *Shader
	Fragment *Shader

	locations map[string]uint32
}

// Link checks that vs and fs fit together and assigns attribute locations.
// Names present in bindings get the bound location; the others take the
// lowest free ones in declaration order. Bindings for names the vertex
// shader does not declare are ignored.
func Link(vs, fs *Shader, bindings map[string]uint32) (*Program, error) {
	var diags []Diagnostic
	errorf := func(format string, args ...any) {
		diags = append(diags, Diagnostic{Msg: fmt.Sprintf(format, args...)})
	}

	if vs == nil || vs.Stage != Vertex {
		errorf("no compiled vertex shader attached")
	}
	if fs == nil || fs.Stage != Fragment {
		errorf("no compiled fragment shader attached")
	}
	if len(diags) > 0 {
		return nil, &Error{Diagnostics: diags}
	}

	for _, fv := range fs.Varyings {
		vv, ok := findDecl(vs.Varyings, fv.Name)
		switch {
		case !ok:
			errorf("Varying '%s' is not declared in the vertex shader", fv.Name)
		case vv.Type != fv.Type:
			errorf("Types of varying '%s' differ between vertex and fragment shaders", fv.Name)
		}
	}

	locations := make(map[string]uint32, len(vs.Attributes))
	used := make(map[uint32]string)
	for _, a := range vs.Attributes {
		loc, ok := bindings[a.Name]
		if !ok {
			continue
		}
		if loc >= MaxVertexAttribs {
			errorf("Attribute location %d of '%s' exceeds the maximum of %d", loc, a.Name, MaxVertexAttribs-1)
			continue
		}
		if other, taken := used[loc]; taken {
			errorf("Attribute '%s' aliases attribute '%s' at location %d", a.Name, other, loc)
			continue
		}
		locations[a.Name] = loc
		used[loc] = a.Name
	}
	next := uint32(0)
	for _, a := range vs.Attributes {
		if _, ok := bindings[a.Name]; ok {
			continue
		}
		for used[next] != "" {
			next++
		}
		if next >= MaxVertexAttribs {
			errorf("Too many vertex attributes, maximum is %d", MaxVertexAttribs)
			break
		}
		locations[a.Name] = next
		used[next] = a.Name
	}

	if len(diags) > 0 {
		return nil, &Error{Diagnostics: diags}
	}
	return &Program{Vertex: vs, Fragment: fs, locations: locations}, nil
}

// AttribLocation returns the location assigned to the named attribute.
func (p *Program) AttribLocation(name string) (uint32, bool) {
	loc, ok := p.locations[name]
	return loc, ok
}

// Attributes returns the active attributes ordered by location.
func (p *Program) Attributes() []Decl {
	decls := append([]Decl(nil), p.Vertex.Attributes...)
	sort.Slice(decls, func(i, j int) bool {
		return p.locations[decls[i].Name] < p.locations[decls[j].Name]
	})
	return decls
}

// ShadeVertex runs the vertex shader and returns its outputs.
func (p *Program) ShadeVertex(attribs, uniforms map[string]Vec) (map[string]Vec, error) {
	in := make(map[string]Vec, len(attribs)+len(uniforms))
	for k, v := range uniforms {
		in[k] = v
	}
	for k, v := range attribs {
		in[k] = v
	}
	return p.Vertex.Run(in)
}

// ShadeFragment runs the fragment shader and returns gl_FragColor. A
// fragment shader that never writes it yields opaque black.
func (p *Program) ShadeFragment(varyings, uniforms map[string]Vec) (Vec, error) {
	in := make(map[string]Vec, len(varyings)+len(uniforms))
	for k, v := range uniforms {
		in[k] = v
	}
	for k, v := range varyings {
		in[k] = v
	}
	out, err := p.Fragment.Run(in)
	if err != nil {
		return nil, err
	}
	c, ok := out[FragColor]
	if !ok {
		return Vec{0, 0, 0, 1}, nil
	}
	return c, nil
}

func findDecl(decls []Decl, name string) (Decl, bool) {
	for _, d := range decls {
		if d.Name == name {
			return d, true
		}
	}
	return Decl{}, false
}
