// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package software

import (
	"encoding/binary"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/internal/glsl"
)

// point is a vertex position in framebuffer pixels, y down.
type point struct{ x, y float64 }

// genericAttrib is the value of a disabled attribute array.
var genericAttrib = glsl.Vec{0, 0, 0, 1}

func (c *Context) drawTriangles(p *glsl.Program, first, count int) {
	w, h := c.DrawingBufferSize()
	attrs := p.Attributes()
	for i := first; i+3 <= first+count; i += 3 {
		var (
			clip     [3]glsl.Vec
			varyings map[string]glsl.Vec
		)
		ok := true
		for k := range 3 {
			out, err := p.ShadeVertex(c.fetch(p, attrs, i+k), nil)
			if err != nil {
				backend.Logger().Warn("software: vertex shader failed", "vertex", i+k, "err", err)
				ok = false
				break
			}
			clip[k] = glsl.Vec{0, 0, 0, 0}
			copy(clip[k], out[glsl.Position])
			varyings = out
		}
		if !ok {
			continue
		}
		poly, visible := project(clip, float64(w), float64(h))
		if !visible {
			continue
		}
		col, err := p.ShadeFragment(varyings, nil)
		if err != nil {
			backend.Logger().Warn("software: fragment shader failed", "triangle", i/3, "err", err)
			continue
		}
		c.fill(poly, col)
	}
}

// fetch reads the attribute values of vertex idx.
func (c *Context) fetch(p *glsl.Program, attrs []glsl.Decl, idx int) map[string]glsl.Vec {
	in := make(map[string]glsl.Vec, len(attrs))
	for _, d := range attrs {
		loc, _ := p.AttribLocation(d.Name)
		a := c.attribs[loc]
		v := append(glsl.Vec(nil), genericAttrib...)
		if a.enabled {
			off := a.offset + idx*a.effectiveStride()
			for j := range a.size {
				bits := binary.LittleEndian.Uint32(a.buf.data[off+4*j:])
				v[j] = float64(math.Float32frombits(bits))
			}
		}
		in[d.Name] = v[:d.Type.Size()]
	}
	return in
}

// project divides clip coordinates by w, maps them to pixels and clips the
// triangle to the framebuffer. Triangles with a vertex at or behind the eye
// are dropped.
func project(clip [3]glsl.Vec, w, h float64) ([]point, bool) {
	poly := make([]point, 0, 3)
	allNear, allFar := true, true
	for _, v := range clip {
		if !(v[3] > 0) || math.IsInf(v[3], 0) {
			return nil, false
		}
		z := v[2] / v[3]
		allNear = allNear && z < -1
		allFar = allFar && z > 1
		poly = append(poly, point{
			x: (v[0]/v[3] + 1) / 2 * w,
			y: (1 - v[1]/v[3]) / 2 * h,
		})
	}
	if allNear || allFar {
		return nil, false
	}
	for _, p := range poly {
		if math.IsNaN(p.x) || math.IsNaN(p.y) {
			return nil, false
		}
	}
	poly = clipPolygon(poly, w, h)
	return poly, len(poly) >= 3
}

// clipPolygon clips poly to [0,w]x[0,h] (Sutherland-Hodgman).
func clipPolygon(poly []point, w, h float64) []point {
	edges := []struct {
		inside func(point) bool
		cross  func(a, b point) point
	}{
		{func(p point) bool { return p.x >= 0 }, func(a, b point) point { return lerpX(a, b, 0) }},
		{func(p point) bool { return p.x <= w }, func(a, b point) point { return lerpX(a, b, w) }},
		{func(p point) bool { return p.y >= 0 }, func(a, b point) point { return lerpY(a, b, 0) }},
		{func(p point) bool { return p.y <= h }, func(a, b point) point { return lerpY(a, b, h) }},
	}
	for _, e := range edges {
		if len(poly) == 0 {
			break
		}
		in := poly
		poly = make([]point, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && !e.inside(prev):
				poly = append(poly, e.cross(prev, cur), cur)
			case e.inside(cur):
				poly = append(poly, cur)
			case e.inside(prev):
				poly = append(poly, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return poly
}

func lerpX(a, b point, x float64) point {
	t := (x - a.x) / (b.x - a.x)
	return point{x: x, y: a.y + t*(b.y-a.y)}
}

func lerpY(a, b point, y float64) point {
	t := (y - a.y) / (b.y - a.y)
	return point{x: a.x + t*(b.x-a.x), y: y}
}

// fill writes col to every pixel of poly with coverage of at least one half.
func (c *Context) fill(poly []point, col glsl.Vec) {
	px := [4]uint8{0, 0, 0, 255}
	for i := range min(len(col), 4) {
		px[i] = unorm8(col[i])
	}

	w, h := c.DrawingBufferSize()
	c.rast.Reset(w, h)
	c.rast.DrawOp = draw.Src
	c.rast.MoveTo(float32(poly[0].x), float32(poly[0].y))
	for _, p := range poly[1:] {
		c.rast.LineTo(float32(p.x), float32(p.y))
	}
	c.rast.ClosePath()
	c.rast.Draw(c.mask, c.mask.Bounds(), image.Opaque, image.Point{})

	bounds := polyBounds(poly).Intersect(c.fb.Bounds())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if c.mask.Pix[c.mask.PixOffset(x, y)] < 0x80 {
				continue
			}
			i := c.fb.PixOffset(x, y)
			copy(c.fb.Pix[i:i+4], px[:])
		}
	}
}

func polyBounds(poly []point) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range poly {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
