// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

// Package memhost provides an in-memory host: a window, a document and
// canvas elements whose rendering contexts come from registered factories.
//
// It stands in for the browser wherever a scene runs outside of it:
// headless rendering, tests, and native GPU backends.
//
// Example:
//
//	doc := memhost.NewDocument()
//	c := doc.AppendCanvas("canvas", 640, 480)
//	c.SetContextFactory("webgl", func(c *memhost.Canvas) (any, error) {
//	    return software.NewContext(c.Width(), c.Height()), nil
//	})
//	scene, err := webtri.New(memhost.NewWindow(doc))
package memhost

import (
	"strings"

	"github.com/webtri/webtri/host"
)

// ContextFactory creates the rendering context of a canvas.
type ContextFactory func(c *Canvas) (any, error)

// Window is an in-memory host.Window.
type Window struct {
	doc *Document
}

var _ host.Window = (*Window)(nil)

// NewWindow returns a window showing doc. A nil doc yields a window without
// an active document.
func NewWindow(doc *Document) *Window {
	return &Window{doc: doc}
}

// Document implements host.Window.
func (w *Window) Document() host.Document {
	if w == nil || w.doc == nil {
		return nil
	}
	return w.doc
}

// Document is an in-memory host.Document keyed by element id. The zero
// value is an empty document.
type Document struct {
	elements map[string]host.Element
}

var _ host.Document = (*Document)(nil)

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{elements: make(map[string]host.Element)}
}

// ElementByID implements host.Document.
func (d *Document) ElementByID(id string) host.Element {
	el, ok := d.elements[id]
	if !ok {
		return nil
	}
	return el
}

// Append adds el to the document, replacing any element with the same id.
func (d *Document) Append(el host.Element) {
	if d.elements == nil {
		d.elements = make(map[string]host.Element)
	}
	d.elements[el.ID()] = el
}

// Remove deletes the element with the given id.
func (d *Document) Remove(id string) {
	delete(d.elements, id)
}

// AppendElement adds a plain element with the given tag.
func (d *Document) AppendElement(id, tag string) *Element {
	el := &Element{id: id, tag: strings.ToUpper(tag)}
	d.Append(el)
	return el
}

// AppendCanvas adds a canvas of the given size. Sizes below one pixel are
// clamped to one.
func (d *Document) AppendCanvas(id string, width, height int) *Canvas {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	c := &Canvas{
		Element:   Element{id: id, tag: "CANVAS"},
		width:     width,
		height:    height,
		factories: make(map[string]ContextFactory),
	}
	d.Append(c)
	return c
}

// Element is a plain document element.
type Element struct {
	id  string
	tag string
}

var _ host.Element = (*Element)(nil)

// ID implements host.Element.
func (e *Element) ID() string { return e.id }

// TagName implements host.Element.
func (e *Element) TagName() string { return e.tag }

// Canvas is an in-memory canvas element.
type Canvas struct {
	Element

	width     int
	height    int
	factories map[string]ContextFactory

	// The first context created fixes the canvas mode, as in the DOM.
	ctxType string
	ctx     any
}

var _ host.Canvas = (*Canvas)(nil)

// Width implements host.Canvas.
func (c *Canvas) Width() int { return c.width }

// Height implements host.Canvas.
func (c *Canvas) Height() int { return c.height }

// SetContextFactory registers the factory used for contextType.
func (c *Canvas) SetContextFactory(contextType string, f ContextFactory) {
	if c.factories == nil {
		c.factories = make(map[string]ContextFactory)
	}
	c.factories[contextType] = f
}

// GetContext implements host.Canvas. Repeated calls with the same type
// return the same context; asking for a different type once a context
// exists returns nil.
func (c *Canvas) GetContext(contextType string) (any, error) {
	if c.ctx != nil {
		if contextType == c.ctxType {
			return c.ctx, nil
		}
		return nil, nil
	}
	f, ok := c.factories[contextType]
	if !ok {
		return nil, nil
	}
	ctx, err := f(c)
	if err != nil || ctx == nil {
		return nil, err
	}
	c.ctxType = contextType
	c.ctx = ctx
	return ctx, nil
}
