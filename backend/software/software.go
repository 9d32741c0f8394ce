// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

// Package software is a CPU reference backend. It interprets the GLSL ES
// subset accepted by internal/glsl and rasterizes triangles into an
// image.RGBA, so scenes can be drawn and inspected without a browser or a
// GPU.
//
// Importing the package registers it with the backend registry as
// "software".
package software

import (
	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/host"
	"github.com/webtri/webtri/host/memhost"
)

// Name is the registry name of this backend.
const Name = "software"

// ContextTypes lists the canvas context types served by Attach.
var ContextTypes = []string{"webgl", "experimental-webgl"}

func init() {
	backend.Register(Name, backend.PrioritySoftware, Open, nil)
}

// Open returns a window with one canvas whose WebGL contexts are software
// contexts.
func Open(opts backend.Options) (host.Window, error) {
	opts = opts.WithDefaults()
	doc := memhost.NewDocument()
	Attach(doc.AppendCanvas(opts.CanvasID, opts.Width, opts.Height))
	return memhost.NewWindow(doc), nil
}

// Attach makes c hand out software contexts sized to the canvas.
func Attach(c *memhost.Canvas) {
	for _, typ := range ContextTypes {
		c.SetContextFactory(typ, newContext)
	}
}

func newContext(c *memhost.Canvas) (any, error) {
	return NewContext(c.Width(), c.Height()), nil
}
