// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

// Package native draws scenes on a GPU through the wgpu HAL. Shaders are
// written in WGSL and compiled to SPIR-V with naga.
//
// Importing the package registers it with the backend registry as
// "native", ahead of the software backend. The registry's Open falls back
// to lower priority backends when no GPU can be opened.
//
// Windows opened here own GPU memory and must be closed:
//
//	win, err := native.Open(backend.Options{Width: 640, Height: 480})
//	if err != nil {
//	    return err
//	}
//	defer win.Close()
package native

import (
	"errors"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/host"
	"github.com/webtri/webtri/host/memhost"
)

// Name is the registry name of this backend.
const Name = "native"

// ContextTypes lists the canvas context types served by a native window.
var ContextTypes = []string{"webgl", "experimental-webgl"}

func init() {
	backend.Register(Name, backend.PriorityGPU, openWindow, Available)
}

func openWindow(opts backend.Options) (host.Window, error) {
	w, err := Open(opts)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Option configures Open.
type Option func(*config)

type config struct {
	provider gpucontext.DeviceProvider
	device   *Device
}

// WithDeviceProvider renders on the device of a host application instead
// of opening one.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *config) { c.provider = p }
}

// WithDevice renders on dev. The window does not close it.
func WithDevice(dev *Device) Option {
	return func(c *config) { c.device = dev }
}

// Window is a memhost window whose canvas hands out GPU contexts.
type Window struct {
	*memhost.Window

	mu       sync.Mutex
	dev      *Device
	ownsDev  bool
	contexts []*Context
	closed   bool
}

// Open returns a window with one canvas backed by a GPU device. Without
// options a standalone Vulkan device is opened.
func Open(opts backend.Options, options ...Option) (*Window, error) {
	var cfg config
	for _, o := range options {
		o(&cfg)
	}

	dev, owns := cfg.device, false
	if dev == nil && cfg.provider != nil {
		d, err := DeviceFromProvider(cfg.provider)
		if err != nil {
			return nil, err
		}
		dev = d
	}
	if dev == nil {
		d, err := OpenDevice()
		if err != nil {
			return nil, err
		}
		dev, owns = d, true
	}

	opts = opts.WithDefaults()
	doc := memhost.NewDocument()
	w := &Window{Window: memhost.NewWindow(doc), dev: dev, ownsDev: owns}
	canvas := doc.AppendCanvas(opts.CanvasID, opts.Width, opts.Height)
	for _, typ := range ContextTypes {
		canvas.SetContextFactory(typ, w.newContext)
	}
	return w, nil
}

func (w *Window) newContext(c *memhost.Canvas) (any, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, errors.New("native: window closed")
	}
	ctx, err := NewContext(w.dev, c.Width(), c.Height())
	if err != nil {
		return nil, err
	}
	w.contexts = append(w.contexts, ctx)
	return ctx, nil
}

// Device returns the device the window renders on.
func (w *Window) Device() *Device { return w.dev }

// Close releases the contexts of the window and, when the window opened
// it, the device. It is safe to call more than once.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	for _, ctx := range w.contexts {
		ctx.Close()
	}
	w.contexts = nil
	if w.ownsDev {
		w.dev.Close()
	}
	return nil
}
