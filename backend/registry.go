// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

// Package backend keeps a registry of rendering backends.
//
// A backend produces a host window holding one canvas whose "webgl"
// context is implemented by that backend. Backends register themselves
// from init, so importing a backend package is enough to make it
// selectable:
//
//	import _ "github.com/webtri/webtri/backend/software"
//
//	w, err := backend.Open(backend.Options{Width: 640, Height: 480})
//	scene, err := webtri.New(w)
package backend

import (
	"errors"
	"sort"
	"sync"

	"github.com/webtri/webtri/host"
)

// Standard priorities.
const (
	PriorityGPU      = 100
	PrioritySoftware = 10
)

// DefaultCanvasID is the canvas id used when Options.CanvasID is empty.
const DefaultCanvasID = "canvas"

// Options configures the host a backend creates.
type Options struct {
	Width    int
	Height   int
	CanvasID string
}

func (o Options) canvasID() string {
	if o.CanvasID == "" {
		return DefaultCanvasID
	}
	return o.CanvasID
}

// WithDefaults returns o with an empty CanvasID replaced by DefaultCanvasID.
func (o Options) WithDefaults() Options {
	o.CanvasID = o.canvasID()
	return o
}

// Factory creates a window whose canvas renders with the backend. A window
// holding resources beyond garbage collection also implements io.Closer.
type Factory func(opts Options) (host.Window, error)

// Entry describes a registered backend.
type Entry struct {
	Name string

	// Priority orders automatic selection, higher first.
	Priority int

	Factory Factory

	// Available reports whether the backend can run on this system.
	Available func() bool
}

var defaultRegistry = &Registry{}

// Registry holds named backends.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry returns an empty registry. Most callers use the package
// level functions, which operate on the default registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds a backend to the default registry. A nil available means
// always available. Registering an existing name replaces it.
func Register(name string, priority int, factory Factory, available func() bool) {
	defaultRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the default registry.
func Unregister(name string) { defaultRegistry.Unregister(name) }

// List returns the registered backend names, highest priority first.
func List() []string { return defaultRegistry.List() }

// Available returns the names of the backends that can run here.
func Available() []string { return defaultRegistry.Available() }

// Get returns a copy of the named entry.
func Get(name string) (*Entry, bool) { return defaultRegistry.Get(name) }

// Open creates a host with the best available backend.
func Open(opts Options) (host.Window, error) { return defaultRegistry.Open(opts) }

// OpenByName creates a host with the named backend.
func OpenByName(name string, opts Options) (host.Window, error) {
	return defaultRegistry.OpenByName(name, opts)
}

// Register adds a backend to r.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*Entry)
	}
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &Entry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from r.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns the registered backend names, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Available returns the names of the backends that can run here.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(true)
}

// Get returns a copy of the named entry.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	c := *e
	return &c, true
}

// Open tries the available backends in priority order and returns the
// first host that could be created.
func (r *Registry) Open(opts Options) (host.Window, error) {
	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	if len(names) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var errs []error
	for _, name := range names {
		w, err := r.OpenByName(name, opts)
		if err == nil {
			return w, nil
		}
		Logger().Debug("backend: open failed", "backend", name, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// OpenByName creates a host with the named backend.
func (r *Registry) OpenByName(name string, opts Options) (host.Window, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	if !e.Available() {
		return nil, &UnavailableError{Name: name}
	}
	w, err := e.Factory(opts.WithDefaults())
	if err != nil {
		return nil, &OpenError{Name: name, Err: err}
	}
	Logger().Debug("backend: opened", "backend", name, "width", opts.Width, "height", opts.Height)
	return w, nil
}

// sortedNames must be called with r.mu held. Ties are broken by name.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// ErrNoBackendAvailable is returned by Open when nothing can run.
var ErrNoBackendAvailable = errors.New("backend: no backend available")

// NotFoundError reports an unregistered backend name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "backend: not found: " + e.Name
}

// UnavailableError reports a registered backend that cannot run here.
type UnavailableError struct {
	Name string
}

func (e *UnavailableError) Error() string {
	return "backend: unavailable: " + e.Name
}

// OpenError wraps a factory failure.
type OpenError struct {
	Name string
	Err  error
}

func (e *OpenError) Error() string {
	return "backend: " + e.Name + ": " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }
