// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

// Package host describes the display environment a scene draws into.
//
// The interfaces mirror the browser objects the scene needs (window,
// document, element, canvas) so the scene can be handed either the real
// browser (backend/webgl) or an in-memory document (host/memhost).
package host

// Window is the top-level host object.
type Window interface {
	// Document returns the active document, or nil if there is none.
	Document() Document
}

// Document holds the elements of a page.
type Document interface {
	// ElementByID returns the element with the given id, or nil.
	ElementByID(id string) Element
}

// Element is any node of a document.
type Element interface {
	// ID returns the element identifier.
	ID() string

	// TagName returns the element tag in upper case, as the DOM does.
	TagName() string
}

// Canvas is an element that can hand out rendering contexts.
type Canvas interface {
	Element

	// Width and Height return the drawing buffer size in pixels.
	Width() int
	Height() int

	// GetContext returns a rendering context of the given type
	// ("webgl", "experimental-webgl", ...). A nil context with a nil error
	// means the type is not supported, as in the DOM.
	GetContext(contextType string) (any, error)
}
