// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

package webgl

import (
	"syscall/js"

	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/host"
)

// Window returns the browser window.
func Window() host.Window {
	return window{js.Global()}
}

type window struct{ v js.Value }

func (w window) Document() host.Document {
	doc := w.v.Get("document")
	if !present(doc) {
		return nil
	}
	return document{doc}
}

type document struct{ v js.Value }

func (d document) ElementByID(id string) host.Element {
	el := d.v.Call("getElementById", id)
	if !present(el) {
		return nil
	}
	if isCanvas(el) {
		return canvas{element{el}}
	}
	return element{el}
}

type element struct{ v js.Value }

func (e element) ID() string      { return e.v.Get("id").String() }
func (e element) TagName() string { return e.v.Get("tagName").String() }

type canvas struct{ element }

func (c canvas) Width() int  { return c.v.Get("width").Int() }
func (c canvas) Height() int { return c.v.Get("height").Int() }

func (c canvas) GetContext(contextType string) (any, error) {
	ctx, err := call(c.v, "getContext", contextType)
	if err != nil {
		return nil, err
	}
	if !present(ctx) {
		backend.Logger().Debug("webgl: context type not supported", "type", contextType)
		return nil, nil
	}
	return &Context{gl: ctx}, nil
}

func isCanvas(v js.Value) bool {
	ctor := js.Global().Get("HTMLCanvasElement")
	return present(ctor) && v.InstanceOf(ctor)
}

func present(v js.Value) bool {
	return !v.IsNull() && !v.IsUndefined()
}

// call invokes a method and turns a thrown JS exception into an error.
func call(v js.Value, method string, args ...any) (res js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			jsErr, ok := r.(js.Error)
			if !ok {
				panic(r)
			}
			err = jsErr
		}
	}()
	return v.Call(method, args...), nil
}
