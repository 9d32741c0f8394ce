//go:build js && wasm

// Command triwasm is the browser entry point. It exposes a global
// webtri object to JavaScript:
//
//	const scene = webtri.newScene();
//	scene.draw();
//
// newScene and draw throw a JavaScript Error on failure.
package main

import (
	"log/slog"
	"syscall/js"

	"github.com/webtri/webtri"
	"github.com/webtri/webtri/backend/webgl"
)

func main() {
	if js.Global().Get("webtriDebug").Truthy() {
		webtri.SetLogger(slog.Default())
	}

	api := js.Global().Get("Object").New()
	api.Set("newScene", throwing(newScene))
	js.Global().Set("webtri", api)
	slog.Info("webtri: wasm ready")

	select {}
}

func newScene(this js.Value, args []js.Value) any {
	scene, err := webtri.New(webgl.Window())
	if err != nil {
		return jsError(err)
	}
	obj := js.Global().Get("Object").New()
	obj.Set("draw", throwing(func(this js.Value, args []js.Value) any {
		if err := scene.Draw(); err != nil {
			return jsError(err)
		}
		return js.Undefined()
	}))
	return obj
}

// rethrow wraps a function so that an Error it returns is thrown. Go
// callbacks cannot throw into JavaScript themselves.
var rethrow = js.Global().Get("Function").New("f",
	"return function(...args) { const r = f.apply(this, args); if (r instanceof Error) { throw r; } return r; };")

func throwing(fn func(this js.Value, args []js.Value) any) js.Value {
	return rethrow.Invoke(js.FuncOf(fn))
}

func jsError(err error) js.Value {
	return js.Global().Get("Error").New(err.Error())
}
