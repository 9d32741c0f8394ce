// Package webtri draws a single red triangle into a canvas through a
// WebGL-class rendering context.
//
// # Overview
//
// A [Scene] is created from a host window: it finds the canvas element
// (id "canvas" by default), asks it for a "webgl" context and keeps that
// context for its whole life. [Scene.Draw] compiles a pass-through vertex
// shader and a solid red fragment shader, uploads three vertices, clears
// the canvas to opaque black and draws one triangle.
//
// # Quick Start
//
//	import (
//	    "github.com/webtri/webtri"
//	    "github.com/webtri/webtri/backend"
//	    _ "github.com/webtri/webtri/backend/software"
//	)
//
//	win, err := backend.Open(backend.Options{Width: 256, Height: 256})
//	scene, err := webtri.New(win)
//	err = scene.Draw()
//	img, err := scene.Snapshot()
//
// # Hosts and backends
//
// The host environment is injected through the interfaces of package host,
// so the same Scene runs against:
//   - the browser, through backend/webgl (GOOS=js GOARCH=wasm)
//   - a CPU reference implementation, backend/software
//   - a GPU through the wgpu HAL, backend/native, which consumes WGSL
//
// The scene picks the shader pair matching the context's shading language.
//
// # Errors
//
// Failures are typed: [InitError] from New, [ShaderCompileError],
// [LinkError] and [BufferError] from Draw. Match them with errors.As.
//
// # Logging
//
// webtri is silent by default. Call [SetLogger] to enable structured
// logging through log/slog; the setting is shared with the backends.
package webtri
