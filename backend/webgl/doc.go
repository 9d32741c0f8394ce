// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

// Package webgl binds a scene to the browser through syscall/js.
//
// Window returns the page's window as a host.Window; canvases found in it
// hand out the browser's own WebGL rendering contexts:
//
//	scene, err := webtri.New(webgl.Window())
//
// The package only does work when built for js/wasm.
package webgl
