// Package static embeds the page that loads the webtri wasm build.
package static

import "embed"

// FS holds index.html and main.js.
//
//go:embed index.html main.js
var FS embed.FS
