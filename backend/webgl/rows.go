// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package webgl

// flipRows reverses the row order of an image of height rows of stride
// bytes. readPixels returns rows bottom to top.
func flipRows(pix []byte, stride, height int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
