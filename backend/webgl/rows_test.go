// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package webgl

import (
	"bytes"
	"testing"
)

func TestFlipRows(t *testing.T) {
	tests := []struct {
		name   string
		pix    []byte
		stride int
		height int
		want   []byte
	}{
		{"empty", nil, 4, 0, nil},
		{"one row", []byte{1, 2}, 2, 1, []byte{1, 2}},
		{"even", []byte{1, 1, 2, 2, 3, 3, 4, 4}, 2, 4, []byte{4, 4, 3, 3, 2, 2, 1, 1}},
		{"odd", []byte{1, 2, 3}, 1, 3, []byte{3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flipRows(tt.pix, tt.stride, tt.height)
			if !bytes.Equal(tt.pix, tt.want) {
				t.Errorf("got %v, want %v", tt.pix, tt.want)
			}
		})
	}
}
