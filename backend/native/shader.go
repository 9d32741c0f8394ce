// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package native

import (
	"encoding/binary"
	"fmt"
	"regexp"

	"github.com/gogpu/naga"
)

var (
	vertexEntry   = regexp.MustCompile(`@vertex\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
	fragmentEntry = regexp.MustCompile(`@fragment\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// compiledShader is a WGSL module translated to SPIR-V.
type compiledShader struct {
	spirv []uint32
	entry string
}

// compileWGSL translates source with naga and finds the entry point of the
// requested stage. The error text is used as the shader info log.
func compileWGSL(source string, fragment bool) (*compiledShader, error) {
	re, stage := vertexEntry, "@vertex"
	if fragment {
		re, stage = fragmentEntry, "@fragment"
	}
	m := re.FindStringSubmatch(source)
	if m == nil {
		return nil, fmt.Errorf("no %s entry point", stage)
	}

	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V output is %d bytes, not a whole number of words", len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return &compiledShader{spirv: words, entry: m[1]}, nil
}
