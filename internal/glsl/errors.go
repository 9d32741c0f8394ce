package glsl

import (
	"fmt"
	"strings"
)

// Diagnostic is one entry of an info log. Line is zero for link errors.
type Diagnostic struct {
	Line int
	Msg  string
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return "ERROR: " + d.Msg
	}
	return fmt.Sprintf("ERROR: 0:%d: %s", d.Line, d.Msg)
}

// Error is returned by Compile and Link.
type Error struct {
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "glsl: unknown error"
	case 1:
		return "glsl: " + e.Diagnostics[0].String()
	}
	return fmt.Sprintf("glsl: %s (and %d more errors)", e.Diagnostics[0], len(e.Diagnostics)-1)
}

// Log returns the diagnostics one per line, as an info log.
func (e *Error) Log() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
