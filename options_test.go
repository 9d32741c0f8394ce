package webtri

import "testing"

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.canvasID != "canvas" {
		t.Errorf("canvasID = %q, want canvas", o.canvasID)
	}
	if o.contextType != "webgl" {
		t.Errorf("contextType = %q, want webgl", o.contextType)
	}
	if o.shaders != DefaultShaders() {
		t.Error("default shaders differ from DefaultShaders()")
	}
}

func TestOptionsApply(t *testing.T) {
	custom := Shaders{Attribute: "pos"}
	o := defaultOptions()
	for _, opt := range []Option{
		WithCanvasID("stage"),
		WithContextType("experimental-webgl"),
		WithShaders(custom),
	} {
		opt(&o)
	}
	if o.canvasID != "stage" || o.contextType != "experimental-webgl" {
		t.Errorf("options = %+v", o)
	}
	if o.shaders != custom {
		t.Errorf("shaders = %+v, want %+v", o.shaders, custom)
	}
}
