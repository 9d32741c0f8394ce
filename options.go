package webtri

// DefaultCanvasID is the id of the canvas element a Scene draws into.
const DefaultCanvasID = "canvas"

// DefaultContextType is the rendering context requested from the canvas.
const DefaultContextType = "webgl"

// Option configures a Scene during creation.
//
// Example:
//
//	scene, err := webtri.New(win,
//	    webtri.WithCanvasID("stage"),
//	    webtri.WithContextType("experimental-webgl"))
type Option func(*options)

type options struct {
	canvasID    string
	contextType string
	shaders     Shaders
}

func defaultOptions() options {
	return options{
		canvasID:    DefaultCanvasID,
		contextType: DefaultContextType,
		shaders:     DefaultShaders(),
	}
}

// WithCanvasID selects the canvas element by id.
func WithCanvasID(id string) Option {
	return func(o *options) {
		o.canvasID = id
	}
}

// WithContextType sets the context type passed to getContext, for example
// "experimental-webgl" on older browsers.
func WithContextType(typ string) Option {
	return func(o *options) {
		o.contextType = typ
	}
}

// WithShaders replaces the built-in shader sources. Draw fails with
// ErrNoShaderSource on a context whose language is left empty.
func WithShaders(s Shaders) Option {
	return func(o *options) {
		o.shaders = s
	}
}
