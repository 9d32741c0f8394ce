package webtri

import (
	"fmt"
	"image"

	"github.com/webtri/webtri/gl"
	"github.com/webtri/webtri/host"
)

// Scene owns the rendering context of one canvas and draws the triangle
// into it. A Scene is not safe for concurrent use.
type Scene struct {
	ctx     gl.Context
	shaders Shaders
}

// New looks up the canvas in win and acquires its rendering context. Every
// failure is an *InitError.
func New(win host.Window, opts ...Option) (*Scene, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if win == nil {
		return nil, &InitError{Msg: "can't get window"}
	}
	doc := win.Document()
	if doc == nil {
		return nil, &InitError{Msg: "can't get document"}
	}
	el := doc.ElementByID(o.canvasID)
	if el == nil {
		return nil, &InitError{Msg: "can't get canvas element"}
	}
	canvas, ok := el.(host.Canvas)
	if !ok {
		return nil, &InitError{Msg: "can't cast element to canvas"}
	}
	raw, err := canvas.GetContext(o.contextType)
	if err != nil || raw == nil {
		return nil, &InitError{Msg: "can't get webgl context", Err: err}
	}
	ctx, ok := raw.(gl.Context)
	if !ok {
		return nil, &InitError{Msg: "can't cast context to rendering context"}
	}

	Logger().Debug("webtri: context acquired",
		"canvas", o.canvasID,
		"type", o.contextType,
		"language", ctx.ShadingLanguage(),
		"width", canvas.Width(),
		"height", canvas.Height())

	return &Scene{ctx: ctx, shaders: o.shaders}, nil
}

// Context returns the rendering context owned by the scene.
func (s *Scene) Context() gl.Context { return s.ctx }

// Draw compiles the shaders, uploads the triangle, clears the canvas to
// opaque black and draws. Every object created here is deleted before Draw
// returns, whether it succeeds or not.
func (s *Scene) Draw() error {
	ctx := s.ctx
	lang := ctx.ShadingLanguage()
	src, ok := s.shaders.For(lang)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoShaderSource, lang)
	}

	vs, err := compileShader(ctx, gl.VertexShader, src.Vertex)
	if err != nil {
		return err
	}
	defer ctx.DeleteShader(vs)

	fs, err := compileShader(ctx, gl.FragmentShader, src.Fragment)
	if err != nil {
		return err
	}
	defer ctx.DeleteShader(fs)

	prog, err := linkProgram(ctx, vs, fs, s.shaders.Attribute)
	if err != nil {
		return err
	}
	defer ctx.DeleteProgram(prog)
	ctx.UseProgram(prog)

	buf := ctx.CreateBuffer()
	if buf == nil {
		return &BufferError{Msg: "failed to create buffer"}
	}
	defer ctx.DeleteBuffer(buf)

	ctx.BindBuffer(gl.ArrayBuffer, buf)
	ctx.BufferData(gl.ArrayBuffer, vertexData(), gl.StaticDraw)
	ctx.VertexAttribPointer(0, 3, gl.Float, false, 0, 0)
	ctx.EnableVertexAttribArray(0)

	ctx.ClearColor(0, 0, 0, 1)
	ctx.Clear(gl.ColorBufferBit)
	ctx.DrawArrays(gl.Triangles, 0, VertexCount)

	if e := ctx.GetError(); e != gl.NoError {
		Logger().Warn("webtri: draw raised a gl error", "err", e)
	}
	Logger().Debug("webtri: triangle drawn", "language", lang, "vertices", VertexCount)
	return nil
}

// Snapshot reads the drawing buffer back, rows top to bottom. It returns
// ErrNoReadback when the context cannot do so.
func (s *Scene) Snapshot() (*image.RGBA, error) {
	pr, ok := s.ctx.(gl.PixelReader)
	if !ok {
		return nil, ErrNoReadback
	}
	w, h := pr.DrawingBufferSize()
	return pr.ReadPixels(0, 0, w, h)
}

func compileShader(ctx gl.Context, stage gl.Enum, source string) (gl.Shader, error) {
	sh := ctx.CreateShader(stage)
	if sh == nil {
		return nil, &ShaderCompileError{Stage: stage, Log: "unable to create shader object"}
	}
	ctx.ShaderSource(sh, source)
	ctx.CompileShader(sh)

	if ok, _ := ctx.GetShaderParameter(sh, gl.CompileStatus).(bool); ok {
		return sh, nil
	}
	log, ok := ctx.GetShaderInfoLog(sh)
	if !ok || log == "" {
		log = "unknown error creating shader"
	}
	ctx.DeleteShader(sh)
	return nil, &ShaderCompileError{Stage: stage, Log: log}
}

func linkProgram(ctx gl.Context, vs, fs gl.Shader, attribute string) (gl.Program, error) {
	prog := ctx.CreateProgram()
	if prog == nil {
		return nil, &LinkError{Log: "unable to create program object"}
	}
	ctx.AttachShader(prog, vs)
	ctx.AttachShader(prog, fs)
	if attribute != "" {
		ctx.BindAttribLocation(prog, 0, attribute)
	}
	ctx.LinkProgram(prog)

	if ok, _ := ctx.GetProgramParameter(prog, gl.LinkStatus).(bool); ok {
		return prog, nil
	}
	log, ok := ctx.GetProgramInfoLog(prog)
	if !ok || log == "" {
		log = "unknown error creating program object"
	}
	ctx.DeleteProgram(prog)
	return nil, &LinkError{Log: log}
}
