// Command trirender draws the red triangle headlessly and saves it as PNG.
//
// Usage:
//
//	trirender [-backend name] [-width 640] [-height 480] [-output triangle.png] [-v]
//
// Without -backend the highest priority available backend is used, falling
// back to the software rasterizer when no GPU can be opened.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/webtri/webtri"
	"github.com/webtri/webtri/backend"
	"github.com/webtri/webtri/host"

	_ "github.com/webtri/webtri/backend/native"
	_ "github.com/webtri/webtri/backend/software"
)

func main() {
	var (
		name    = flag.String("backend", "", "backend to use ("+strings.Join(backend.List(), ", ")+"); empty picks the best available")
		width   = flag.Int("width", 640, "canvas width")
		height  = flag.Int("height", 480, "canvas height")
		output  = flag.String("output", "triangle.png", "output file")
		verbose = flag.Bool("v", false, "log backend and draw details")
	)
	flag.Parse()

	if *verbose {
		webtri.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(*name, *width, *height, *output); err != nil {
		log.Fatalf("trirender: %v", err)
	}
	log.Printf("Triangle saved to %s (%dx%d)\n", *output, *width, *height)
}

func run(name string, width, height int, output string) error {
	opts := backend.Options{Width: width, Height: height}
	var (
		win host.Window
		err error
	)
	if name == "" {
		win, err = backend.Open(opts)
	} else {
		win, err = backend.OpenByName(name, opts)
	}
	if err != nil {
		return err
	}
	if c, ok := win.(io.Closer); ok {
		defer c.Close()
	}

	scene, err := webtri.New(win)
	if err != nil {
		return err
	}
	if err := scene.Draw(); err != nil {
		return err
	}
	img, err := scene.Snapshot()
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", output, err)
	}
	return f.Close()
}
