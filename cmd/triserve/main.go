// Command triserve serves the webtri page and its wasm build for local
// development.
//
// Build the wasm module and copy the Go runtime shim next to it:
//
//	GOOS=js GOARCH=wasm go build -o build/main.wasm ./cmd/triwasm
//	cp "$(go env GOROOT)/lib/wasm/wasm_exec.js" build/
//	triserve -wasm build
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/webtri/webtri/static"
)

func main() {
	var (
		addr    = flag.String("addr", ":8080", "listen address")
		wasmDir = flag.String("wasm", "build", "directory holding main.wasm and wasm_exec.js")
		verbose = flag.Bool("v", false, "log every request")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newServer(log).router(static.FS, os.DirFS(*wasmDir)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Starting HTTP server", "addr", *addr, "wasm", *wasmDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
