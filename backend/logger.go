// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all records and reports every level disabled, so
// callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger sets the logger shared by the registry and the backend
// implementations. Nil restores the silent default. webtri.SetLogger calls
// it, so applications rarely need to.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the backend logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
