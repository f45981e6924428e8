// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the structured logger shared by every package.
// Loggers created with WithContext at package init keep following the root
// handler, so the handler can be replaced once flags are parsed.
package log

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	ethlog "github.com/ethereum/go-ethereum/log"
)

type Logger = ethlog.Logger

const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

var root = newSwapHandler(ethlog.DiscardHandler())

func init() {
	ethlog.SetDefault(ethlog.NewLogger(root))
}

// SetHandler replaces the handler behind every logger.
func SetHandler(h slog.Handler) {
	root.inner.Store(&h)
}

// Root returns the root logger.
func Root() Logger {
	return ethlog.NewLogger(root)
}

// WithContext returns a logger carrying the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// NewTerminalHandler returns a human readable handler filtered by lvl.
// Changes to lvl apply to loggers already created.
func NewTerminalHandler(w io.Writer, lvl *slog.LevelVar, useColor bool) slog.Handler {
	return &levelHandler{ethlog.NewTerminalHandlerWithLevel(w, LevelTrace, useColor), lvl}
}

// NewJSONHandler returns a json handler filtered by lvl.
func NewJSONHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &levelHandler{ethlog.JSONHandlerWithLevel(w, LevelTrace), lvl}
}

// levelHandler filters records by a level that may change at runtime.
type levelHandler struct {
	inner slog.Handler
	lvl   *slog.LevelVar
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.lvl.Level() && h.inner.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.lvl.Level() {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{h.inner.WithAttrs(attrs), h.lvl}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{h.inner.WithGroup(name), h.lvl}
}

// FromVerbosity maps the 0 (crit) .. 5 (trace) verbosity flag onto a level.
func FromVerbosity(v int) slog.Level {
	return ethlog.FromLegacyLevel(v)
}

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }

type swapHandler struct {
	inner *atomic.Pointer[slog.Handler]
	attrs []slog.Attr
}

func newSwapHandler(h slog.Handler) *swapHandler {
	s := &swapHandler{inner: new(atomic.Pointer[slog.Handler])}
	s.inner.Store(&h)
	return s
}

func (s *swapHandler) current() slog.Handler {
	h := *s.inner.Load()
	if len(s.attrs) > 0 {
		return h.WithAttrs(s.attrs)
	}
	return h
}

func (s *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*s.inner.Load()).Enabled(ctx, level)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.current().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	merged = append(merged, s.attrs...)
	merged = append(merged, attrs...)
	return &swapHandler{inner: s.inner, attrs: merged}
}

// WithGroup is not supported, records stay flat.
func (s *swapHandler) WithGroup(string) slog.Handler {
	return s
}
