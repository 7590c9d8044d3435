/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log is the slog front-end shared by the CLI, the UI shell and the
// backend. Init assembles the handler stack once (console, plus an optional
// rotating JSON file) and installs it as slog's process default; helpers hand
// out loggers pre-tagged with component and operation attributes.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gositeplan/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, output format and an optional rotated log file.
// The matching environment variables are:
//   - GSP_LOG_LEVEL=debug|info|warn|error
//   - GSP_LOG_FORMAT=console|json
//   - GSP_LOG_FILE=<path> (enables rotated file logging)
//   - GSP_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string
}

var current atomic.Pointer[slog.Logger]

// FromEnv reads Options from the GSP_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     envOr("GSP_LOG_LEVEL", "info"),
		Format:    envOr("GSP_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(envOr("GSP_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("GSP_LOG_FILE"),
	}
}

// Init builds the handler stack and replaces both the package logger and
// slog's default. Safe to call more than once; the last call wins.
func Init(opts Options) {
	min := levelOf(opts.Level)

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: min, AddSource: opts.AddSource})
	} else {
		console = &consoleHandler{min: min, src: opts.AddSource, out: os.Stderr}
	}

	h := console
	if f := strings.TrimSpace(opts.File); f != "" {
		rot := &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		h = tee(console, slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: min, AddSource: opts.AddSource}))
	}

	l := slog.New(h).With(
		slog.String("app", "gositeplan"),
		slog.String("ver", version.Version),
		slog.Int("pid", os.Getpid()),
	)
	current.Store(l)
	slog.SetDefault(l)
}

// L returns the process logger, initializing from the environment on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// WithComponent tags a logger for one subsystem ("storage", "scene", "ui").
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with the operation it is about to run.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func levelOf(s string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// tee duplicates records across handlers. Enabled is the OR of the parts so
// a quiet console does not silence a verbose file.
func tee(hs ...slog.Handler) slog.Handler { return teeHandler(hs) }

type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range t {
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithGroup(name)
	}
	return next
}

// consoleHandler prints one line per record: ts LVL msg key=val ...
// Open groups turn into dotted key prefixes.
type consoleHandler struct {
	min    slog.Leveler
	src    bool
	out    io.Writer
	base   []slog.Attr // accumulated WithAttrs, keys already prefixed
	prefix string
}

func (h *consoleHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	min := slog.LevelInfo
	if h.min != nil {
		min = h.min.Level()
	}
	return lvl >= min
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf := make([]byte, 0, 256)
	buf = ts.AppendFormat(buf, time.RFC3339)
	buf = append(buf, ' ')
	buf = append(buf, levelTag(r.Level)...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	for _, a := range h.base {
		buf = appendAttr(buf, a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, h.prefix+a.Key, a.Value)
		return true
	})
	if h.src && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if f.File != "" {
			buf = append(buf, " src="...)
			buf = append(buf, f.File...)
			buf = append(buf, ':')
			buf = strconv.AppendInt(buf, int64(f.Line), 10)
		}
	}
	buf = append(buf, '\n')
	_, err := h.out.Write(buf)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.base = append(c.base, a)
	}
	return c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	c := h.clone()
	c.prefix += name + "."
	return c
}

func (h *consoleHandler) clone() *consoleHandler {
	return &consoleHandler{
		min:    h.min,
		src:    h.src,
		out:    h.out,
		base:   append([]slog.Attr(nil), h.base...),
		prefix: h.prefix,
	}
}

func appendAttr(buf []byte, key string, v slog.Value) []byte {
	buf = append(buf, ' ')
	buf = append(buf, key...)
	buf = append(buf, '=')
	return append(buf, flatValue(v)...)
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERR"
	case l >= slog.LevelWarn:
		return "WRN"
	case l >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}

func flatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.String()
	}
}
