// logger.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package logging builds the application's slog logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/SMerrony/tellopath/internal/config"
)

// Logger wraps slog.Logger together with whatever it writes to.
// All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
	closer   io.Closer
	terminal *terminalWriter // nil unless logging to stdout or stderr
}

// terminalWriter lets the terminal output be rewrapped after the handler is built.
type terminalWriter struct {
	mu   sync.Mutex
	base io.Writer
	w    io.Writer
}

func (t *terminalWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Write(p)
}

// New creates a Logger for cfg, tagging every record with the service name and version.
//
// Output "file" writes to a size-rotated file; "stdout" and "stderr" write to the terminal.
// The format is text unless cfg.Format is "json".
func New(cfg config.LoggingConfig, version string) *Logger {
	var (
		output io.Writer
		closer io.Closer
	)
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return newTerminalLogger(os.Stdout, cfg, version)
	case "file":
		rotating := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
		output, closer = rotating, rotating
	default:
		return newTerminalLogger(os.Stderr, cfg, version)
	}
	return newLogger(output, closer, cfg, version)
}

func newTerminalLogger(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	terminal := &terminalWriter{base: w, w: w}
	l := newLogger(terminal, nil, cfg, version)
	l.terminal = terminal
	return l
}

func newLogger(output io.Writer, closer io.Closer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "tellopath"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler), closer: closer}
}

// ParseLevel converts debug, info, warn or error to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger with additional default attributes, sharing the same output.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), closer: l.closer, terminal: l.terminal}
}

// WrapTerminal routes terminal output through wrap(output), eg. to fix line endings while
// the terminal is in raw mode. File output is left alone.
func (l *Logger) WrapTerminal(wrap func(io.Writer) io.Writer) {
	if l.terminal == nil {
		return
	}
	l.terminal.mu.Lock()
	l.terminal.w = wrap(l.terminal.base)
	l.terminal.mu.Unlock()
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Default is used before the configuration has been read: text at info level on stderr.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "text", Output: "stderr"}, "dev")
}
