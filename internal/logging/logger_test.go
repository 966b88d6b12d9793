// logger_test.go

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

package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMerrony/tellopath/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestJSONFormatAddsDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, nil, config.LoggingConfig{Level: "info", Format: "json"}, "1.2.3")

	logger.Info("taking off", "step", 0)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "taking off", rec["msg"])
	assert.Equal(t, "tellopath", rec["service"])
	assert.Equal(t, "1.2.3", rec["version"])
	assert.Equal(t, float64(0), rec["step"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, nil, config.LoggingConfig{Level: "warn", Format: "text"}, "dev")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestWithKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, nil, config.LoggingConfig{Format: "text"}, "dev").With("component", "tello")

	logger.Info("connected")

	assert.Contains(t, buf.String(), "component=tello")
	assert.NoError(t, logger.Close())
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.log")
	logger := New(config.LoggingConfig{
		Level:  "debug",
		Output: "file",
		File:   config.FileLoggingConfig{Path: path, MaxSize: 1},
	}, "dev")

	logger.Debug("searching", "remaining", 3)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "remaining=3")
}

type prefixWriter struct {
	prefix string
	w      io.Writer
}

func (p prefixWriter) Write(b []byte) (int, error) {
	if _, err := p.w.Write(append([]byte(p.prefix), b...)); err != nil {
		return 0, err
	}
	return len(b), nil
}

func TestWrapTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := newTerminalLogger(&buf, config.LoggingConfig{Format: "text"}, "dev")
	child := logger.With("component", "flightpath")

	logger.WrapTerminal(func(w io.Writer) io.Writer { return prefixWriter{prefix: ">", w: w} })
	child.Info("manual control")

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(">time=")), buf.String())
	assert.Contains(t, buf.String(), "component=flightpath")
}

func TestWrapTerminalLeavesFilesAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.log")
	logger := New(config.LoggingConfig{Output: "file", File: config.FileLoggingConfig{Path: path, MaxSize: 1}}, "dev")

	logger.WrapTerminal(func(w io.Writer) io.Writer { return prefixWriter{prefix: ">", w: w} })
	logger.Info("landed")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("time=")), string(data))
}
