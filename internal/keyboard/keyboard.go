// keyboard.go

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

// Package keyboard turns a raw-mode terminal into a flightpath.Input.
//
// Terminals report key presses only, repeating them while a key is held. A key is
// reported down on its first byte and up once it has not repeated for the release
// delay, which should be a little longer than the terminal's auto-repeat interval.
package keyboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/SMerrony/tellopath/flightpath"
)

// ErrNotTerminal is returned by Open when standard input is not a terminal.
var ErrNotTerminal = errors.New("keyboard: stdin is not a terminal")

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

// Keyboard reads keys from a terminal. Its Poll method never blocks.
type Keyboard struct {
	in      io.Reader
	restore func() error
	release time.Duration
	now     func() time.Time
	raw     atomic.Bool

	mu      sync.Mutex
	pending []flightpath.InputEvent
	held    map[flightpath.Key]time.Time
}

var _ flightpath.Input = (*Keyboard)(nil)

// Open puts standard input into raw mode and starts reading it.
// Close must be called to give the terminal back.
func Open(release time.Duration) (*Keyboard, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("keyboard: entering raw mode: %w", err)
	}
	kb := newKeyboard(os.Stdin, release, time.Now)
	kb.restore = func() error { return term.Restore(fd, state) }
	kb.raw.Store(true)
	go kb.readLoop()
	return kb, nil
}

func newKeyboard(in io.Reader, release time.Duration, now func() time.Time) *Keyboard {
	return &Keyboard{
		in:      in,
		release: release,
		now:     now,
		held:    make(map[flightpath.Key]time.Time),
	}
}

// Close restores the terminal.
func (kb *Keyboard) Close() error {
	kb.raw.Store(false)
	if kb.restore == nil {
		return nil
	}
	return kb.restore()
}

// CRLF wraps w so that line feeds written while the terminal is raw also return the carriage.
// Raw mode turns off output processing, so a bare \n would leave the cursor mid-line.
func (kb *Keyboard) CRLF(w io.Writer) io.Writer {
	return &crlfWriter{w: w, raw: &kb.raw}
}

type crlfWriter struct {
	w   io.Writer
	raw *atomic.Bool
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if !c.raw.Load() || bytes.IndexByte(p, '\n') < 0 {
		return c.w.Write(p)
	}
	fixed := bytes.ReplaceAll(bytes.ReplaceAll(p, []byte("\r\n"), []byte("\n")), []byte("\n"), []byte("\r\n"))
	if _, err := c.w.Write(fixed); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Quit queues a quit event, e.g. on a signal.
func (kb *Keyboard) Quit() {
	kb.mu.Lock()
	kb.pending = append(kb.pending, flightpath.InputEvent{Kind: flightpath.InputQuit})
	kb.mu.Unlock()
}

// Poll returns the events since the last call, releasing keys that have stopped repeating.
func (kb *Keyboard) Poll() []flightpath.InputEvent {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	now := kb.now()
	for key, last := range kb.held {
		if now.Sub(last) >= kb.release {
			kb.pending = append(kb.pending, flightpath.InputEvent{Kind: flightpath.InputKeyUp, Key: key})
			delete(kb.held, key)
		}
	}
	events := kb.pending
	kb.pending = nil
	return events
}

func (kb *Keyboard) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := kb.in.Read(buf)
		if n > 0 {
			kb.feed(buf[:n])
		}
		if err != nil {
			// no more input, so nobody can stop the manual loop but us
			kb.Quit()
			return
		}
	}
}

func (kb *Keyboard) feed(b []byte) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	now := kb.now()
	for _, ev := range parseKeys(b) {
		if ev.Kind != flightpath.InputKeyDown || ev.Key == flightpath.KeyEscape {
			kb.pending = append(kb.pending, ev)
			continue
		}
		if _, held := kb.held[ev.Key]; !held {
			kb.pending = append(kb.pending, ev)
		}
		kb.held[ev.Key] = now
	}
}

// parseKeys decodes a chunk of terminal input into key-down and quit events.
// Bytes for keys the controls do not use are dropped.
func parseKeys(b []byte) []flightpath.InputEvent {
	var events []flightpath.InputEvent
	down := func(k flightpath.Key) {
		events = append(events, flightpath.InputEvent{Kind: flightpath.InputKeyDown, Key: k})
	}

	for i := 0; i < len(b); i++ {
		switch c := b[i]; c {
		case keyEsc:
			if i+2 < len(b) && (b[i+1] == '[' || b[i+1] == 'O') {
				if k, ok := arrowKey(b[i+2]); ok {
					down(k)
				}
				i += 2
				continue
			}
			down(flightpath.KeyEscape)
		case keyCtrlC, 'q', 'Q':
			events = append(events, flightpath.InputEvent{Kind: flightpath.InputQuit})
		default:
			if k, ok := letterKey(c); ok {
				down(k)
			}
		}
	}
	return events
}

func arrowKey(c byte) (flightpath.Key, bool) {
	switch c {
	case 'A':
		return flightpath.KeyArrowUp, true
	case 'B':
		return flightpath.KeyArrowDown, true
	case 'C':
		return flightpath.KeyArrowRight, true
	case 'D':
		return flightpath.KeyArrowLeft, true
	}
	return flightpath.KeyUnknown, false
}

func letterKey(c byte) (flightpath.Key, bool) {
	switch c {
	case 'w', 'W':
		return flightpath.KeyW, true
	case 's', 'S':
		return flightpath.KeyS, true
	case 'a', 'A':
		return flightpath.KeyA, true
	case 'd', 'D':
		return flightpath.KeyD, true
	case 't', 'T':
		return flightpath.KeyT, true
	case 'l', 'L':
		return flightpath.KeyL, true
	}
	return flightpath.KeyUnknown, false
}
