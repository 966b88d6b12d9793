// keyboard_test.go

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

package keyboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SMerrony/tellopath/flightpath"
)

func down(k flightpath.Key) flightpath.InputEvent {
	return flightpath.InputEvent{Kind: flightpath.InputKeyDown, Key: k}
}

func up(k flightpath.Key) flightpath.InputEvent {
	return flightpath.InputEvent{Kind: flightpath.InputKeyUp, Key: k}
}

var quit = flightpath.InputEvent{Kind: flightpath.InputQuit}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []flightpath.InputEvent
	}{
		{"arrows", "\x1b[A\x1b[B\x1b[C\x1b[D", []flightpath.InputEvent{
			down(flightpath.KeyArrowUp), down(flightpath.KeyArrowDown),
			down(flightpath.KeyArrowRight), down(flightpath.KeyArrowLeft),
		}},
		{"application mode arrow", "\x1bOA", []flightpath.InputEvent{down(flightpath.KeyArrowUp)}},
		{"letters", "wsadTL", []flightpath.InputEvent{
			down(flightpath.KeyW), down(flightpath.KeyS), down(flightpath.KeyA),
			down(flightpath.KeyD), down(flightpath.KeyT), down(flightpath.KeyL),
		}},
		{"escape", "\x1b", []flightpath.InputEvent{down(flightpath.KeyEscape)}},
		{"quit", "q\x03", []flightpath.InputEvent{quit, quit}},
		{"ignored", "xyz\x1b[H", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseKeys([]byte(tt.in)))
		})
	}
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestHeldKeyIsReleased(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	kb := newKeyboard(strings.NewReader(""), 150*time.Millisecond, clock.Now)

	kb.feed([]byte("w"))
	assert.Equal(t, []flightpath.InputEvent{down(flightpath.KeyW)}, kb.Poll())

	// auto-repeat keeps the key held without a second key-down
	clock.now = clock.now.Add(100 * time.Millisecond)
	kb.feed([]byte("w"))
	assert.Empty(t, kb.Poll())

	clock.now = clock.now.Add(100 * time.Millisecond)
	assert.Empty(t, kb.Poll())

	clock.now = clock.now.Add(60 * time.Millisecond)
	assert.Equal(t, []flightpath.InputEvent{up(flightpath.KeyW)}, kb.Poll())
	assert.Empty(t, kb.Poll())
}

func TestEscapeIsNotHeld(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	kb := newKeyboard(strings.NewReader(""), 150*time.Millisecond, clock.Now)

	kb.feed([]byte("\x1b"))
	clock.now = clock.now.Add(time.Second)
	assert.Equal(t, []flightpath.InputEvent{down(flightpath.KeyEscape)}, kb.Poll())
}

func TestQuit(t *testing.T) {
	kb := newKeyboard(strings.NewReader(""), time.Second, time.Now)
	kb.Quit()
	assert.Equal(t, []flightpath.InputEvent{quit}, kb.Poll())
	assert.NoError(t, kb.Close())
}

func TestEndOfInputQuits(t *testing.T) {
	kb := newKeyboard(strings.NewReader("t"), time.Hour, time.Now)
	kb.readLoop()
	assert.Equal(t, []flightpath.InputEvent{down(flightpath.KeyT), quit}, kb.Poll())
}

func TestCRLFOnlyWhileRaw(t *testing.T) {
	kb := newKeyboard(strings.NewReader(""), 150*time.Millisecond, time.Now)
	var out strings.Builder
	w := kb.CRLF(&out)

	kb.raw.Store(true)
	n, err := w.Write([]byte("The controls are:\n - T: Takeoff\r\n"))
	assert.NoError(t, err)
	assert.Equal(t, 33, n)
	assert.Equal(t, "The controls are:\r\n - T: Takeoff\r\n", out.String())

	out.Reset()
	assert.NoError(t, kb.Close())
	_, err = w.Write([]byte("landed\n"))
	assert.NoError(t, err)
	assert.Equal(t, "landed\n", out.String())
}
