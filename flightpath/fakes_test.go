// fakes_test.go

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

package flightpath

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// callLog is shared by the fake drone and clock so that their calls can be checked in order.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) reset() { l.calls = nil }

// recordingDrone is a Drone that logs every actuating call.
// MissionPadID walks padIDs, repeating the last one; fail makes the named call error.
type recordingDrone struct {
	log    *callLog
	flying bool
	padIDs []int
	padIdx int
	fail   map[string]error
}

func newRecordingDrone(log *callLog) *recordingDrone {
	return &recordingDrone{log: log, padIDs: []int{-1}, fail: make(map[string]error)}
}

func (d *recordingDrone) call(name string, format string, args ...any) error {
	d.log.add(format, args...)
	return d.fail[name]
}

func (d *recordingDrone) Connect() error { return d.call("Connect", "Connect") }
func (d *recordingDrone) SetSpeed(cmS int) error { return d.call("SetSpeed", "SetSpeed(%d)", cmS) }
func (d *recordingDrone) Battery() (int, error) { return 87, d.call("Battery", "Battery") }
func (d *recordingDrone) EnableMissionPads() error { return d.call("EnableMissionPads", "EnableMissionPads") }
func (d *recordingDrone) SetMissionPadDetectionDirection(dir int) error {
	return d.call("SetMissionPadDetectionDirection", "SetMissionPadDetectionDirection(%d)", dir)
}

func (d *recordingDrone) TakeOff() error {
	if err := d.call("TakeOff", "TakeOff"); err != nil {
		return err
	}
	d.flying = true
	return nil
}

func (d *recordingDrone) Land() error {
	if err := d.call("Land", "Land"); err != nil {
		return err
	}
	d.flying = false
	return nil
}

func (d *recordingDrone) Up(cm int) error { return d.call("Up", "Up(%d)", cm) }
func (d *recordingDrone) Down(cm int) error { return d.call("Down", "Down(%d)", cm) }
func (d *recordingDrone) Left(cm int) error { return d.call("Left", "Left(%d)", cm) }
func (d *recordingDrone) Right(cm int) error { return d.call("Right", "Right(%d)", cm) }
func (d *recordingDrone) Forward(cm int) error { return d.call("Forward", "Forward(%d)", cm) }
func (d *recordingDrone) Back(cm int) error { return d.call("Back", "Back(%d)", cm) }
func (d *recordingDrone) Clockwise(deg int) error {
	return d.call("Clockwise", "Clockwise(%d)", deg)
}
func (d *recordingDrone) CounterClockwise(deg int) error {
	return d.call("CounterClockwise", "CounterClockwise(%d)", deg)
}

func (d *recordingDrone) MissionPadID() (int, error) {
	if err := d.fail["MissionPadID"]; err != nil {
		return 0, err
	}
	id := d.padIDs[d.padIdx]
	if d.padIdx < len(d.padIDs)-1 {
		d.padIdx++
	}
	return id, nil
}

func (d *recordingDrone) Flying() bool { return d.flying }

func (d *recordingDrone) SendRC(leftRight, forwardBack, upDown, yaw int) error {
	return d.call("SendRC", "SendRC(%d,%d,%d,%d)", leftRight, forwardBack, upDown, yaw)
}

func (d *recordingDrone) End() error { return d.call("End", "End") }

// fakeClock advances only when slept on.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	log    *callLog // optional, to order sleeps against drone calls
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.log != nil {
		c.log.add("Sleep(%s)", d)
	}
}

func (c *fakeClock) total() time.Duration {
	var sum time.Duration
	for _, d := range c.sleeps {
		sum += d
	}
	return sum
}

// scriptedInput hands out one batch of events per poll and quits once the script is used up.
type scriptedInput struct {
	batches [][]InputEvent
}

func (s *scriptedInput) Poll() []InputEvent {
	if len(s.batches) == 0 {
		return []InputEvent{{Kind: InputQuit}}
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b
}

func keyDown(k Key) InputEvent { return InputEvent{Kind: InputKeyDown, Key: k} }
func keyUp(k Key) InputEvent { return InputEvent{Kind: InputKeyUp, Key: k} }

type harness struct {
	log    *callLog
	drone  *recordingDrone
	clock  *fakeClock
	out    *bytes.Buffer
	events []Event
}

func newHarness() *harness {
	log := &callLog{}
	return &harness{
		log:   log,
		drone: newRecordingDrone(log),
		clock: &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		out:   &bytes.Buffer{},
	}
}

// follower builds a Follower on the harness and clears the calls New made.
func (h *harness) follower(t *testing.T, opts ...Option) *Follower {
	t.Helper()
	base := []Option{
		WithClock(h.clock),
		WithOutput(h.out),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithReporter(ReporterFunc(func(ev Event) { h.events = append(h.events, ev) })),
	}
	f, err := New(h.drone, append(base, opts...)...)
	require.NoError(t, err)
	h.log.reset()
	h.clock.sleeps = nil
	h.events = nil
	return f
}

func (h *harness) eventKinds() []EventKind {
	kinds := make([]EventKind, 0, len(h.events))
	for _, ev := range h.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func intp(v int) *int { return &v }
func strp(v string) *string { return &v }
func floatp(v float64) *float64 { return &v }
