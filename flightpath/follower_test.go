// follower_test.go

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
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPreparesDrone(t *testing.T) {
	h := newHarness()
	_, err := New(h.drone, WithClock(h.clock), WithOutput(h.out), WithDefaultSpeed(25))
	require.NoError(t, err)

	want := []string{
		"Connect",
		"SetSpeed(25)",
		"Battery",
		"EnableMissionPads",
		"SetMissionPadDetectionDirection(0)",
	}
	if diff := cmp.Diff(want, h.log.calls); diff != "" {
		t.Errorf("setup calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNewConnectFailure(t *testing.T) {
	h := newHarness()
	h.drone.fail["Connect"] = errBoom

	f, err := New(h.drone, WithClock(h.clock), WithOutput(h.out))
	assert.Nil(t, f)
	require.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.ErrorIs(t, err, errBoom)
}

func TestNewToleratesMissingBattery(t *testing.T) {
	h := newHarness()
	h.drone.fail["Battery"] = errBoom

	_, err := New(h.drone, WithClock(h.clock), WithOutput(h.out))
	require.NoError(t, err)
}

func TestNewPadDirection(t *testing.T) {
	h := newHarness()
	_, err := New(h.drone, WithClock(h.clock), WithOutput(h.out), WithPadDirection(2))
	require.NoError(t, err)
	assert.Contains(t, h.log.calls, "SetMissionPadDetectionDirection(2)")
}

// takeoff, move left 30 and land, then straight through manual control.
func TestRunSimplePath(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: TakeOff{}},
		{Command: Move{Direction: Left, Distance: 30}},
		{Command: Land{}},
	}))

	require.NoError(t, f.Run())

	want := []string{"TakeOff", "Left(30)", "Land", "End"}
	if diff := cmp.Diff(want, h.log.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, StateStopped, f.State())
	assert.False(t, h.drone.flying)
}

// land must call Land, never TakeOff. A copy/paste slip once routed it to TakeOff.
func TestLandStepLands(t *testing.T) {
	h := newHarness()
	h.drone.flying = true
	f := h.follower(t, WithFlightPath(FlightPath{{Command: Land{}}}))

	require.NoError(t, f.Run())

	assert.Equal(t, []string{"Land", "End"}, h.log.calls)
	assert.NotContains(t, h.log.calls, "TakeOff")
}

// The pad comes into view after two creeps.
func TestRunFindsPad(t *testing.T) {
	h := newHarness()
	h.drone.padIDs = []int{0, 0, 2}
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: Find{Direction: Forward, Creep: 40, PadID: 2, IterationLimit: 3}},
	}))

	require.NoError(t, f.Run())

	assert.Equal(t, []string{"Forward(40)", "Forward(40)", "End"}, h.log.calls)

	var search *Event
	for i := range h.events {
		if h.events[i].Kind == EventPadSearch {
			search = &h.events[i]
		}
	}
	require.NotNil(t, search)
	assert.Equal(t, "found", search.Outcome)
	assert.Equal(t, 2, search.Moves)
}

// Nothing scripted, so manual control starts at once.
func TestRunEmptyPath(t *testing.T) {
	h := newHarness()
	f := h.follower(t)

	require.NoError(t, f.Run())

	assert.Equal(t, []string{"End"}, h.log.calls)
	assert.Contains(t, h.out.String(), "The controls are:")
	assert.Equal(t, []EventKind{EventStateChanged, EventStateChanged, EventStateChanged}, h.eventKinds())
	assert.Equal(t, "stopped", h.events[2].State)
}

func TestRunEveryCommand(t *testing.T) {
	h := newHarness()
	h.drone.padIDs = []int{4}
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: TakeOff{}},
		{Command: Move{Direction: Up, Distance: 40}},
		{Command: Move{Direction: Down, Distance: 40}},
		{Command: Move{Direction: Right, Distance: 30}},
		{Command: Move{Direction: Back, Distance: 30}},
		{Command: Rotate{Direction: Clockwise, Degrees: 90}},
		{Command: Rotate{Direction: CounterClockwise, Degrees: 45}},
		{Command: ReportPadID{}},
		{Command: Land{}},
	}))

	require.NoError(t, f.Run())

	want := []string{
		"TakeOff",
		"Up(40)",
		"Down(40)",
		"Right(30)",
		"Back(30)",
		"Clockwise(90)",
		"CounterClockwise(45)",
		"Land",
		"End",
	}
	if diff := cmp.Diff(want, h.log.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, h.out.String(), "report_padid: 4\n")
}

func TestReportPadIDEvent(t *testing.T) {
	h := newHarness()
	h.drone.padIDs = []int{7}
	f := h.follower(t, WithFlightPath(FlightPath{{Command: ReportPadID{}}}))

	require.NoError(t, f.Run())

	var reported []Event
	for _, ev := range h.events {
		if ev.Kind == EventPadReported {
			reported = append(reported, ev)
		}
	}
	require.Len(t, reported, 1)
	assert.Equal(t, 7, reported[0].PadID)
	assert.Equal(t, CmdReportPadID, reported[0].Command)
}

func TestStepEvents(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{{Command: TakeOff{}}}))

	require.NoError(t, f.Run())

	want := []EventKind{
		EventStateChanged, // running_steps
		EventStepStarted,
		EventStepFinished,
		EventStateChanged, // manual_control
		EventStateChanged, // stopped
	}
	assert.Equal(t, want, h.eventKinds())
	assert.Equal(t, CmdTakeOff, h.events[1].Command)
	assert.Equal(t, 0, h.events[1].Step)
}

func TestStepDelays(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: TakeOff{}, DelayBefore: time.Second, DelayAfter: 2 * time.Second},
		{Command: Land{}, DelayAfter: 1500 * time.Millisecond},
	}))
	h.clock.log = h.log

	require.NoError(t, f.Run())

	want := []string{"Sleep(1s)", "TakeOff", "Sleep(2s)", "Land", "Sleep(1.5s)", "End"}
	if diff := cmp.Diff(want, h.log.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4500*time.Millisecond, h.clock.total())
}

func TestStepSpeedRestoredAfterDelay(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: Move{Direction: Forward, Distance: 50}, Speed: 30, DelayAfter: 2 * time.Second},
		{Command: Move{Direction: Back, Distance: 50}},
	}))
	h.clock.log = h.log

	require.NoError(t, f.Run())

	want := []string{"SetSpeed(30)", "Forward(50)", "Sleep(2s)", "SetSpeed(10)", "Back(50)", "End"}
	if diff := cmp.Diff(want, h.log.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestStepSpeedRestoredAfterFailure(t *testing.T) {
	h := newHarness()
	h.drone.fail["Forward"] = errBoom
	f := h.follower(t, WithDefaultSpeed(20), WithFlightPath(FlightPath{
		{Command: Move{Direction: Forward, Distance: 50}, Speed: 30},
		{Command: Move{Direction: Back, Distance: 50}},
	}))

	err := f.Run()

	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "step 0 (move)")
	assert.Equal(t, []string{"SetSpeed(30)", "Forward(50)", "SetSpeed(20)", "End"}, h.log.calls)
}

func TestFailingStepStillHandsOver(t *testing.T) {
	h := newHarness()
	h.drone.fail["Left"] = errBoom
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: TakeOff{}},
		{Command: Move{Direction: Left, Distance: 30}},
		{Command: Land{}},
	}))

	err := f.Run()

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"TakeOff", "Left(30)", "End"}, h.log.calls)
	assert.Equal(t, StateStopped, f.State())
	assert.Contains(t, h.out.String(), "The controls are:")
}

func TestStepAndReleaseErrorsAreJoined(t *testing.T) {
	h := newHarness()
	h.drone.fail["TakeOff"] = errBoom
	endErr := errors.New("end failed")
	h.drone.fail["End"] = endErr
	f := h.follower(t, WithFlightPath(FlightPath{{Command: TakeOff{}}}))

	err := f.Run()

	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, endErr)
}

func TestUnsupportedDirectionMakesNoCall(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"move", Move{Direction: "sideways", Distance: 30}},
		{"rotate", Rotate{Direction: "widdershins", Degrees: 90}},
		{"find up", Find{Direction: Up, Creep: 20, PadID: 1}},
		{"find unknown", Find{Direction: "sideways", Creep: 20, PadID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			f := h.follower(t, WithFlightPath(FlightPath{{Command: tt.cmd}}))

			err := f.Run()

			require.ErrorIs(t, err, ErrUnsupportedDirection)
			assert.Equal(t, []string{"End"}, h.log.calls)
		})
	}
}

func TestNilCommandIsMalformed(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{{}}))

	err := f.Run()

	require.ErrorIs(t, err, ErrMalformedCommand)
	assert.Contains(t, err.Error(), "<nil>")
}

func TestFindExhaustedFailsFast(t *testing.T) {
	h := newHarness()
	h.drone.padIDs = []int{0}
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: Find{Direction: Left, Creep: 20, PadID: 3, IterationLimit: 3}},
		{Command: Land{}},
	}))

	err := f.Run()

	require.ErrorIs(t, err, ErrSearchTimedOut)
	assert.Equal(t, []string{"Left(20)", "Left(20)", "Left(20)", "End"}, h.log.calls)
}

func TestFindExhaustedAllowMiss(t *testing.T) {
	h := newHarness()
	h.drone.padIDs = []int{0}
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: Find{Direction: Right, Creep: 20, PadID: 3, IterationLimit: 2, AllowMiss: true}},
		{Command: Land{}},
	}))

	require.NoError(t, f.Run())
	assert.Equal(t, []string{"Right(20)", "Right(20)", "Land", "End"}, h.log.calls)
}

func TestFindDelayBetween(t *testing.T) {
	h := newHarness()
	h.drone.padIDs = []int{0, 0, 5}
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: Find{Direction: Back, Creep: 20, PadID: 5, DelayBetween: 500 * time.Millisecond}},
	}))

	require.NoError(t, f.Run())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, h.clock.sleeps)
}

func TestManualStepEndsRun(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: TakeOff{}},
		{Command: Manual{}},
		{Command: Land{}},
	}))

	require.NoError(t, f.Run())

	assert.Equal(t, []string{"TakeOff", "End"}, h.log.calls)
	assert.Equal(t, StateStopped, f.State())
}

func TestManualStepReleaseFailureStaysStopped(t *testing.T) {
	h := newHarness()
	h.drone.fail["End"] = errBoom
	f := h.follower(t, WithFlightPath(FlightPath{
		{Command: Manual{}},
		{Command: Land{}},
	}))

	err := f.Run()

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, strings.Count(err.Error(), "releasing drone"))
	assert.Equal(t, []string{"End"}, h.log.calls)
	assert.Equal(t, 1, strings.Count(h.out.String(), "The controls are:"))
	assert.Equal(t, StateStopped, f.State())

	var states []string
	for _, ev := range h.events {
		if ev.Kind == EventStateChanged {
			states = append(states, ev.State)
		}
	}
	assert.Equal(t, []string{"running_steps", "manual_control", "stopped"}, states)
}

func TestManualStepWithSpeedOverrideSkipsRestore(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{{Command: Manual{}, Speed: 50}}))

	require.NoError(t, f.Run())
	assert.Equal(t, []string{"SetSpeed(50)", "End"}, h.log.calls)
}

func TestRunTwice(t *testing.T) {
	h := newHarness()
	f := h.follower(t)

	require.NoError(t, f.Run())
	assert.ErrorIs(t, f.Run(), ErrAlreadyRun)
}

func TestSetFlightPathReplaces(t *testing.T) {
	h := newHarness()
	f := h.follower(t, WithFlightPath(FlightPath{{Command: TakeOff{}}}))
	f.SetFlightPath(FlightPath{{Command: Rotate{Direction: Clockwise, Degrees: 10}}})

	require.NoError(t, f.Run())
	assert.Equal(t, []string{"Clockwise(10)", "End"}, h.log.calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not_started", StateNotStarted.String())
	assert.Equal(t, "running_steps", StateRunningSteps.String())
	assert.Equal(t, "manual_control", StateManualControl.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}
