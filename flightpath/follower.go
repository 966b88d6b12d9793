// follower.go

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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/SMerrony/tellopath/tello"
)

// Drone is the flight-control capability a Follower drives. *tello.Tello implements it.
type Drone interface {
	Connect() error
	SetSpeed(cmS int) error
	Battery() (int, error)
	EnableMissionPads() error
	SetMissionPadDetectionDirection(dir int) error
	TakeOff() error
	Land() error
	Up(cm int) error
	Down(cm int) error
	Left(cm int) error
	Right(cm int) error
	Forward(cm int) error
	Back(cm int) error
	Clockwise(deg int) error
	CounterClockwise(deg int) error
	MissionPadID() (int, error)
	Flying() bool
	SendRC(leftRight, forwardBack, upDown, yaw int) error
	End() error
}

var _ Drone = (*tello.Tello)(nil)

// State is where a Follower is in its single run.
type State int

// Follower states, in the only order they occur
const (
	StateNotStarted State = iota
	StateRunningSteps
	StateManualControl
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunningSteps:
		return "running_steps"
	case StateManualControl:
		return "manual_control"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Defaults for a Follower
const (
	DefaultSpeed      = 10 // cm/s
	DefaultStickSpeed = 60
	DefaultManualRate = 120 // control updates per second
)

// Follower flies a FlightPath and then hands the drone over to manual control.
// A Follower is single use and not safe for concurrent use.
type Follower struct {
	drone        Drone
	path         FlightPath
	defaultSpeed int
	debug        bool
	logger       *slog.Logger
	clock        Clock
	input        Input
	reporter     Reporter
	out          io.Writer
	manualPeriod time.Duration
	stickSpeed   int
	padDirection int

	state         State
	rcEnabled     bool // forward the manual Velocity to the drone
	speedOverride bool // the current step changed the speed
}

// Option configures a Follower.
type Option func(*Follower)

// WithFlightPath sets the initial flight path.
func WithFlightPath(path FlightPath) Option { return func(f *Follower) { f.path = path } }

// WithDefaultSpeed sets the cruising speed restored after every step_speed override.
func WithDefaultSpeed(cmS int) Option { return func(f *Follower) { f.defaultSpeed = cmS } }

// WithDebug logs step progress at info level instead of debug.
func WithDebug(debug bool) Option { return func(f *Follower) { f.debug = debug } }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option { return func(f *Follower) { f.logger = logger } }

// WithClock sets the time source used for delays and the manual tick.
func WithClock(clock Clock) Option { return func(f *Follower) { f.clock = clock } }

// WithInput sets the operator input for manual control.
// Without one, manual control ends as soon as it starts.
func WithInput(input Input) Option { return func(f *Follower) { f.input = input } }

// WithReporter sets where progress events go.
func WithReporter(r Reporter) Option { return func(f *Follower) { f.reporter = r } }

// WithOutput sets where the controls legend and pad reports are printed.
func WithOutput(w io.Writer) Option { return func(f *Follower) { f.out = w } }

// WithManualRate sets the manual control updates per second.
func WithManualRate(hz int) Option {
	return func(f *Follower) {
		if hz > 0 {
			f.manualPeriod = time.Second / time.Duration(hz)
		}
	}
}

// WithStickSpeed sets the stick deflection (1-100) applied while a key is held.
func WithStickSpeed(s int) Option { return func(f *Follower) { f.stickSpeed = s } }

// WithPadDirection sets the mission pad detection direction, tello.PadDetectDownward by default.
func WithPadDirection(dir int) Option { return func(f *Follower) { f.padDirection = dir } }

// New connects to drone and prepares it for a flight: default speed, mission pads on,
// looking down. A nil drone means a Tello on the default addresses.
func New(drone Drone, opts ...Option) (*Follower, error) {
	f := &Follower{
		drone:        drone,
		defaultSpeed: DefaultSpeed,
		logger:       slog.Default(),
		clock:        realClock{},
		input:        quitInput{},
		reporter:     nopReporter{},
		out:          os.Stdout,
		manualPeriod: time.Second / DefaultManualRate,
		stickSpeed:   DefaultStickSpeed,
		padDirection: tello.PadDetectDownward,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.drone == nil {
		f.trace("creating Tello")
		f.drone = tello.New(tello.WithLogger(f.logger))
	}

	f.trace("connecting")
	if err := f.drone.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if err := f.drone.SetSpeed(f.defaultSpeed); err != nil {
		return nil, fmt.Errorf("%w: setting default speed: %w", ErrDeviceUnavailable, err)
	}
	if bat, err := f.drone.Battery(); err != nil {
		f.logger.Warn("battery level unavailable", "err", err)
	} else {
		f.trace("initial battery", "percent", bat)
	}
	if err := f.drone.EnableMissionPads(); err != nil {
		return nil, fmt.Errorf("%w: enabling mission pads: %w", ErrDeviceUnavailable, err)
	}
	if err := f.drone.SetMissionPadDetectionDirection(f.padDirection); err != nil {
		return nil, fmt.Errorf("%w: setting mission pad direction: %w", ErrDeviceUnavailable, err)
	}
	if len(f.path) == 0 {
		f.trace("no flight path declared on creation")
	}
	return f, nil
}

// SetFlightPath replaces the flight path to be flown by Run.
func (f *Follower) SetFlightPath(path FlightPath) {
	f.trace("setting flight path", "steps", len(path))
	f.path = path
}

// State returns where the Follower is in its run.
func (f *Follower) State() State { return f.state }

// Run flies every step in order, then enters manual control until the operator quits,
// and finally releases the drone. A failing step stops the scripted part; manual control
// still follows so the operator can recover, and the step's error is returned afterwards.
func (f *Follower) Run() error {
	if f.state != StateNotStarted {
		return ErrAlreadyRun
	}
	f.setState(StateRunningSteps)

	var stepErr error
	for i, step := range f.path {
		err := f.runStep(i, step)
		if err != nil {
			stepErr = fmt.Errorf("step %d (%s): %w", i, commandName(step.Command), err)
			f.logger.Error("flight path aborted", "step", i, "err", err)
		}
		if f.state == StateStopped {
			// a manual step ended the flight, there is nothing left to hand over
			return stepErr
		}
		if err != nil {
			break
		}
	}

	if f.drone.Flying() {
		f.rcEnabled = true
	}
	if err := f.manualControl(); err != nil {
		return errors.Join(stepErr, err)
	}
	return stepErr
}

func (f *Follower) setState(s State) {
	f.state = s
	f.reporter.Report(Event{Kind: EventStateChanged, Time: f.clock.Now(), Step: -1, State: s.String()})
}

// trace emits a progress line, at info level when debugging and at debug level otherwise.
func (f *Follower) trace(msg string, args ...any) {
	level := slog.LevelDebug
	if f.debug {
		level = slog.LevelInfo
	}
	f.logger.Log(context.Background(), level, msg, args...)
}

func commandName(c Command) string {
	if c == nil {
		return "<nil>"
	}
	return c.Name()
}
