// command.go

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

import "time"

// Direction is a translation direction for move and find steps.
type Direction string

// Translation directions
const (
	Up      Direction = "up"
	Down    Direction = "down"
	Left    Direction = "left"
	Right   Direction = "right"
	Forward Direction = "forward"
	Back    Direction = "back"
)

// Rotation is a yaw direction for rotate steps.
type Rotation string

// Rotation directions
const (
	Clockwise        Rotation = "clockwise"
	CounterClockwise Rotation = "counter_clockwise"
)

// Command names as they appear in the cmd field of a flight path file.
const (
	CmdTakeOff     = "takeoff"
	CmdLand        = "land"
	CmdMove        = "move"
	CmdRotate      = "rotate"
	CmdFind        = "find"
	CmdReportPadID = "report_padid"
	CmdManual      = "manual"
)

// DefaultIterationLimit bounds a find step with no iteration_limit.
// It is far longer than a battery lasts.
const DefaultIterationLimit = 1000

// Command is one of TakeOff, Land, ReportPadID, Rotate, Move, Find or Manual.
type Command interface {
	// Name returns the cmd string for the command.
	Name() string
	command()
}

// TakeOff launches the drone.
type TakeOff struct{}

// Land lands the drone.
type Land struct{}

// ReportPadID reports the id of the mission pad currently in view.
type ReportPadID struct{}

// Manual hands control to the keyboard until the operator quits.
type Manual struct{}

// Rotate turns the drone on the spot.
type Rotate struct {
	Direction Rotation
	Degrees   int
}

// Move flies a fixed distance in one direction.
type Move struct {
	Direction Direction
	Distance  int // cm
}

// Find creeps in one direction until a mission pad is seen or the budget runs out.
type Find struct {
	Direction      Direction
	Creep          int // cm per iteration
	PadID          int
	DelayBetween   time.Duration
	IterationLimit int  // 0 means DefaultIterationLimit
	AllowMiss      bool // an exhausted search is not an error
}

func (TakeOff) Name() string     { return CmdTakeOff }
func (Land) Name() string        { return CmdLand }
func (ReportPadID) Name() string { return CmdReportPadID }
func (Manual) Name() string      { return CmdManual }
func (Rotate) Name() string      { return CmdRotate }
func (Move) Name() string        { return CmdMove }
func (Find) Name() string        { return CmdFind }

func (TakeOff) command()     {}
func (Land) command()        {}
func (ReportPadID) command() {}
func (Manual) command()      {}
func (Rotate) command()      {}
func (Move) command()        {}
func (Find) command()        {}

// Step is one entry of a flight path: a command plus the settings common to every command.
type Step struct {
	Command     Command
	DelayBefore time.Duration
	DelayAfter  time.Duration
	Speed       int // cm/s for this step only, 0 keeps the default
}

// FlightPath is an ordered list of steps, flown first to last.
type FlightPath []Step
