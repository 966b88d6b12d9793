// record.go

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
	"fmt"
	"time"
)

// Record is the loose, file-level form of a step: a cmd discriminator plus whichever
// fields that cmd uses. Records become Steps through Step, which validates them.
type Record struct {
	Cmd            string   `yaml:"cmd" hcl:"cmd,label"`
	Direction      *string  `yaml:"direction,omitempty" hcl:"direction,optional"`
	Value          *int     `yaml:"value,omitempty" hcl:"value,optional"`
	PadID          *int     `yaml:"padid,omitempty" hcl:"padid,optional"`
	DelayBefore    *float64 `yaml:"delay_before,omitempty" hcl:"delay_before,optional"`
	DelayAfter     *float64 `yaml:"delay_after,omitempty" hcl:"delay_after,optional"`
	StepSpeed      *int     `yaml:"step_speed,omitempty" hcl:"step_speed,optional"`
	DelayBetween   *float64 `yaml:"delay_between,omitempty" hcl:"delay_between,optional"`
	IterationLimit *int     `yaml:"iteration_limit,omitempty" hcl:"iteration_limit,optional"`
	AllowMiss      bool     `yaml:"allow_miss,omitempty" hcl:"allow_miss,optional"`
}

// NewFlightPath validates records in order and returns the flight path they describe.
func NewFlightPath(records []Record) (FlightPath, error) {
	path := make(FlightPath, 0, len(records))
	for i, r := range records {
		step, err := r.Step()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		path = append(path, step)
	}
	return path, nil
}

// Step validates the record and converts it into a Step.
func (r Record) Step() (Step, error) {
	var step Step
	var err error

	if step.DelayBefore, err = r.delay("delay_before", r.DelayBefore); err != nil {
		return Step{}, err
	}
	if step.DelayAfter, err = r.delay("delay_after", r.DelayAfter); err != nil {
		return Step{}, err
	}
	if r.StepSpeed != nil {
		if *r.StepSpeed <= 0 {
			return Step{}, r.malformed("step_speed must be positive, got %d", *r.StepSpeed)
		}
		step.Speed = *r.StepSpeed
	}

	switch r.Cmd {
	case CmdTakeOff:
		step.Command = TakeOff{}
	case CmdLand:
		step.Command = Land{}
	case CmdReportPadID:
		step.Command = ReportPadID{}
	case CmdManual:
		step.Command = Manual{}
	case CmdRotate:
		dir, err := r.requireDirection()
		if err != nil {
			return Step{}, err
		}
		rot := Rotation(dir)
		if rot != Clockwise && rot != CounterClockwise {
			return Step{}, fmt.Errorf("%w: rotate %q", ErrUnsupportedDirection, dir)
		}
		deg, err := r.requireValue()
		if err != nil {
			return Step{}, err
		}
		step.Command = Rotate{Direction: rot, Degrees: deg}
	case CmdMove:
		dir, err := r.requireDirection()
		if err != nil {
			return Step{}, err
		}
		switch d := Direction(dir); d {
		case Up, Down, Left, Right, Forward, Back:
		default:
			return Step{}, fmt.Errorf("%w: move %q", ErrUnsupportedDirection, dir)
		}
		cm, err := r.requireValue()
		if err != nil {
			return Step{}, err
		}
		step.Command = Move{Direction: Direction(dir), Distance: cm}
	case CmdFind:
		find, err := r.find()
		if err != nil {
			return Step{}, err
		}
		step.Command = find
	case "":
		return Step{}, fmt.Errorf("%w: missing cmd", ErrMalformedCommand)
	default:
		return Step{}, fmt.Errorf("%w: unknown cmd %q", ErrMalformedCommand, r.Cmd)
	}
	return step, nil
}

func (r Record) find() (Find, error) {
	dir, err := r.requireDirection()
	if err != nil {
		return Find{}, err
	}
	// a search creeps horizontally
	switch Direction(dir) {
	case Left, Right, Forward, Back:
	default:
		return Find{}, fmt.Errorf("%w: find %q", ErrUnsupportedDirection, dir)
	}
	creep, err := r.requireValue()
	if err != nil {
		return Find{}, err
	}
	if r.PadID == nil {
		return Find{}, r.malformed("missing padid")
	}
	between, err := r.delay("delay_between", r.DelayBetween)
	if err != nil {
		return Find{}, err
	}
	find := Find{
		Direction:    Direction(dir),
		Creep:        creep,
		PadID:        *r.PadID,
		DelayBetween: between,
		AllowMiss:    r.AllowMiss,
	}
	if r.IterationLimit != nil {
		if *r.IterationLimit <= 0 {
			return Find{}, r.malformed("iteration_limit must be positive, got %d", *r.IterationLimit)
		}
		find.IterationLimit = *r.IterationLimit
	}
	return find, nil
}

func (r Record) requireDirection() (string, error) {
	if r.Direction == nil {
		return "", r.malformed("missing direction")
	}
	return *r.Direction, nil
}

func (r Record) requireValue() (int, error) {
	if r.Value == nil {
		return 0, r.malformed("missing value")
	}
	if *r.Value <= 0 {
		return 0, r.malformed("value must be positive, got %d", *r.Value)
	}
	return *r.Value, nil
}

func (r Record) delay(field string, secs *float64) (time.Duration, error) {
	if secs == nil {
		return 0, nil
	}
	if *secs < 0 {
		return 0, r.malformed("%s must not be negative, got %v", field, *secs)
	}
	return time.Duration(*secs * float64(time.Second)), nil
}

func (r Record) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedCommand, r.Cmd, fmt.Sprintf(format, args...))
}
