// executor.go

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
)

// runStep performs one step: delay_before, speed override, the command itself,
// delay_after and finally the speed restore. The restore happens even if the command failed.
func (f *Follower) runStep(index int, step Step) (err error) {
	name := commandName(step.Command)
	f.reporter.Report(Event{Kind: EventStepStarted, Time: f.clock.Now(), Step: index, Command: name})
	defer func() {
		ev := Event{Kind: EventStepFinished, Time: f.clock.Now(), Step: index, Command: name}
		if err != nil {
			ev.Error = err.Error()
		}
		f.reporter.Report(ev)
	}()

	if step.DelayBefore > 0 {
		f.trace("delay before", "step", index, "delay", step.DelayBefore)
		f.clock.Sleep(step.DelayBefore)
	}

	if step.Speed > 0 {
		f.trace("step speed override", "step", index, "speed", step.Speed)
		if err := f.drone.SetSpeed(step.Speed); err != nil {
			return fmt.Errorf("setting step speed: %w", err)
		}
		f.speedOverride = true
	}
	defer func() {
		if !f.speedOverride {
			return
		}
		// the manual step may already have released the drone
		if f.state == StateStopped {
			f.speedOverride = false
			return
		}
		if rerr := f.drone.SetSpeed(f.defaultSpeed); rerr != nil && err == nil {
			err = fmt.Errorf("restoring default speed: %w", rerr)
		}
		f.speedOverride = false
	}()

	if err := f.dispatch(index, step.Command); err != nil {
		return err
	}

	if step.DelayAfter > 0 {
		f.trace("delay after", "step", index, "delay", step.DelayAfter)
		f.clock.Sleep(step.DelayAfter)
	}
	return nil
}

func (f *Follower) dispatch(index int, cmd Command) error {
	switch c := cmd.(type) {
	case TakeOff:
		f.trace("taking off")
		return f.drone.TakeOff()
	case Land:
		f.trace("landing")
		return f.drone.Land()
	case ReportPadID:
		id, err := f.drone.MissionPadID()
		if err != nil {
			return err
		}
		fmt.Fprintf(f.out, "report_padid: %d\n", id)
		f.reporter.Report(Event{Kind: EventPadReported, Time: f.clock.Now(), Step: index, Command: c.Name(), PadID: id})
		return nil
	case Rotate:
		return f.rotate(c)
	case Move:
		move, err := f.mover(c.Direction)
		if err != nil {
			return err
		}
		f.trace("moving", "direction", c.Direction, "cm", c.Distance)
		return move(c.Distance)
	case Find:
		return f.find(index, c)
	case Manual:
		if f.drone.Flying() {
			f.rcEnabled = true
		}
		return f.manualControl()
	default:
		return fmt.Errorf("%w: %T", ErrMalformedCommand, cmd)
	}
}

func (f *Follower) rotate(c Rotate) error {
	f.trace("rotating", "direction", c.Direction, "degrees", c.Degrees)
	switch c.Direction {
	case Clockwise:
		return f.drone.Clockwise(c.Degrees)
	case CounterClockwise:
		return f.drone.CounterClockwise(c.Degrees)
	default:
		f.logger.Warn("ignoring rotate with unsupported direction", "direction", c.Direction)
		return fmt.Errorf("%w: rotate %q", ErrUnsupportedDirection, c.Direction)
	}
}

// mover returns the movement primitive for dir.
func (f *Follower) mover(dir Direction) (func(cm int) error, error) {
	switch dir {
	case Up:
		return f.drone.Up, nil
	case Down:
		return f.drone.Down, nil
	case Left:
		return f.drone.Left, nil
	case Right:
		return f.drone.Right, nil
	case Forward:
		return f.drone.Forward, nil
	case Back:
		return f.drone.Back, nil
	default:
		f.logger.Warn("ignoring move with unsupported direction", "direction", dir)
		return nil, fmt.Errorf("%w: move %q", ErrUnsupportedDirection, dir)
	}
}

func (f *Follower) find(index int, c Find) error {
	if c.Direction == Up || c.Direction == Down {
		return fmt.Errorf("%w: find %q", ErrUnsupportedDirection, c.Direction)
	}
	move, err := f.mover(c.Direction)
	if err != nil {
		return err
	}

	f.trace("finding mission pad", "pad", c.PadID, "direction", c.Direction, "creep", c.Creep)
	res, err := Search{
		Move:           move,
		PadID:          f.drone.MissionPadID,
		Clock:          f.clock,
		Creep:          c.Creep,
		Target:         c.PadID,
		DelayBetween:   c.DelayBetween,
		IterationLimit: c.IterationLimit,
		Trace: func(remaining, last int) {
			f.trace("searching", "remaining", remaining, "seen", last, "cm", c.Creep)
		},
	}.Run()
	ev := Event{Kind: EventPadSearch, Time: f.clock.Now(), Step: index, Command: c.Name(), PadID: c.PadID, Moves: res.Moves}
	if err != nil {
		ev.Error = err.Error()
		f.reporter.Report(ev)
		return err
	}
	ev.Outcome = res.Outcome.String()
	f.reporter.Report(ev)
	if res.Outcome == SearchExhausted && !c.AllowMiss {
		return fmt.Errorf("%w: pad %d not seen after %d moves (last saw %d)", ErrSearchTimedOut, c.PadID, res.Moves, res.LastPadID)
	}
	f.trace("mission pad search done", "outcome", res.Outcome, "moves", res.Moves)
	return nil
}
