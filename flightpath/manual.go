// manual.go

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

// Key is a key the manual controls respond to.
type Key int

// Keys
const (
	KeyUnknown Key = iota
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyW
	KeyS
	KeyA
	KeyD
	KeyT
	KeyL
	KeyEscape
)

// InputKind says what an InputEvent is.
type InputKind int

// Input event kinds
const (
	InputKeyDown InputKind = iota + 1
	InputKeyUp
	InputQuit
)

// InputEvent is one key transition or a quit request.
type InputEvent struct {
	Kind InputKind
	Key  Key
}

// Input supplies operator events to the manual control loop.
// Poll must not block; it returns whatever has arrived since the last call.
type Input interface {
	Poll() []InputEvent
}

// InputFunc adapts a function to an Input.
type InputFunc func() []InputEvent

// Poll calls f().
func (f InputFunc) Poll() []InputEvent { return f() }

// quitInput ends manual control at the first poll, for followers with no operator.
type quitInput struct{}

func (quitInput) Poll() []InputEvent { return []InputEvent{{Kind: InputQuit}} }

// Velocity is the stick state sent to the drone while under manual control.
// Each axis ranges from -100 to 100. Velocities are values: key handling returns a new one.
type Velocity struct {
	LeftRight   int
	ForwardBack int
	UpDown      int
	Yaw         int
}

// Press returns the velocity after key goes down, with s as the stick deflection.
func (v Velocity) Press(key Key, s int) Velocity {
	switch key {
	case KeyArrowUp:
		v.ForwardBack = s
	case KeyArrowDown:
		v.ForwardBack = -s
	case KeyArrowLeft:
		v.LeftRight = -s
	case KeyArrowRight:
		v.LeftRight = s
	case KeyW:
		v.UpDown = s
	case KeyS:
		v.UpDown = -s
	case KeyA:
		v.Yaw = -s
	case KeyD:
		v.Yaw = s
	}
	return v
}

// Release returns the velocity after key comes up: the key's axis is zeroed.
func (v Velocity) Release(key Key) Velocity {
	switch key {
	case KeyArrowUp, KeyArrowDown:
		v.ForwardBack = 0
	case KeyArrowLeft, KeyArrowRight:
		v.LeftRight = 0
	case KeyW, KeyS:
		v.UpDown = 0
	case KeyA, KeyD:
		v.Yaw = 0
	}
	return v
}

const controlsLegend = `The controls are:
 - T: Takeoff
 - L: Land
 - Arrow keys: Forward, backward, left and right.
 - A and D: Counter clockwise and clockwise rotations (yaw)
 - W and S: Up and down.
 - Esc: Land (if flying) and quit
`

// manualControl runs the keyboard loop until the operator quits or escapes,
// then releases the drone.
func (f *Follower) manualControl() error {
	f.setState(StateManualControl)
	fmt.Fprint(f.out, controlsLegend)

	var vel Velocity
	for stop := false; !stop; {
		for _, ev := range f.input.Poll() {
			switch ev.Kind {
			case InputQuit:
				stop = true
			case InputKeyDown:
				if ev.Key == KeyEscape {
					f.escape()
					stop = true
					continue
				}
				vel = vel.Press(ev.Key, f.stickSpeed)
			case InputKeyUp:
				vel = vel.Release(ev.Key)
				f.manualKeyUp(ev.Key)
			}
		}
		if stop {
			break
		}
		f.updateManual(vel)
		f.clock.Sleep(f.manualPeriod)
	}

	f.setState(StateStopped)
	if err := f.drone.End(); err != nil {
		return fmt.Errorf("releasing drone: %w", err)
	}
	return nil
}

// manualKeyUp handles the keys that act on release rather than steer.
func (f *Follower) manualKeyUp(key Key) {
	switch key {
	case KeyT:
		if err := f.drone.TakeOff(); err != nil {
			f.logger.Error("manual takeoff failed", "err", err)
			return
		}
		f.rcEnabled = true
	case KeyL:
		if err := f.drone.Land(); err != nil {
			f.logger.Error("manual land failed", "err", err)
			return
		}
		f.rcEnabled = false
	}
}

// escape lands first if airborne: quitting while flying would leave the drone to crash.
func (f *Follower) escape() {
	if !f.drone.Flying() {
		return
	}
	f.logger.Warn("escape while flying, landing first")
	if err := f.drone.Land(); err != nil {
		f.logger.Error("emergency land failed", "err", err)
	}
	f.rcEnabled = false
}

// updateManual is the periodic control update: it forwards vel to the drone when rc is enabled.
func (f *Follower) updateManual(vel Velocity) {
	if !f.rcEnabled {
		return
	}
	if err := f.drone.SendRC(vel.LeftRight, vel.ForwardBack, vel.UpDown, vel.Yaw); err != nil {
		f.logger.Warn("sending rc failed", "err", err, "velocity", vel)
	}
}
