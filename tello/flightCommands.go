// flightCommands.go

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

package tello

// TakeOff asks the Tello to take off and hover at about 80cm, it returns once the Tello acknowledges.
// The acknowledgement can take far longer than other commands, see WithTakeoffTimeout.
func (tello *Tello) TakeOff() error {
	timeout := tello.takeoffTimeout
	if timeout <= 0 {
		timeout = defaultTakeoffTimeout
	}
	if err := tello.sendControlCommandWithin("takeoff", timeout); err != nil {
		return err
	}
	tello.setFlying(true)
	return nil
}

// Land sends a normal Land request to the Tello
func (tello *Tello) Land() error {
	if err := tello.sendControlCommand("land"); err != nil {
		return err
	}
	tello.setFlying(false)
	return nil
}

// Emergency stops all motors immediately - the Tello will fall!
func (tello *Tello) Emergency() error {
	err := tello.sendCommandNoReply("emergency")
	if err == nil {
		tello.setFlying(false)
	}
	return err
}

// SetSpeed sets the cruising speed used by the movement commands, between 10 and 100 cm/s
func (tello *Tello) SetSpeed(cmS int) error {
	cmd, err := speedCommand(cmS)
	if err != nil {
		return err
	}
	return tello.sendControlCommand(cmd)
}

// *** The following move the Tello by a fixed distance (20-500cm) and return once it has arrived.

// Up flies upward by cm
func (tello *Tello) Up(cm int) error { return tello.move("up", cm) }

// Down flies downward by cm
func (tello *Tello) Down(cm int) error { return tello.move("down", cm) }

// Left flies left by cm
func (tello *Tello) Left(cm int) error { return tello.move("left", cm) }

// Right flies right by cm
func (tello *Tello) Right(cm int) error { return tello.move("right", cm) }

// Forward flies forward by cm
func (tello *Tello) Forward(cm int) error { return tello.move("forward", cm) }

// Back flies backward by cm
func (tello *Tello) Back(cm int) error { return tello.move("back", cm) }

// Clockwise rotates clockwise by deg (1-360)
func (tello *Tello) Clockwise(deg int) error { return tello.rotate("cw", deg) }

// CounterClockwise rotates anticlockwise by deg (1-360)
func (tello *Tello) CounterClockwise(deg int) error { return tello.rotate("ccw", deg) }

// Anticlockwise is an alias for CounterClockwise()
func (tello *Tello) Anticlockwise(deg int) error { return tello.CounterClockwise(deg) }

func (tello *Tello) move(dir string, cm int) error {
	cmd, err := moveCommand(dir, cm)
	if err != nil {
		return err
	}
	return tello.sendControlCommand(cmd)
}

func (tello *Tello) rotate(dir string, deg int) error {
	cmd, err := rotateCommand(dir, deg)
	if err != nil {
		return err
	}
	return tello.sendControlCommand(cmd)
}

// *** Stick-based control, the Tello does not acknowledge these.

// UpdateSticks does a one-off update of the stick values which are then sent to the Tello
func (tello *Tello) UpdateSticks(sm StickMessage) error {
	cmd, err := rcCommand(sm)
	if err != nil {
		return err
	}
	return tello.sendCommandNoReply(cmd)
}

// SendRC sends the four rc channels, each between -100 and 100
func (tello *Tello) SendRC(leftRight, forwardBack, upDown, yaw int) error {
	return tello.UpdateSticks(StickMessage{LeftRight: leftRight, ForwardBack: forwardBack, UpDown: upDown, Yaw: yaw})
}

// Hover simply sets the sticks to zero - useful as a panic action!
func (tello *Tello) Hover() error {
	return tello.UpdateSticks(StickMessage{})
}
