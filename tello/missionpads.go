// missionpads.go

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

// This file contains mission pad support and the session-level queries built on the state stream.

// EnableMissionPads turns on mission pad detection ('mon')
func (tello *Tello) EnableMissionPads() error {
	return tello.sendControlCommand("mon")
}

// DisableMissionPads turns off mission pad detection ('moff')
func (tello *Tello) DisableMissionPads() error {
	return tello.sendControlCommand("moff")
}

// SetMissionPadDetectionDirection chooses which camera looks for pads:
// PadDetectDownward, PadDetectForward or PadDetectBoth
func (tello *Tello) SetMissionPadDetectionDirection(dir int) error {
	cmd, err := padDirectionCommand(dir)
	if err != nil {
		return err
	}
	return tello.sendControlCommand(cmd)
}

// MissionPadID returns the id of the mission pad currently in view, or NoMissionPad.
func (tello *Tello) MissionPadID() (int, error) {
	tello.fdMu.RLock()
	defer tello.fdMu.RUnlock()
	if !tello.fdReceived {
		return NoMissionPad, ErrNoState
	}
	return tello.fd.MissionPadID, nil
}

// Battery returns the battery percentage from the state stream,
// or asks the Tello directly if no state has arrived yet.
func (tello *Tello) Battery() (int, error) {
	tello.fdMu.RLock()
	received, bat := tello.fdReceived, tello.fd.BatteryPercentage
	tello.fdMu.RUnlock()
	if received {
		return bat, nil
	}
	return tello.sendReadCommand("battery?")
}

// End lands the Tello if it is flying and then releases the connection.
func (tello *Tello) End() (err error) {
	if tello.Flying() {
		err = tello.Land()
	}
	tello.ControlDisconnect()
	return err
}
