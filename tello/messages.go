// messages.go

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

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SDK argument limits
const (
	minMoveCm      = 20
	maxMoveCm      = 500
	minRotateDeg   = 1
	maxRotateDeg   = 360
	minSpeedCmS    = 10
	maxSpeedCmS    = 100
	maxStick       = 100
	maxPadDetector = 2
)

// Mission pad detection directions for SetMissionPadDetectionDirection
const (
	PadDetectDownward = 0
	PadDetectForward  = 1
	PadDetectBoth     = 2
)

// NoMissionPad is reported in FlightData.MissionPadID when no pad is in view.
const NoMissionPad = -1

// FlightData holds our current knowledge of the drone's state.
// It is refreshed as a whole by each state packet the Tello broadcasts (roughly every 100ms).
type FlightData struct {
	MissionPadID      int // -1 if none detected, -2 if detection is off
	MissionPadX       int // cm, relative to the pad
	MissionPadY       int
	MissionPadZ       int
	MissionPadPitch   int
	MissionPadRoll    int
	MissionPadYaw     int
	Pitch             int // degrees
	Roll              int
	Yaw               int
	SpeedX            int // dm/s
	SpeedY            int
	SpeedZ            int
	TempLow           int // °C
	TempHigh          int
	TOF               int // time-of-flight distance, cm
	Height            int // cm
	BatteryPercentage int
	Baro              float64 // m
	FlyTime           int     // seconds the motors have been running
	AccelX            float64 // 0.001g
	AccelY            float64
	AccelZ            float64
	Received          time.Time
}

// parseState decodes one state packet of the form "mid:-1;x:0;...;agz:-998.00;\r\n".
// Unknown keys are ignored so that firmware additions do not break parsing.
func parseState(s string) (fd FlightData, err error) {
	fd.MissionPadID = NoMissionPad
	s = strings.TrimSpace(s)
	if s == "" {
		return fd, fmt.Errorf("empty state packet")
	}
	for _, field := range strings.Split(s, ";") {
		if field == "" {
			continue
		}
		key, val, ok := strings.Cut(field, ":")
		if !ok {
			return fd, fmt.Errorf("malformed state field %q", field)
		}
		switch key {
		case "mid":
			fd.MissionPadID, err = strconv.Atoi(val)
		case "x":
			fd.MissionPadX, err = strconv.Atoi(val)
		case "y":
			fd.MissionPadY, err = strconv.Atoi(val)
		case "z":
			fd.MissionPadZ, err = strconv.Atoi(val)
		case "mpry":
			err = parseTriple(val, &fd.MissionPadPitch, &fd.MissionPadRoll, &fd.MissionPadYaw)
		case "pitch":
			fd.Pitch, err = strconv.Atoi(val)
		case "roll":
			fd.Roll, err = strconv.Atoi(val)
		case "yaw":
			fd.Yaw, err = strconv.Atoi(val)
		case "vgx":
			fd.SpeedX, err = strconv.Atoi(val)
		case "vgy":
			fd.SpeedY, err = strconv.Atoi(val)
		case "vgz":
			fd.SpeedZ, err = strconv.Atoi(val)
		case "templ":
			fd.TempLow, err = strconv.Atoi(val)
		case "temph":
			fd.TempHigh, err = strconv.Atoi(val)
		case "tof":
			fd.TOF, err = strconv.Atoi(val)
		case "h":
			fd.Height, err = strconv.Atoi(val)
		case "bat":
			fd.BatteryPercentage, err = strconv.Atoi(val)
		case "baro":
			fd.Baro, err = strconv.ParseFloat(val, 64)
		case "time":
			fd.FlyTime, err = strconv.Atoi(val)
		case "agx":
			fd.AccelX, err = strconv.ParseFloat(val, 64)
		case "agy":
			fd.AccelY, err = strconv.ParseFloat(val, 64)
		case "agz":
			fd.AccelZ, err = strconv.ParseFloat(val, 64)
		}
		if err != nil {
			return fd, fmt.Errorf("state field %q: %w", key, err)
		}
	}
	return fd, nil
}

func parseTriple(s string, a, b, c *int) (err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected 3 values, got %d", len(parts))
	}
	for i, p := range []*int{a, b, c} {
		if *p, err = strconv.Atoi(parts[i]); err != nil {
			return err
		}
	}
	return nil
}

// moveCommand builds eg. "forward 40"
func moveCommand(dir string, cm int) (string, error) {
	if cm < minMoveCm || cm > maxMoveCm {
		return "", fmt.Errorf("%w: %s %dcm, must be %d-%d", ErrOutOfRange, dir, cm, minMoveCm, maxMoveCm)
	}
	return fmt.Sprintf("%s %d", dir, cm), nil
}

// rotateCommand builds eg. "cw 90"
func rotateCommand(dir string, deg int) (string, error) {
	if deg < minRotateDeg || deg > maxRotateDeg {
		return "", fmt.Errorf("%w: %s %d degrees, must be %d-%d", ErrOutOfRange, dir, deg, minRotateDeg, maxRotateDeg)
	}
	return fmt.Sprintf("%s %d", dir, deg), nil
}

func speedCommand(cmS int) (string, error) {
	if cmS < minSpeedCmS || cmS > maxSpeedCmS {
		return "", fmt.Errorf("%w: speed %dcm/s, must be %d-%d", ErrOutOfRange, cmS, minSpeedCmS, maxSpeedCmS)
	}
	return fmt.Sprintf("speed %d", cmS), nil
}

// rcCommand builds the stick command, each channel ranges from -100 to 100
func rcCommand(sm StickMessage) (string, error) {
	for _, v := range []int{sm.LeftRight, sm.ForwardBack, sm.UpDown, sm.Yaw} {
		if v < -maxStick || v > maxStick {
			return "", fmt.Errorf("%w: stick value %d, must be -%d-%d", ErrOutOfRange, v, maxStick, maxStick)
		}
	}
	return fmt.Sprintf("rc %d %d %d %d", sm.LeftRight, sm.ForwardBack, sm.UpDown, sm.Yaw), nil
}

func padDirectionCommand(dir int) (string, error) {
	if dir < 0 || dir > maxPadDetector {
		return "", fmt.Errorf("%w: mission pad direction %d, must be 0-%d", ErrOutOfRange, dir, maxPadDetector)
	}
	return fmt.Sprintf("mdirection %d", dir), nil
}

// StickMessage holds the four rc channel values sent to the Tello.
// Each value can range from -100 to 100
type StickMessage struct {
	LeftRight, ForwardBack, UpDown, Yaw int
}
