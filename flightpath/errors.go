// errors.go

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

import "errors"

// Errors reported while loading or flying a flight path. Use errors.Is to test for them.
var (
	// ErrMalformedCommand is returned for a record with an unknown cmd or missing a field its cmd needs.
	ErrMalformedCommand = errors.New("flightpath: malformed command")

	// ErrUnsupportedDirection is returned for a direction the command does not understand.
	ErrUnsupportedDirection = errors.New("flightpath: unsupported direction")

	// ErrDeviceUnavailable is returned when the drone cannot be connected or initialised.
	ErrDeviceUnavailable = errors.New("flightpath: drone unavailable")

	// ErrSearchTimedOut is returned when a find step used its whole iteration budget without seeing the pad.
	ErrSearchTimedOut = errors.New("flightpath: mission pad search timed out")

	// ErrAlreadyRun is returned by Run on a Follower that has already flown.
	ErrAlreadyRun = errors.New("flightpath: follower already run")
)
