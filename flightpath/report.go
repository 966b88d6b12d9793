// report.go

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

// EventKind identifies what a reported Event is about.
type EventKind string

// Event kinds
const (
	EventStepStarted  EventKind = "step_started"
	EventStepFinished EventKind = "step_finished"
	EventPadReported  EventKind = "pad_reported"
	EventPadSearch    EventKind = "pad_search"
	EventStateChanged EventKind = "state_changed"
)

// Event is a progress notification from a Follower.
type Event struct {
	Kind    EventKind `json:"kind"`
	Time    time.Time `json:"time"`
	Step    int       `json:"step"`
	Command string    `json:"command,omitempty"`
	State   string    `json:"state,omitempty"`
	PadID   int       `json:"pad_id,omitempty"`
	Outcome string    `json:"outcome,omitempty"`
	Moves   int       `json:"moves,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Reporter receives progress Events. Report is called synchronously from the flight loop
// and must not block for long.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(Event)

// Report calls f(ev).
func (f ReporterFunc) Report(ev Event) { f(ev) }

type nopReporter struct{}

func (nopReporter) Report(Event) {}
