// search.go

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

// SearchOutcome says how a mission pad search ended.
type SearchOutcome int

// Search outcomes
const (
	SearchFound SearchOutcome = iota + 1
	SearchExhausted
)

func (o SearchOutcome) String() string {
	switch o {
	case SearchFound:
		return "found"
	case SearchExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("SearchOutcome(%d)", int(o))
	}
}

// SearchResult is what a Search reports back.
type SearchResult struct {
	Outcome   SearchOutcome
	Moves     int // movement primitive invocations
	LastPadID int // last pad id observed
}

// Search creeps towards a mission pad. Before each move it asks PadID what is in view,
// stopping as soon as Target is seen or IterationLimit moves have been made.
type Search struct {
	Move           func(cm int) error
	PadID          func() (int, error)
	Clock          Clock
	Creep          int
	Target         int
	DelayBetween   time.Duration
	IterationLimit int // <= 0 means DefaultIterationLimit

	// Trace, if set, is called before every move.
	Trace func(remaining int, lastPadID int)
}

// Run performs the search. An error from Move or PadID ends it immediately.
// A budget that runs out is reported as SearchExhausted, not as an error; the pad is
// checked once more after the last move so that a pad reached on that move counts as found.
func (s Search) Run() (SearchResult, error) {
	clock := s.Clock
	if clock == nil {
		clock = realClock{}
	}
	remaining := s.IterationLimit
	if remaining <= 0 {
		remaining = DefaultIterationLimit
	}

	var res SearchResult
	for {
		id, err := s.PadID()
		if err != nil {
			return res, fmt.Errorf("reading mission pad id: %w", err)
		}
		res.LastPadID = id
		if id == s.Target {
			res.Outcome = SearchFound
			return res, nil
		}
		if remaining == 0 {
			res.Outcome = SearchExhausted
			return res, nil
		}
		if s.Trace != nil {
			s.Trace(remaining, id)
		}
		if err := s.Move(s.Creep); err != nil {
			return res, err
		}
		res.Moves++
		if s.DelayBetween > 0 {
			clock.Sleep(s.DelayBetween)
		}
		remaining--
	}
}
