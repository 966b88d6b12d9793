// cli.go

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

// Package cli parses tellopath's command line and carries process exit codes.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError is an error that asks main to exit with Code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options are the settings taken from the command line. Empty values leave the configuration file alone.
type Options struct {
	ConfigPath string
	FlightPath string
	Vars       map[string]string
	LogLevel   string
	Debug      bool
	Check      bool // load and print the flight path without flying it
}

// varsFlag collects repeated -var name=value arguments.
type varsFlag map[string]string

func (v varsFlag) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	return strings.Join(pairs, ",")
}

func (v varsFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	v[name] = value
	return nil
}

// Parse processes command-line arguments. It returns the Options, whether the program
// should exit straight away (help was shown), or an ExitError for bad usage.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("tellopath", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
tellopath - fly a scripted flight path on a Tello drone, then take over from the keyboard.

Usage:
  tellopath [options] [FLIGHT_PATH]

Arguments:
  FLIGHT_PATH
    A .hcl, .yaml, .yml or .json flight path. Without one the drone goes straight to manual control.

Options:
`)
		flagSet.PrintDefaults()
	}

	vars := varsFlag{}
	configFlag := flagSet.String("config", "", "Path to the YAML configuration file.")
	logLevelFlag := flagSet.String("log-level", "", "Override the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	debugFlag := flagSet.Bool("debug", false, "Log flight progress at info level.")
	checkFlag := flagSet.Bool("check", false, "Validate and print the flight path, then exit without connecting.")
	flagSet.Var(vars, "var", "Set an HCL flight path variable, as name=value. May be repeated.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "only one flight path may be given"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &Options{
		ConfigPath: *configFlag,
		FlightPath: flagSet.Arg(0),
		Vars:       vars,
		LogLevel:   logLevel,
		Debug:      *debugFlag,
		Check:      *checkFlag,
	}, false, nil
}
