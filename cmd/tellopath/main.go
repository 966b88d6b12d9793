// main.go

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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SMerrony/tellopath/flightpath"
	"github.com/SMerrony/tellopath/internal/cli"
	"github.com/SMerrony/tellopath/internal/config"
	"github.com/SMerrony/tellopath/internal/keyboard"
	"github.com/SMerrony/tellopath/internal/logging"
	"github.com/SMerrony/tellopath/internal/telemetry"
	"github.com/SMerrony/tellopath/tello"
)

var version = "dev"

func main() {
	slog.SetDefault(logging.Default().Logger)

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads the configuration and the flight path, then flies it.
func run(outW io.Writer, args []string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}
	applyOptions(cfg, opts)

	logger := logging.New(cfg.Logging, version)
	defer logger.Close()
	slog.SetDefault(logger.Logger)

	path := flightpath.FlightPath{}
	if cfg.Flight.Path != "" {
		if path, err = flightpath.LoadFile(cfg.Flight.Path, cfg.Flight.Vars); err != nil {
			return &cli.ExitError{Code: 2, Message: err.Error()}
		}
	}

	if opts.Check {
		printFlightPath(outW, path)
		return nil
	}
	return fly(cfg, logger, path, outW)
}

// applyOptions lets the command line override the configuration file.
func applyOptions(cfg *config.Config, opts *cli.Options) {
	if opts.FlightPath != "" {
		cfg.Flight.Path = opts.FlightPath
	}
	if len(opts.Vars) > 0 {
		vars := make(map[string]string, len(cfg.Flight.Vars)+len(opts.Vars))
		for k, v := range cfg.Flight.Vars {
			vars[k] = v
		}
		for k, v := range opts.Vars {
			vars[k] = v
		}
		cfg.Flight.Vars = vars
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Debug {
		cfg.Flight.Debug = true
	}
}

func printFlightPath(w io.Writer, path flightpath.FlightPath) {
	fmt.Fprintf(w, "%d steps\n", len(path))
	for i, step := range path {
		fmt.Fprintf(w, "%3d  %-13s", i, step.Command.Name())
		switch c := step.Command.(type) {
		case flightpath.Move:
			fmt.Fprintf(w, " %s %dcm", c.Direction, c.Distance)
		case flightpath.Rotate:
			fmt.Fprintf(w, " %s %ddeg", c.Direction, c.Degrees)
		case flightpath.Find:
			limit := c.IterationLimit
			if limit == 0 {
				limit = flightpath.DefaultIterationLimit
			}
			fmt.Fprintf(w, " pad %d %s by %dcm, at most %d moves", c.PadID, c.Direction, c.Creep, limit)
		}
		if step.DelayBefore > 0 {
			fmt.Fprintf(w, " delay_before=%s", step.DelayBefore)
		}
		if step.DelayAfter > 0 {
			fmt.Fprintf(w, " delay_after=%s", step.DelayAfter)
		}
		if step.Speed > 0 {
			fmt.Fprintf(w, " speed=%dcm/s", step.Speed)
		}
		fmt.Fprintln(w)
	}
}

// fly connects to the drone, starts whatever telemetry is configured and runs the Follower.
// SIGINT and SIGTERM end manual control.
func fly(cfg *config.Config, logger *logging.Logger, path flightpath.FlightPath, outW io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var input flightpath.Input
	kb, err := keyboard.Open(cfg.Manual.KeyRelease)
	if err != nil {
		logger.Warn("no keyboard, manual control ends on interrupt", "err", err)
		input = flightpath.InputFunc(func() []flightpath.InputEvent {
			if ctx.Err() != nil {
				return []flightpath.InputEvent{{Kind: flightpath.InputQuit}}
			}
			return nil
		})
	} else {
		defer kb.Close()
		logger.WrapTerminal(kb.CRLF)
		outW = kb.CRLF(outW)
		go func() {
			<-ctx.Done()
			kb.Quit()
		}()
		input = kb
	}

	drone := tello.New(
		tello.WithAddress(cfg.Drone.Address),
		tello.WithControlPort(cfg.Drone.ControlPort),
		tello.WithLocalPort(cfg.Drone.LocalPort),
		tello.WithStatePort(cfg.Drone.StatePort),
		tello.WithResponseTimeout(cfg.Drone.ResponseTimeout),
		tello.WithTakeoffTimeout(cfg.Drone.TakeoffTimeout),
		tello.WithStateWait(cfg.Drone.StateWait),
		tello.WithLogger(logger.With("component", "tello").Logger),
	)

	followerOpts := []flightpath.Option{
		flightpath.WithFlightPath(path),
		flightpath.WithDefaultSpeed(cfg.Flight.DefaultSpeed),
		flightpath.WithDebug(cfg.Flight.Debug),
		flightpath.WithLogger(logger.With("component", "flightpath").Logger),
		flightpath.WithInput(input),
		flightpath.WithOutput(outW),
		flightpath.WithManualRate(cfg.Manual.Rate),
		flightpath.WithStickSpeed(cfg.Manual.StickSpeed),
		flightpath.WithPadDirection(cfg.Flight.PadDirection),
	}
	if cfg.MQTT.Enabled {
		publisher, err := telemetry.ConnectMQTT(cfg.MQTT, logger.With("component", "mqtt").Logger)
		if err != nil {
			logger.Warn("flight events will not be published", "err", err)
		} else {
			defer publisher.Close()
			followerOpts = append(followerOpts, flightpath.WithReporter(publisher))
		}
	}

	follower, err := flightpath.New(drone, followerOpts...)
	if err != nil {
		// the drone may have connected before setup failed
		drone.ControlDisconnect()
		return err
	}

	if cfg.InfluxDB.Enabled {
		// the state stream closes when the Follower releases the drone
		wait := startRecorder(ctx, cfg, logger, drone)
		defer wait()
	}

	return follower.Run()
}

// startRecorder records the drone's state in the background. The returned func waits for the
// recording to be flushed.
func startRecorder(ctx context.Context, cfg *config.Config, logger *logging.Logger, drone *tello.Tello) (wait func()) {
	recorder, err := telemetry.ConnectInflux(ctx, cfg.InfluxDB, cfg.Drone.Address, logger.With("component", "influxdb").Logger)
	if err != nil {
		logger.Warn("flight state will not be recorded", "err", err)
		return func() {}
	}
	states, err := drone.StreamFlightData(cfg.InfluxDB.SamplePeriod)
	if err != nil {
		logger.Warn("flight state will not be recorded", "err", err)
		recorder.Close()
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		recorder.Record(ctx, states)
		recorder.Close()
	}()
	return func() { <-done }
}
