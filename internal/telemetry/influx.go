// influx.go

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

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/SMerrony/tellopath/internal/config"
	"github.com/SMerrony/tellopath/tello"
)

const (
	defaultPingTimeout    = 5 * time.Second
	millisecondsPerSecond = 1000

	measurementFlightState = "flight_state"
)

// pointWriter is the part of api.WriteAPI a Recorder uses.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Recorder writes Tello state samples to InfluxDB.
type Recorder struct {
	client influxdb2.Client
	writer pointWriter
	drone  string
	logger *slog.Logger
}

// ConnectInflux checks that the InfluxDB server in cfg is healthy and returns a Recorder
// tagging its points with drone, normally the drone's address.
func ConnectInflux(ctx context.Context, cfg config.InfluxDBConfig, drone string, logger *slog.Logger) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("influxdb write failed", "err", err)
		}
	}()

	r := newRecorder(writeAPI, drone, logger)
	r.client = client
	return r, nil
}

func newRecorder(w pointWriter, drone string, logger *slog.Logger) *Recorder {
	return &Recorder{writer: w, drone: drone, logger: logger}
}

// Record writes every sample from states until the channel closes or ctx is done.
// Samples taken before the first state packet arrived are skipped.
func (r *Recorder) Record(ctx context.Context, states <-chan tello.FlightData) {
	written := 0
	defer func() {
		r.writer.Flush()
		r.logger.Debug("flight state recording stopped", "points", written)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case fd, ok := <-states:
			if !ok {
				return
			}
			if fd.Received.IsZero() {
				continue
			}
			r.writer.WritePoint(flightPoint(r.drone, fd))
			written++
		}
	}
}

// Close flushes pending points and closes the client.
func (r *Recorder) Close() error {
	r.writer.Flush()
	if r.client != nil {
		r.client.Close()
	}
	return nil
}

func flightPoint(drone string, fd tello.FlightData) *write.Point {
	fields := map[string]interface{}{
		"mission_pad": fd.MissionPadID,
		"height_cm":   fd.Height,
		"tof_cm":      fd.TOF,
		"battery_pct": fd.BatteryPercentage,
		"pitch":       fd.Pitch,
		"roll":        fd.Roll,
		"yaw":         fd.Yaw,
		"speed_x":     fd.SpeedX,
		"speed_y":     fd.SpeedY,
		"speed_z":     fd.SpeedZ,
		"temp_low":    fd.TempLow,
		"temp_high":   fd.TempHigh,
		"baro_m":      fd.Baro,
		"fly_time_s":  fd.FlyTime,
	}
	if fd.MissionPadID >= 0 {
		fields["pad_x"] = fd.MissionPadX
		fields["pad_y"] = fd.MissionPadY
		fields["pad_z"] = fd.MissionPadZ
	}
	return write.NewPoint(
		measurementFlightState,
		map[string]string{"drone": drone},
		fields,
		fd.Received,
	)
}
