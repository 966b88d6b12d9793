// config.go

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

// Package config loads tellopath's settings: a YAML file over built-in defaults,
// then TELLOPATH_* environment variables over both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TELLOPATH_DRONE_ADDRESS.
const EnvPrefix = "TELLOPATH_"

// Config is the complete application configuration.
type Config struct {
	Drone    DroneConfig    `yaml:"drone" envPrefix:"DRONE_"`
	Flight   FlightConfig   `yaml:"flight" envPrefix:"FLIGHT_"`
	Manual   ManualConfig   `yaml:"manual" envPrefix:"MANUAL_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
	MQTT     MQTTConfig     `yaml:"mqtt" envPrefix:"MQTT_"`
	InfluxDB InfluxDBConfig `yaml:"influxdb" envPrefix:"INFLUXDB_"`
}

// DroneConfig addresses the Tello.
type DroneConfig struct {
	Address         string        `yaml:"address" env:"ADDRESS"`
	ControlPort     int           `yaml:"control_port" env:"CONTROL_PORT"`
	LocalPort       int           `yaml:"local_port" env:"LOCAL_PORT"`
	StatePort       int           `yaml:"state_port" env:"STATE_PORT"`
	ResponseTimeout time.Duration `yaml:"response_timeout" env:"RESPONSE_TIMEOUT"`
	TakeoffTimeout  time.Duration `yaml:"takeoff_timeout" env:"TAKEOFF_TIMEOUT"`
	StateWait       time.Duration `yaml:"state_wait" env:"STATE_WAIT"` // how long connecting waits for the first state packet
}

// FlightConfig holds the scripted flight settings.
type FlightConfig struct {
	Path         string            `yaml:"path" env:"PATH"` // flight path file, overridden by the command line
	Vars         map[string]string `yaml:"vars" env:"VARS"` // var.* values for HCL flight paths
	DefaultSpeed int               `yaml:"default_speed" env:"DEFAULT_SPEED"`
	PadDirection int               `yaml:"pad_direction" env:"PAD_DIRECTION"`
	Debug        bool              `yaml:"debug" env:"DEBUG"`
}

// ManualConfig tunes the keyboard control loop.
type ManualConfig struct {
	Rate       int           `yaml:"rate" env:"RATE"` // updates per second
	StickSpeed int           `yaml:"stick_speed" env:"STICK_SPEED"`
	KeyRelease time.Duration `yaml:"key_release" env:"KEY_RELEASE"` // a key counts as released when it stops repeating for this long
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string            `yaml:"level" env:"LEVEL"`
	Format string            `yaml:"format" env:"FORMAT"`
	Output string            `yaml:"output" env:"OUTPUT"` // stdout, stderr or file
	File   FileLoggingConfig `yaml:"file" envPrefix:"FILE_"`
}

// FileLoggingConfig configures the rotating log file used when Output is "file".
type FileLoggingConfig struct {
	Path       string `yaml:"path" env:"PATH"`
	MaxSize    int    `yaml:"max_size" env:"MAX_SIZE"` // megabytes
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age" env:"MAX_AGE"` // days
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// MQTTConfig configures the flight event publisher.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	Broker      string `yaml:"broker" env:"BROKER"` // e.g. tcp://localhost:1883
	ClientID    string `yaml:"client_id" env:"CLIENT_ID"`
	Username    string `yaml:"username" env:"USERNAME"`
	Password    string `yaml:"password" env:"PASSWORD"`
	TopicPrefix string `yaml:"topic_prefix" env:"TOPIC_PREFIX"`
	QoS         int    `yaml:"qos" env:"QOS"`
}

// InfluxDBConfig configures the flight state recorder.
type InfluxDBConfig struct {
	Enabled       bool          `yaml:"enabled" env:"ENABLED"`
	URL           string        `yaml:"url" env:"URL"`
	Token         string        `yaml:"token" env:"TOKEN"`
	Org           string        `yaml:"org" env:"ORG"`
	Bucket        string        `yaml:"bucket" env:"BUCKET"`
	BatchSize     int           `yaml:"batch_size" env:"BATCH_SIZE"`
	FlushInterval int           `yaml:"flush_interval" env:"FLUSH_INTERVAL"` // seconds
	SamplePeriod  time.Duration `yaml:"sample_period" env:"SAMPLE_PERIOD"`
}

// Load reads the configuration file at path, applies environment overrides and validates the result.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration: a Tello on its own access point, no telemetry.
func Default() *Config {
	return &Config{
		Drone: DroneConfig{
			Address:         "192.168.10.1",
			ControlPort:     8889,
			LocalPort:       8800,
			StatePort:       8890,
			ResponseTimeout: 7 * time.Second,
			TakeoffTimeout:  20 * time.Second,
			StateWait:       time.Second,
		},
		Flight: FlightConfig{
			DefaultSpeed: 10,
		},
		Manual: ManualConfig{
			Rate:       120,
			StickSpeed: 60,
			KeyRelease: 700 * time.Millisecond, // longer than the usual initial auto-repeat delay
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
			File: FileLoggingConfig{
				Path:       "tellopath.log",
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "tellopath",
			TopicPrefix: "tellopath",
			QoS:         1,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "tello",
			BatchSize:     100,
			FlushInterval: 10,
			SamplePeriod:  500 * time.Millisecond,
		},
	}
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks the configuration for values the drone or the telemetry sinks would reject.
func (c *Config) Validate() error {
	var errs []string

	if c.Drone.Address == "" {
		errs = append(errs, "drone.address is required")
	}
	ports := []struct {
		name string
		port int
	}{
		{"drone.control_port", c.Drone.ControlPort},
		{"drone.local_port", c.Drone.LocalPort},
		{"drone.state_port", c.Drone.StatePort},
	}
	for _, p := range ports {
		if p.port < 0 || p.port > 65535 {
			errs = append(errs, p.name+" must be between 0 and 65535")
		}
	}
	if c.Drone.ResponseTimeout <= 0 {
		errs = append(errs, "drone.response_timeout must be positive")
	}
	if c.Drone.TakeoffTimeout <= 0 {
		errs = append(errs, "drone.takeoff_timeout must be positive")
	}
	if c.Drone.StateWait < 0 {
		errs = append(errs, "drone.state_wait must not be negative")
	}

	if c.Flight.DefaultSpeed < 10 || c.Flight.DefaultSpeed > 100 {
		errs = append(errs, "flight.default_speed must be between 10 and 100")
	}
	if c.Flight.PadDirection < 0 || c.Flight.PadDirection > 2 {
		errs = append(errs, "flight.pad_direction must be 0, 1 or 2")
	}

	if c.Manual.Rate <= 0 {
		errs = append(errs, "manual.rate must be positive")
	}
	if c.Manual.StickSpeed < 1 || c.Manual.StickSpeed > 100 {
		errs = append(errs, "manual.stick_speed must be between 1 and 100")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr":
	case "file":
		if c.Logging.File.Path == "" {
			errs = append(errs, "logging.file.path is required when logging.output is file")
		}
	default:
		errs = append(errs, "logging.output must be stdout, stderr or file")
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required when mqtt is enabled")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
		}
		if c.InfluxDB.SamplePeriod <= 0 {
			errs = append(errs, "influxdb.sample_period must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}
