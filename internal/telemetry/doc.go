// Package telemetry ships flight progress to the outside world.
//
// Publisher sends every flightpath.Event to an MQTT broker as JSON, with a retained
// status topic guarded by a last-will message. Recorder writes the Tello's state
// stream to InfluxDB. Both are optional and a flight does not depend on either.
package telemetry
