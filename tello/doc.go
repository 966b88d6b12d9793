/*Package tello provides a small, standalone client for the Ryze Tello® drone's SDK text protocol.

Disclaimer

Tello is a registered trademark of Ryze Tech.  The author(s) of this package is/are in no way affiliated with Ryze, DJI, or Intel.

Use this package at your own risk.  The author(s) is/are in no way responsible for any damage caused either to or by the
drone when using this software.

Features

The following features have been implemented...
  * SDK mode connection with per-command acknowledgement and timeouts
  * Distance-based flight commands, eg. Forward(40), Clockwise(90)
  * Stick-based flight control via the 'rc' command, eg. SendRC()
  * Mission pad detection, eg. EnableMissionPads(), MissionPadID()
  * State stream decoding for real-time telemetry

Concepts

Connection Types

The drone provides a 'command' connection on UDP port 8889 which answers each command with 'ok' or 'error',
and broadcasts a 'state' packet of key:value pairs to UDP port 8890 about ten times per second.
Connecting opens both; the state listener keeps the latest FlightData.

Funcs vs. Channels

State is available in two forms: GetFlightData() returns the latest snapshot and StreamFlightData() returns
a channel fed at a fixed period.  The channel-based stream never blocks, so unconsumed updates are lost.

Blocking

Flight commands block until the Tello acknowledges them; a move of 500cm at 10cm/s can legitimately take
close to the response timeout, so set the speed and timeout together.
*/
package tello
