/*
Package flightpath flies scripted flight paths on a Tello drone.

A FlightPath is an ordered list of Steps. Each Step wraps one Command
(TakeOff, Land, Move, Rotate, Find, ReportPadID or Manual) together with
optional delays before and after it and an optional one-step speed override.
Flight paths are usually loaded from a file with LoadFile, in HCL, YAML or JSON:

	step "takeoff" {}
	step "find" {
	  direction = "forward"
	  value     = 40
	  padid     = 2
	}
	step "land" {}

A Follower flies the path and then hands the drone to manual control until the
operator quits, at which point the drone is released.

	f, err := flightpath.New(nil, flightpath.WithFlightPath(fp), flightpath.WithInput(keys))
	if err != nil {
		log.Fatal(err)
	}
	if err := f.Run(); err != nil {
		log.Print(err)
	}

The Follower is driven entirely through the Drone, Clock and Input interfaces,
so a flight can be rehearsed without an aircraft.
*/
package flightpath
