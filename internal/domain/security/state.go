package security

// Actor identifies who issued a command.
type Actor struct {
	// Hostname is the machine name where the command was issued.
	Hostname string
	// Username is the system user who issued the command.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// State is a point-in-time snapshot of the whole system.
type State struct {
	// ArmingStatus is the current arming status.
	ArmingStatus ArmingStatus
	// AlarmStatus is the current alarm status.
	AlarmStatus AlarmStatus
	// CatSpotted is true when the last processed image contained a cat.
	CatSpotted bool
	// Sensors holds every tracked sensor.
	Sensors []*Sensor
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	sensors := make([]*Sensor, 0, len(s.Sensors))
	for _, sensor := range s.Sensors {
		sensors = append(sensors, sensor.Clone())
	}

	return &State{
		ArmingStatus: s.ArmingStatus,
		AlarmStatus:  s.AlarmStatus,
		CatSpotted:   s.CatSpotted,
		Sensors:      sensors,
	}
}

// ActiveSensors counts sensors that currently report activity.
func (s *State) ActiveSensors() int {
	var count int

	for _, sensor := range s.Sensors {
		if sensor.Active {
			count++
		}
	}

	return count
}
