package security

import (
	"errors"
	"fmt"
	"strings"
)

// SensorType is the kind of physical device behind a sensor.
type SensorType string

const (
	// SensorDoor is a door contact.
	SensorDoor SensorType = "DOOR"
	// SensorWindow is a window contact.
	SensorWindow SensorType = "WINDOW"
	// SensorMotion is a motion detector.
	SensorMotion SensorType = "MOTION"
)

var (
	// ErrUnknownSensorType is returned when a sensor type cannot be parsed.
	ErrUnknownSensorType = errors.New("unknown sensor type")
	// ErrSensorNameRequired is returned for sensors without a name.
	ErrSensorNameRequired = errors.New("sensor name is required")
)

// ParseSensorType converts user input into a SensorType.
func ParseSensorType(s string) (SensorType, error) {
	switch t := SensorType(normalizeName(s)); t {
	case SensorDoor, SensorWindow, SensorMotion:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSensorType, s)
	}
}

// SensorKey identifies a sensor. Two sensors with the same name and type are
// the same device.
type SensorKey struct {
	// Name is the human-readable sensor name.
	Name string
	// Type is the device kind.
	Type SensorType
}

// String renders the key as "name (TYPE)".
func (k SensorKey) String() string {
	return fmt.Sprintf("%s (%s)", k.Name, k.Type)
}

// Sensor is a binary device monitored by the system.
type Sensor struct {
	// Name is the human-readable sensor name.
	Name string
	// Type is the device kind.
	Type SensorType
	// Active is true while the sensor reports activity.
	Active bool
}

// NewSensor builds an inactive sensor after validating its identity.
func NewSensor(name string, sensorType SensorType) (*Sensor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSensorNameRequired
	}

	if _, err := ParseSensorType(string(sensorType)); err != nil {
		return nil, err
	}

	return &Sensor{
		Name: name,
		Type: sensorType,
	}, nil
}

// Key returns the identity of the sensor.
func (s *Sensor) Key() SensorKey {
	return SensorKey{
		Name: s.Name,
		Type: s.Type,
	}
}

// Clone returns a copy of the sensor.
func (s *Sensor) Clone() *Sensor {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}
