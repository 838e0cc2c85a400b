package security

import (
	"context"
	"errors"
	"image"

	"go.uber.org/multierr"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// StateStore keeps the arming status, the alarm status and the sensor set.
// Writes are last-write-wins per call.
type StateStore interface {
	AlarmStatus(ctx context.Context) (domain.AlarmStatus, error)
	SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error
	ArmingStatus(ctx context.Context) (domain.ArmingStatus, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	// Sensors returns copies of every tracked sensor.
	Sensors(ctx context.Context) ([]*domain.Sensor, error)
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, sensor *domain.Sensor) error
	// UpdateSensor persists the Active flag of an already tracked sensor.
	UpdateSensor(ctx context.Context, sensor *domain.Sensor) error
}

// CatClassifier reports whether an image contains a cat with at least the
// given confidence, expressed in percent.
type CatClassifier interface {
	ContainsCat(ctx context.Context, img image.Image, confidenceThreshold float32) (bool, error)
}

// StatusListener observes the engine. Implementations must be comparable
// (pointer receivers) because listeners are kept in a set.
type StatusListener interface {
	OnSensorStatusChanged(ctx context.Context) error
	OnCatDetected(ctx context.Context, catDetected bool) error
	OnAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) error
}

// CatConfidenceThreshold is the confidence passed to the classifier.
const CatConfidenceThreshold float32 = 50.0

var (
	// ErrUntrackedSensor is returned when a sensor is not known to the store.
	ErrUntrackedSensor = errors.New("sensor is not tracked")
	// ErrClassifierFailed wraps classifier errors returned by ProcessImage.
	ErrClassifierFailed = errors.New("cat classifier failed")
	// ErrListenerFailed wraps every listener error reported by an operation.
	ErrListenerFailed = errors.New("status listener failed")
	// ErrInvalidStatus is returned for arming or alarm statuses out of range.
	ErrInvalidStatus = errors.New("invalid status")
	// errNilSensor is returned when a nil sensor is passed in.
	errNilSensor = errors.New("sensor must be provided")
)

// OnlyListenerFailures reports whether err is made up of listener failures
// alone, meaning the operation itself was applied in full.
func OnlyListenerFailures(err error) bool {
	if err == nil {
		return false
	}

	for _, e := range multierr.Errors(err) {
		if !errors.Is(e, ErrListenerFailed) {
			return false
		}
	}

	return true
}
