package security

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/multierr"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Engine decides the alarm status from arming changes, sensor changes and
// camera frames, and notifies listeners about every decision.
type Engine struct {
	// store holds statuses and sensors; the engine keeps no copy of them.
	store StateStore
	// classifier answers whether a camera frame contains a cat.
	classifier CatClassifier
	// listeners is an unordered set, so notification order is unspecified.
	listeners map[StatusListener]struct{}
	// catSpotted remembers the result of the last processed image.
	catSpotted bool
}

// NewEngine creates an engine on top of the provided collaborators.
func NewEngine(store StateStore, classifier CatClassifier) *Engine {
	return &Engine{
		store:      store,
		classifier: classifier,
		listeners:  make(map[StatusListener]struct{}),
	}
}

// AddStatusListener registers a listener. Adding the same listener twice has no effect.
func (e *Engine) AddStatusListener(listener StatusListener) {
	if listener == nil {
		return
	}

	e.listeners[listener] = struct{}{}
}

// RemoveStatusListener unregisters a listener. Unknown listeners are ignored.
func (e *Engine) RemoveStatusListener(listener StatusListener) {
	delete(e.listeners, listener)
}

// SetArmingStatus changes the arming status.
// Disarming clears the alarm. Arming resets every sensor to inactive and
// raises the alarm right away when arming home while a cat is remembered.
// Listener failures do not stop the operation; they are returned together at
// the end, combined with the store error if one aborts the operation.
func (e *Engine) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	var failures error

	if status == domain.Disarmed {
		if err := e.setAlarmStatus(ctx, domain.NoAlarm, &failures); err != nil {
			return multierr.Append(err, failures)
		}
	} else {
		if e.catSpotted && status == domain.ArmedHome {
			if err := e.setAlarmStatus(ctx, domain.Alarm, &failures); err != nil {
				return multierr.Append(err, failures)
			}
		}

		// The store hands out copies, so the snapshot is stable while sensors are reset.
		snapshot, err := e.store.Sensors(ctx)
		if err != nil {
			return multierr.Append(fmt.Errorf("snapshot sensors: %w", err), failures)
		}

		for _, sensor := range snapshot {
			if err := e.applySensorActivation(ctx, sensor, false, &failures); err != nil {
				return multierr.Append(err, failures)
			}
		}
	}

	if err := e.store.SetArmingStatus(ctx, status); err != nil {
		return multierr.Append(fmt.Errorf("persist arming status: %w", err), failures)
	}

	logger.InfoKV(ctx, "Arming status changed", "arming_status", status)

	multierr.AppendInto(&failures, e.broadcast(ctx, "sensor status changed", func(l StatusListener) error {
		return l.OnSensorStatusChanged(ctx)
	}))

	return failures
}

// ChangeSensorActivation records a sensor going active or inactive and moves
// the alarm status accordingly. While the alarm is triggered sensor changes
// are recorded but never alter the alarm status. The sensor must be tracked by
// the store; otherwise ErrUntrackedSensor is returned and nothing changes.
// On success the Active field of the passed sensor is updated as well.
func (e *Engine) ChangeSensorActivation(ctx context.Context, sensor *domain.Sensor, active bool) error {
	if sensor == nil {
		return errNilSensor
	}

	recorded, err := e.trackedSensor(ctx, sensor.Key())
	if err != nil {
		return err
	}

	var failures error

	if err := e.applySensorActivation(ctx, recorded, active, &failures); err != nil {
		return multierr.Append(err, failures)
	}

	sensor.Active = active

	return failures
}

// ProcessImage classifies a camera frame and remembers whether it contained a cat.
// A cat while armed home triggers the alarm; any other outcome clears it, even
// when sensors are still active. Classifier errors leave every status untouched.
func (e *Engine) ProcessImage(ctx context.Context, img image.Image) error {
	catDetected, err := e.classifier.ContainsCat(ctx, img, CatConfidenceThreshold)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClassifierFailed, err)
	}

	armingStatus, err := e.store.ArmingStatus(ctx)
	if err != nil {
		return fmt.Errorf("read arming status: %w", err)
	}

	e.catSpotted = catDetected

	logger.InfoKV(ctx, "Camera image processed", "cat_detected", catDetected, "arming_status", armingStatus)

	next := domain.NoAlarm
	if catDetected && armingStatus == domain.ArmedHome {
		next = domain.Alarm
	}

	var failures error

	if err := e.setAlarmStatus(ctx, next, &failures); err != nil {
		return multierr.Append(err, failures)
	}

	multierr.AppendInto(&failures, e.broadcast(ctx, "cat detected", func(l StatusListener) error {
		return l.OnCatDetected(ctx, catDetected)
	}))

	return failures
}

// SetAlarmStatus writes the alarm status and notifies every listener.
func (e *Engine) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	var failures error

	if err := e.setAlarmStatus(ctx, status, &failures); err != nil {
		return err
	}

	return failures
}

// CatSpotted reports whether the last processed image contained a cat.
func (e *Engine) CatSpotted() bool {
	return e.catSpotted
}

// AlarmStatus reads the alarm status from the store.
func (e *Engine) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	return e.store.AlarmStatus(ctx)
}

// ArmingStatus reads the arming status from the store.
func (e *Engine) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	return e.store.ArmingStatus(ctx)
}

// Sensors returns copies of the tracked sensors.
func (e *Engine) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	return e.store.Sensors(ctx)
}

// AddSensor starts tracking a sensor.
func (e *Engine) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errNilSensor
	}

	return e.store.AddSensor(ctx, sensor)
}

// RemoveSensor stops tracking a sensor.
func (e *Engine) RemoveSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errNilSensor
	}

	return e.store.RemoveSensor(ctx, sensor)
}

// State assembles a snapshot of statuses, sensors and the cat memory.
func (e *Engine) State(ctx context.Context) (*domain.State, error) {
	armingStatus, err := e.store.ArmingStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read arming status: %w", err)
	}

	alarmStatus, err := e.store.AlarmStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read alarm status: %w", err)
	}

	sensors, err := e.store.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}

	return &domain.State{
		ArmingStatus: armingStatus,
		AlarmStatus:  alarmStatus,
		CatSpotted:   e.catSpotted,
		Sensors:      sensors,
	}, nil
}

// applySensorActivation runs the activation rules for a sensor whose recorded
// state is given, then persists the new flag whatever branch was taken.
func (e *Engine) applySensorActivation(
	ctx context.Context,
	recorded *domain.Sensor,
	active bool,
	failures *error,
) error {
	alarmStatus, err := e.store.AlarmStatus(ctx)
	if err != nil {
		return fmt.Errorf("read alarm status: %w", err)
	}

	if alarmStatus != domain.Alarm {
		switch {
		case active:
			err = e.handleSensorActivated(ctx, alarmStatus, failures)
		case recorded.Active:
			err = e.handleSensorDeactivated(ctx, alarmStatus, failures)
		}

		if err != nil {
			return err
		}
	}

	updated := recorded.Clone()
	updated.Active = active

	if err := e.store.UpdateSensor(ctx, updated); err != nil {
		return fmt.Errorf("update sensor %s: %w", updated.Key(), err)
	}

	logger.DebugKV(ctx, "Sensor activation changed", "sensor", updated.Key().String(), "active", active)

	return nil
}

func (e *Engine) handleSensorActivated(ctx context.Context, current domain.AlarmStatus, failures *error) error {
	armingStatus, err := e.store.ArmingStatus(ctx)
	if err != nil {
		return fmt.Errorf("read arming status: %w", err)
	}

	if armingStatus == domain.Disarmed {
		return nil
	}

	switch current {
	case domain.NoAlarm:
		return e.setAlarmStatus(ctx, domain.PendingAlarm, failures)
	case domain.PendingAlarm:
		return e.setAlarmStatus(ctx, domain.Alarm, failures)
	default:
		return nil
	}
}

func (e *Engine) handleSensorDeactivated(ctx context.Context, current domain.AlarmStatus, failures *error) error {
	if current != domain.PendingAlarm {
		return nil
	}

	return e.setAlarmStatus(ctx, domain.NoAlarm, failures)
}

// setAlarmStatus persists the status and collects listener failures into failures.
// Only store errors are returned.
func (e *Engine) setAlarmStatus(ctx context.Context, status domain.AlarmStatus, failures *error) error {
	if err := e.store.SetAlarmStatus(ctx, status); err != nil {
		return fmt.Errorf("persist alarm status: %w", err)
	}

	logger.InfoKV(ctx, "Alarm status changed", "alarm_status", status)

	multierr.AppendInto(failures, e.broadcast(ctx, "alarm status changed", func(l StatusListener) error {
		return l.OnAlarmStatusChanged(ctx, status)
	}))

	return nil
}

// broadcast calls notify for every listener, keeps going after failures and
// returns all of them combined.
func (e *Engine) broadcast(ctx context.Context, event string, notify func(StatusListener) error) error {
	var failures error

	for listener := range e.listeners {
		if err := notify(listener); err != nil {
			logger.ErrorKV(ctx, "Status listener failed", "event", event, "error", err)
			multierr.AppendInto(&failures, fmt.Errorf("%w: %s: %w", ErrListenerFailed, event, err))
		}
	}

	return failures
}

// trackedSensor finds the stored copy of the sensor with the given key.
func (e *Engine) trackedSensor(ctx context.Context, key domain.SensorKey) (*domain.Sensor, error) {
	sensors, err := e.store.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}

	for _, sensor := range sensors {
		if sensor.Key() == key {
			return sensor, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUntrackedSensor, key)
}
