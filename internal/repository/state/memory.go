package state

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// ErrSensorNotFound is returned when updating or removing an unknown sensor.
var ErrSensorNotFound = errors.New("sensor not found")

// errSensorRequired is returned when a nil sensor is passed in.
var errSensorRequired = errors.New("sensor must be provided")

// MemoryStore keeps statuses and sensors in memory.
type MemoryStore struct {
	// armingStatus is the current arming status.
	armingStatus domain.ArmingStatus
	// alarmStatus is the current alarm status.
	alarmStatus domain.AlarmStatus
	// sensors holds the tracked sensors by identity.
	sensors map[domain.SensorKey]*domain.Sensor
	// mu protects every field above.
	mu sync.RWMutex
}

// NewMemoryStore creates a store seeded from initial. A nil initial state
// starts disarmed with no alarm and no sensors.
func NewMemoryStore(initial *domain.State) *MemoryStore {
	s := &MemoryStore{
		armingStatus: domain.Disarmed,
		alarmStatus:  domain.NoAlarm,
		sensors:      make(map[domain.SensorKey]*domain.Sensor),
	}

	if initial == nil {
		return s
	}

	s.armingStatus = initial.ArmingStatus
	s.alarmStatus = initial.AlarmStatus

	for _, sensor := range initial.Sensors {
		if sensor != nil {
			s.sensors[sensor.Key()] = sensor.Clone()
		}
	}

	return s
}

// AlarmStatus returns the current alarm status.
func (s *MemoryStore) AlarmStatus(context.Context) (domain.AlarmStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.alarmStatus, nil
}

// SetAlarmStatus stores the alarm status.
func (s *MemoryStore) SetAlarmStatus(_ context.Context, status domain.AlarmStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarmStatus = status

	return nil
}

// ArmingStatus returns the current arming status.
func (s *MemoryStore) ArmingStatus(context.Context) (domain.ArmingStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.armingStatus, nil
}

// SetArmingStatus stores the arming status.
func (s *MemoryStore) SetArmingStatus(_ context.Context, status domain.ArmingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.armingStatus = status

	return nil
}

// Sensors returns copies of the tracked sensors ordered by name, then type.
func (s *MemoryStore) Sensors(context.Context) ([]*domain.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sensorsLocked(), nil
}

// AddSensor starts tracking a sensor. A sensor that is already tracked keeps
// its recorded state.
func (s *MemoryStore) AddSensor(_ context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errSensorRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.addLocked(sensor)

	return nil
}

// RemoveSensor stops tracking a sensor.
func (s *MemoryStore) RemoveSensor(_ context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errSensorRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(sensor.Key())
}

// UpdateSensor stores the Active flag of a tracked sensor.
func (s *MemoryStore) UpdateSensor(_ context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errSensorRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(sensor)
}

// snapshotLocked builds a State; mu must be held.
func (s *MemoryStore) snapshotLocked() *domain.State {
	return &domain.State{
		ArmingStatus: s.armingStatus,
		AlarmStatus:  s.alarmStatus,
		Sensors:      s.sensorsLocked(),
	}
}

func (s *MemoryStore) sensorsLocked() []*domain.Sensor {
	sensors := make([]*domain.Sensor, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		sensors = append(sensors, sensor.Clone())
	}

	slices.SortFunc(sensors, func(a, b *domain.Sensor) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Type, b.Type))
	})

	return sensors
}

// addLocked reports whether the sensor was new.
func (s *MemoryStore) addLocked(sensor *domain.Sensor) bool {
	key := sensor.Key()
	if _, ok := s.sensors[key]; ok {
		return false
	}

	s.sensors[key] = sensor.Clone()

	return true
}

func (s *MemoryStore) removeLocked(key domain.SensorKey) error {
	if _, ok := s.sensors[key]; !ok {
		return fmt.Errorf("%w: %s", ErrSensorNotFound, key)
	}

	delete(s.sensors, key)

	return nil
}

func (s *MemoryStore) updateLocked(sensor *domain.Sensor) error {
	recorded, ok := s.sensors[sensor.Key()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSensorNotFound, sensor.Key())
	}

	recorded.Active = sensor.Active

	return nil
}
