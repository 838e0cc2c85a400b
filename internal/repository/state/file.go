package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/wire"
)

// lockRetryDelay is the pause between attempts to take the lock file.
const lockRetryDelay = 20 * time.Millisecond

// ErrLockNotAcquired is returned when the lock file could not be taken.
var ErrLockNotAcquired = errors.New("state file is locked by another process")

// FileStore persists statuses and sensors to a JSON file on disk.
// JSON is produced via protojson from the same Struct documents the gRPC API
// exchanges, so a state file can be read with the client tooling.
type FileStore struct {
	// memory serves reads and holds the state between writes.
	memory *MemoryStore
	// path is the filesystem location of the JSON state file.
	path string
	// lock guards the state file against concurrent writers in other processes.
	lock *flock.Flock
}

// NewFileStore loads the state from path. A missing file yields the default
// state; it is created on the first write.
func NewFileStore(ctx context.Context, path string) (*FileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = filepath.Clean(path)

	initial, err := readStateFile(path)
	if err != nil {
		return nil, err
	}

	return &FileStore{
		memory: NewMemoryStore(initial),
		path:   path,
		lock:   flock.New(path + ".lock"),
	}, nil
}

// Path returns the location of the state file.
func (f *FileStore) Path() string {
	return f.path
}

// AlarmStatus returns the current alarm status.
func (f *FileStore) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	return f.memory.AlarmStatus(ctx)
}

// SetAlarmStatus stores and persists the alarm status.
func (f *FileStore) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	return f.mutate(ctx, func(m *MemoryStore) error {
		m.alarmStatus = status

		return nil
	})
}

// ArmingStatus returns the current arming status.
func (f *FileStore) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	return f.memory.ArmingStatus(ctx)
}

// SetArmingStatus stores and persists the arming status.
func (f *FileStore) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	return f.mutate(ctx, func(m *MemoryStore) error {
		m.armingStatus = status

		return nil
	})
}

// Sensors returns copies of the tracked sensors ordered by name, then type.
func (f *FileStore) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	return f.memory.Sensors(ctx)
}

// AddSensor starts tracking a sensor and persists the change.
func (f *FileStore) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errSensorRequired
	}

	return f.mutate(ctx, func(m *MemoryStore) error {
		m.addLocked(sensor)

		return nil
	})
}

// RemoveSensor stops tracking a sensor and persists the change.
func (f *FileStore) RemoveSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errSensorRequired
	}

	return f.mutate(ctx, func(m *MemoryStore) error {
		return m.removeLocked(sensor.Key())
	})
}

// UpdateSensor stores the Active flag of a tracked sensor and persists it.
func (f *FileStore) UpdateSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil {
		return errSensorRequired
	}

	return f.mutate(ctx, func(m *MemoryStore) error {
		return m.updateLocked(sensor)
	})
}

// mutate applies change to the in-memory state and writes the result to disk.
// When the write fails the in-memory state is rolled back.
func (f *FileStore) mutate(ctx context.Context, change func(m *MemoryStore) error) error {
	m := f.memory

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		previousArming  = m.armingStatus
		previousAlarm   = m.alarmStatus
		previousSensors = make(map[domain.SensorKey]*domain.Sensor, len(m.sensors))
	)

	for key, sensor := range m.sensors {
		previousSensors[key] = sensor.Clone()
	}

	if err := change(m); err != nil {
		return err
	}

	if err := f.write(ctx, m.snapshotLocked()); err != nil {
		m.armingStatus = previousArming
		m.alarmStatus = previousAlarm
		m.sensors = previousSensors

		return err
	}

	return nil
}

// write replaces the state file atomically while holding the lock file.
func (f *FileStore) write(ctx context.Context, state *domain.State) error {
	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}

	if !locked {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = f.lock.Unlock()
	}()

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(wire.StateToProto(state))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// readStateFile loads a state document; a missing file yields nil.
func readStateFile(path string) (*domain.State, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil //nolint:nilnil // Missing file means defaults.
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc structpb.Struct
	if err = protojson.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	state, err := wire.StateFromProto(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return state, nil
}
