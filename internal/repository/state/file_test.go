package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// TestFileStore_Missing verifies a missing file yields defaults without creating it.
func TestFileStore_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.json")

	s, err := NewFileStore(context.Background(), path)
	require.NoError(t, err)

	arming, err := s.ArmingStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Disarmed, arming)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFileStore_CanceledContext verifies no store is returned for a canceled context.
func TestFileStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewFileStore(ctx, filepath.Join(t.TempDir(), "state.json"))
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, s)
}

// TestFileStore_Roundtrip ensures mutations are persisted and reloaded.
func TestFileStore_Roundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewFileStore(ctx, path)
	require.NoError(t, err)

	hall := &domain.Sensor{Name: "Hall", Type: domain.SensorMotion}

	require.NoError(t, s.AddSensor(ctx, hall))
	require.NoError(t, s.UpdateSensor(ctx, &domain.Sensor{Name: "Hall", Type: domain.SensorMotion, Active: true}))
	require.NoError(t, s.SetArmingStatus(ctx, domain.ArmedHome))
	require.NoError(t, s.SetAlarmStatus(ctx, domain.PendingAlarm))

	reloaded, err := NewFileStore(ctx, path)
	require.NoError(t, err)

	arming, err := reloaded.ArmingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedHome, arming)

	alarm, err := reloaded.AlarmStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PendingAlarm, alarm)

	sensors, err := reloaded.Sensors(ctx)
	require.NoError(t, err)
	require.Equal(t, []*domain.Sensor{{Name: "Hall", Type: domain.SensorMotion, Active: true}}, sensors)
}

// TestFileStore_CorruptFile verifies decode errors are reported.
func TestFileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(context.Background(), path)
	require.Error(t, err)
}

// TestFileStore_LockedByOtherProcess verifies writes fail and roll back while
// another holder owns the lock file.
func TestFileStore_LockedByOtherProcess(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewFileStore(context.Background(), path)
	require.NoError(t, err)

	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	defer func() {
		_ = other.Unlock()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.SetArmingStatus(ctx, domain.ArmedAway)
	require.Error(t, err)

	arming, err := s.ArmingStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Disarmed, arming)
}
