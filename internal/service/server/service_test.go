package server

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	repo "github.com/oshokin/catpoint/internal/repository/state"
	"github.com/oshokin/catpoint/internal/service/security"
)

var errTestListener = errors.New("listener is down")

// catClassifier always sees a cat.
type catClassifier struct{}

func (catClassifier) ContainsCat(context.Context, image.Image, float32) (bool, error) {
	return true, nil
}

// brokenListener fails every notification.
type brokenListener struct {
	// calls counts notifications.
	calls int
}

func (b *brokenListener) OnSensorStatusChanged(context.Context) error {
	b.calls++

	return errTestListener
}

func (b *brokenListener) OnCatDetected(context.Context, bool) error {
	b.calls++

	return errTestListener
}

func (b *brokenListener) OnAlarmStatusChanged(context.Context, domain.AlarmStatus) error {
	b.calls++

	return errTestListener
}

func newTestService() (*service, *security.Engine) {
	engine := security.NewEngine(repo.NewMemoryStore(nil), catClassifier{})

	return newService(engine), engine
}

// TestService_Flow drives a full scenario through the service.
func TestService_Flow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestService()
	actor := &domain.Actor{Hostname: "Oleg Shokin", Username: "o.shokin"}
	door := &domain.Sensor{Name: "Front door", Type: domain.SensorDoor}

	state, err := s.AddSensor(ctx, actor, door)
	require.NoError(t, err)
	require.Len(t, state.Sensors, 1)

	state, err = s.SetArmingStatus(ctx, actor, domain.ArmedAway)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedAway, state.ArmingStatus)

	state, err = s.ChangeSensorActivation(ctx, actor, door, true)
	require.NoError(t, err)
	require.Equal(t, domain.PendingAlarm, state.AlarmStatus)
	require.Equal(t, 1, state.ActiveSensors())

	state, err = s.ProcessImage(ctx, actor, image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	require.True(t, state.CatSpotted)
	require.Equal(t, domain.NoAlarm, state.AlarmStatus)

	state, err = s.SetArmingStatus(ctx, actor, domain.ArmedHome)
	require.NoError(t, err)
	require.Equal(t, domain.Alarm, state.AlarmStatus)
	require.Zero(t, state.ActiveSensors())

	current, err := s.State(ctx)
	require.NoError(t, err)
	require.Equal(t, state, current)
}

// TestService_Errors verifies domain errors surface and listener failures do not.
func TestService_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, engine := newTestService()
	ghost := &domain.Sensor{Name: "Ghost", Type: domain.SensorMotion}

	_, err := s.ChangeSensorActivation(ctx, nil, ghost, true)
	require.ErrorIs(t, err, security.ErrUntrackedSensor)

	_, err = s.RemoveSensor(ctx, nil, ghost)
	require.ErrorIs(t, err, security.ErrUntrackedSensor)
	require.ErrorIs(t, err, repo.ErrSensorNotFound)

	broken := new(brokenListener)
	engine.AddStatusListener(broken)

	state, err := s.SetArmingStatus(ctx, nil, domain.Disarmed)
	require.NoError(t, err)
	require.Equal(t, domain.Disarmed, state.ArmingStatus)
	require.Equal(t, 2, broken.calls)
}
