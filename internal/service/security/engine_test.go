package security

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	repo "github.com/oshokin/catpoint/internal/repository/state"
)

var (
	errTestClassifier = errors.New("malformed image")
	errTestListener   = errors.New("screen unplugged")
	errTestStore      = errors.New("disk full")
)

// recordingStore wraps the memory store and records every alarm status write.
type recordingStore struct {
	*repo.MemoryStore

	// alarmWrites lists the statuses passed to SetAlarmStatus.
	alarmWrites []domain.AlarmStatus
	// failAlarmWrites makes SetAlarmStatus fail.
	failAlarmWrites bool
	// failArmingReads makes ArmingStatus fail.
	failArmingReads bool
}

func (s *recordingStore) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	if s.failArmingReads {
		return domain.Disarmed, errTestStore
	}

	return s.MemoryStore.ArmingStatus(ctx)
}

func (s *recordingStore) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	if s.failAlarmWrites {
		return errTestStore
	}

	s.alarmWrites = append(s.alarmWrites, status)

	return s.MemoryStore.SetAlarmStatus(ctx, status)
}

// stubClassifier returns a canned answer.
type stubClassifier struct {
	// catFound is the answer to every call.
	catFound bool
	// err is returned instead of an answer when set.
	err error
	// threshold keeps the last requested confidence.
	threshold float32
}

func (c *stubClassifier) ContainsCat(_ context.Context, _ image.Image, threshold float32) (bool, error) {
	c.threshold = threshold

	return c.catFound, c.err
}

// recordingListener records notifications and optionally fails them.
type recordingListener struct {
	// alarms lists notified alarm statuses.
	alarms []domain.AlarmStatus
	// cats lists notified classification results.
	cats []bool
	// sensorBroadcasts counts sensor status notifications.
	sensorBroadcasts int
	// events lists every notification in arrival order.
	events []string
	// err is returned from every callback when set.
	err error
}

func (l *recordingListener) OnSensorStatusChanged(context.Context) error {
	l.sensorBroadcasts++
	l.events = append(l.events, "sensors")

	return l.err
}

func (l *recordingListener) OnCatDetected(_ context.Context, catDetected bool) error {
	l.cats = append(l.cats, catDetected)
	l.events = append(l.events, fmt.Sprintf("cat=%t", catDetected))

	return l.err
}

func (l *recordingListener) OnAlarmStatusChanged(_ context.Context, status domain.AlarmStatus) error {
	l.alarms = append(l.alarms, status)
	l.events = append(l.events, status.String())

	return l.err
}

type fixture struct {
	engine     *Engine
	store      *recordingStore
	classifier *stubClassifier
	sensor     *domain.Sensor
}

// newFixture builds an engine over a store holding one inactive door sensor.
func newFixture(t *testing.T, arming domain.ArmingStatus, alarm domain.AlarmStatus) *fixture {
	t.Helper()

	sensor := &domain.Sensor{Name: "Sensor", Type: domain.SensorDoor}
	store := &recordingStore{
		MemoryStore: repo.NewMemoryStore(&domain.State{
			ArmingStatus: arming,
			AlarmStatus:  alarm,
			Sensors:      []*domain.Sensor{sensor},
		}),
	}
	classifier := new(stubClassifier)

	return &fixture{
		engine:     NewEngine(store, classifier),
		store:      store,
		classifier: classifier,
		sensor:     sensor.Clone(),
	}
}

func (f *fixture) alarmStatus(t *testing.T) domain.AlarmStatus {
	t.Helper()

	status, err := f.engine.AlarmStatus(context.Background())
	require.NoError(t, err)

	return status
}

func (f *fixture) addActiveSensors(t *testing.T, count int) {
	t.Helper()

	for i := range count {
		s := &domain.Sensor{Name: string(rune('A' + i)), Type: domain.SensorWindow, Active: true}
		require.NoError(t, f.store.MemoryStore.AddSensor(context.Background(), s))
	}
}

// TestChangeSensorActivation_ArmedNoAlarm_Pending covers NO_ALARM -> PENDING_ALARM.
func TestChangeSensorActivation_ArmedNoAlarm_Pending(t *testing.T) {
	t.Parallel()

	for _, arming := range []domain.ArmingStatus{domain.ArmedHome, domain.ArmedAway} {
		f := newFixture(t, arming, domain.NoAlarm)

		require.NoError(t, f.engine.ChangeSensorActivation(context.Background(), f.sensor, true))
		require.Equal(t, []domain.AlarmStatus{domain.PendingAlarm}, f.store.alarmWrites, arming.String())
		require.True(t, f.sensor.Active)
	}
}

// TestChangeSensorActivation_ArmedPending_Alarm covers PENDING_ALARM -> ALARM.
func TestChangeSensorActivation_ArmedPending_Alarm(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedAway, domain.PendingAlarm)

	require.NoError(t, f.engine.ChangeSensorActivation(context.Background(), f.sensor, true))
	require.Equal(t, domain.Alarm, f.alarmStatus(t))
}

// TestChangeSensorActivation_AlreadyActivePending_Alarm covers re-activating an active sensor while pending.
func TestChangeSensorActivation_AlreadyActivePending_Alarm(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ArmedHome, domain.NoAlarm)

	require.NoError(t, f.engine.ChangeSensorActivation(ctx, f.sensor, true))
	require.NoError(t, f.engine.ChangeSensorActivation(ctx, f.sensor, true))
	require.Equal(t, []domain.AlarmStatus{domain.PendingAlarm, domain.Alarm}, f.store.alarmWrites)
}

// TestChangeSensorActivation_Disarmed_NoChange verifies activity is ignored while disarmed.
func TestChangeSensorActivation_Disarmed_NoChange(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.Disarmed, domain.NoAlarm)

	require.NoError(t, f.engine.ChangeSensorActivation(context.Background(), f.sensor, true))
	require.Empty(t, f.store.alarmWrites)

	sensors, err := f.engine.Sensors(context.Background())
	require.NoError(t, err)
	require.True(t, sensors[0].Active)
}

// TestChangeSensorActivation_PendingLastDeactivated_NoAlarm covers PENDING_ALARM -> NO_ALARM.
func TestChangeSensorActivation_PendingLastDeactivated_NoAlarm(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ArmedHome, domain.NoAlarm)

	require.NoError(t, f.engine.ChangeSensorActivation(ctx, f.sensor, true))
	require.Equal(t, domain.PendingAlarm, f.alarmStatus(t))

	require.NoError(t, f.engine.ChangeSensorActivation(ctx, f.sensor, false))
	require.Equal(t, domain.NoAlarm, f.alarmStatus(t))
}

// TestChangeSensorActivation_Alarm_Sticky verifies sensor changes never leave ALARM.
func TestChangeSensorActivation_Alarm_Sticky(t *testing.T) {
	t.Parallel()

	for _, active := range []bool{true, false} {
		f := newFixture(t, domain.ArmedAway, domain.Alarm)
		f.addActiveSensors(t, 1)

		for _, sensor := range []*domain.Sensor{f.sensor, {Name: "A", Type: domain.SensorWindow}} {
			require.NoError(t, f.engine.ChangeSensorActivation(context.Background(), sensor, active))
		}

		require.Empty(t, f.store.alarmWrites)
		require.Equal(t, domain.Alarm, f.alarmStatus(t))
	}
}

// TestChangeSensorActivation_InactiveDeactivated_NoChange verifies deactivating
// an inactive sensor never touches the alarm status.
func TestChangeSensorActivation_InactiveDeactivated_NoChange(t *testing.T) {
	t.Parallel()

	for _, alarm := range domain.AlarmStatuses() {
		f := newFixture(t, domain.ArmedHome, alarm)

		// The caller's copy claims active; the recorded flag wins.
		f.sensor.Active = true

		require.NoError(t, f.engine.ChangeSensorActivation(context.Background(), f.sensor, false))
		require.Empty(t, f.store.alarmWrites, alarm.String())
		require.Equal(t, alarm, f.alarmStatus(t))
	}
}

// TestChangeSensorActivation_Untracked verifies unknown sensors are rejected without side effects.
func TestChangeSensorActivation_Untracked(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedHome, domain.NoAlarm)
	ghost := &domain.Sensor{Name: "Ghost", Type: domain.SensorMotion}

	err := f.engine.ChangeSensorActivation(context.Background(), ghost, true)
	require.ErrorIs(t, err, ErrUntrackedSensor)
	require.Empty(t, f.store.alarmWrites)
	require.False(t, ghost.Active)

	require.Error(t, f.engine.ChangeSensorActivation(context.Background(), nil, true))
}

// TestProcessImage_CatArmedHome_Alarm covers a cat spotted while armed home.
func TestProcessImage_CatArmedHome_Alarm(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedHome, domain.NoAlarm)
	f.classifier.catFound = true

	require.NoError(t, f.engine.ProcessImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))))
	require.Equal(t, domain.Alarm, f.alarmStatus(t))
	require.True(t, f.engine.CatSpotted())
	require.InDelta(t, 50.0, f.classifier.threshold, 0)
}

// TestProcessImage_CatArmedAway_NoAlarm verifies only armed home reacts to cats.
func TestProcessImage_CatArmedAway_NoAlarm(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedAway, domain.PendingAlarm)
	f.classifier.catFound = true

	require.NoError(t, f.engine.ProcessImage(context.Background(), nil))
	require.Equal(t, []domain.AlarmStatus{domain.NoAlarm}, f.store.alarmWrites)
	require.True(t, f.engine.CatSpotted())
}

// TestProcessImage_NoCat_NoAlarm verifies no cat always clears the alarm, active sensors or not.
func TestProcessImage_NoCat_NoAlarm(t *testing.T) {
	t.Parallel()

	for _, alarm := range domain.AlarmStatuses() {
		f := newFixture(t, domain.ArmedHome, alarm)
		f.addActiveSensors(t, 2)

		require.NoError(t, f.engine.ProcessImage(context.Background(), nil))
		require.Equal(t, []domain.AlarmStatus{domain.NoAlarm}, f.store.alarmWrites)
		require.False(t, f.engine.CatSpotted())
	}
}

// TestProcessImage_ClassifierFailure verifies the error surfaces and nothing changes.
func TestProcessImage_ClassifierFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedHome, domain.PendingAlarm)
	f.classifier.err = errTestClassifier

	listener := new(recordingListener)
	f.engine.AddStatusListener(listener)

	err := f.engine.ProcessImage(context.Background(), nil)
	require.ErrorIs(t, err, ErrClassifierFailed)
	require.ErrorIs(t, err, errTestClassifier)
	require.Empty(t, f.store.alarmWrites)
	require.Empty(t, listener.cats)
	require.Equal(t, domain.PendingAlarm, f.alarmStatus(t))
}

// TestProcessImage_ArmingReadFailure verifies the cat memory is untouched when
// the arming status cannot be read.
func TestProcessImage_ArmingReadFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedAway, domain.NoAlarm)
	f.classifier.catFound = true
	f.store.failArmingReads = true

	listener := new(recordingListener)
	f.engine.AddStatusListener(listener)

	err := f.engine.ProcessImage(context.Background(), nil)
	require.ErrorIs(t, err, errTestStore)
	require.False(t, f.engine.CatSpotted())
	require.Empty(t, listener.events)

	// A later switch to armed home must not act on the failed frame.
	f.store.failArmingReads = false
	require.NoError(t, f.engine.SetArmingStatus(context.Background(), domain.ArmedHome))
	require.Equal(t, domain.NoAlarm, f.alarmStatus(t))
}

// TestNotificationOrder verifies the alarm status is announced before the cat
// result, and the sensor broadcast comes once after the sensor resets.
func TestNotificationOrder(t *testing.T) {
	t.Parallel()

	t.Run("process image then arm home", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, domain.ArmedAway, domain.PendingAlarm)
		f.classifier.catFound = true

		listener := new(recordingListener)
		f.engine.AddStatusListener(listener)

		require.NoError(t, f.engine.ProcessImage(context.Background(), nil))
		require.Equal(t, []string{"NO_ALARM", "cat=true"}, listener.events)

		require.NoError(t, f.engine.SetArmingStatus(context.Background(), domain.ArmedHome))
		require.Equal(t, []string{"NO_ALARM", "cat=true", "ALARM", "sensors"}, listener.events)
	})

	t.Run("arm with active sensors while pending", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, domain.ArmedAway, domain.PendingAlarm)
		f.addActiveSensors(t, 2)

		listener := new(recordingListener)
		f.engine.AddStatusListener(listener)

		require.NoError(t, f.engine.SetArmingStatus(context.Background(), domain.ArmedHome))
		require.Equal(t, []string{"NO_ALARM", "sensors"}, listener.events)
	})
}

// TestSetArmingStatus_Disarmed_NoAlarm covers disarming from every alarm status.
func TestSetArmingStatus_Disarmed_NoAlarm(t *testing.T) {
	t.Parallel()

	for _, alarm := range domain.AlarmStatuses() {
		f := newFixture(t, domain.ArmedAway, alarm)

		require.NoError(t, f.engine.SetArmingStatus(context.Background(), domain.Disarmed))
		require.Equal(t, domain.NoAlarm, f.alarmStatus(t))

		arming, err := f.engine.ArmingStatus(context.Background())
		require.NoError(t, err)
		require.Equal(t, domain.Disarmed, arming)
	}
}

// TestSetArmingStatus_Armed_ResetsSensors verifies arming deactivates every sensor
// for every prior alarm status.
func TestSetArmingStatus_Armed_ResetsSensors(t *testing.T) {
	t.Parallel()

	for _, arming := range []domain.ArmingStatus{domain.ArmedHome, domain.ArmedAway} {
		for _, alarm := range domain.AlarmStatuses() {
			f := newFixture(t, domain.Disarmed, alarm)
			f.addActiveSensors(t, 3)

			require.NoError(t, f.engine.SetArmingStatus(context.Background(), arming))

			sensors, err := f.engine.Sensors(context.Background())
			require.NoError(t, err)
			require.Len(t, sensors, 4)

			for _, sensor := range sensors {
				require.False(t, sensor.Active, "%s after %s/%s", sensor.Key(), arming, alarm)
			}
		}
	}
}

// TestSetArmingStatus_PendingActiveSensors_NoAlarm verifies resetting active sensors
// while pending walks the alarm back.
func TestSetArmingStatus_PendingActiveSensors_NoAlarm(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedAway, domain.PendingAlarm)
	f.addActiveSensors(t, 2)

	require.NoError(t, f.engine.SetArmingStatus(context.Background(), domain.ArmedHome))
	require.Equal(t, []domain.AlarmStatus{domain.NoAlarm}, f.store.alarmWrites)
}

// TestSetArmingStatus_CatRemembered_Alarm verifies a cat seen while disarmed
// triggers the alarm as soon as the system is armed home.
func TestSetArmingStatus_CatRemembered_Alarm(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.Disarmed, domain.NoAlarm)
	f.classifier.catFound = true

	require.NoError(t, f.engine.ProcessImage(ctx, nil))
	require.Equal(t, domain.NoAlarm, f.alarmStatus(t))

	require.NoError(t, f.engine.SetArmingStatus(ctx, domain.ArmedHome))
	require.Equal(t, domain.Alarm, f.alarmStatus(t))
	require.Contains(t, f.store.alarmWrites, domain.Alarm)
}

// TestSetArmingStatus_CatRemembered_ArmedAway verifies armed away ignores the cat memory.
func TestSetArmingStatus_CatRemembered_ArmedAway(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.Disarmed, domain.NoAlarm)
	f.classifier.catFound = true

	require.NoError(t, f.engine.ProcessImage(ctx, nil))
	require.NoError(t, f.engine.SetArmingStatus(ctx, domain.ArmedAway))
	require.Equal(t, domain.NoAlarm, f.alarmStatus(t))
}

// TestSetArmingStatus_Invalid rejects out-of-range statuses.
func TestSetArmingStatus_Invalid(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.Disarmed, domain.NoAlarm)

	require.ErrorIs(t, f.engine.SetArmingStatus(context.Background(), domain.ArmingStatus(9)), ErrInvalidStatus)
	require.ErrorIs(t, f.engine.SetAlarmStatus(context.Background(), domain.AlarmStatus(9)), ErrInvalidStatus)
}

// TestListeners_Notified verifies every listener hears about each step once.
func TestListeners_Notified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.Disarmed, domain.NoAlarm)
	first, second := new(recordingListener), new(recordingListener)

	f.engine.AddStatusListener(first)
	f.engine.AddStatusListener(first)
	f.engine.AddStatusListener(second)
	f.engine.AddStatusListener(nil)

	require.NoError(t, f.engine.SetArmingStatus(ctx, domain.ArmedHome))
	require.NoError(t, f.engine.ChangeSensorActivation(ctx, f.sensor, true))
	require.NoError(t, f.engine.ProcessImage(ctx, nil))

	for _, l := range []*recordingListener{first, second} {
		require.Equal(t, 1, l.sensorBroadcasts)
		require.Equal(t, []domain.AlarmStatus{domain.PendingAlarm, domain.NoAlarm}, l.alarms)
		require.Equal(t, []bool{false}, l.cats)
	}

	f.engine.RemoveStatusListener(second)
	f.engine.RemoveStatusListener(second)

	require.NoError(t, f.engine.SetAlarmStatus(ctx, domain.Alarm))
	require.Len(t, first.alarms, 3)
	require.Len(t, second.alarms, 2)
}

// TestListeners_FailureIsolated verifies a failing listener does not stop the
// broadcast and every failure is reported after the operation.
func TestListeners_FailureIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ArmedAway, domain.PendingAlarm)
	f.addActiveSensors(t, 1)

	broken := &recordingListener{err: errTestListener}
	healthy := new(recordingListener)

	f.engine.AddStatusListener(broken)
	f.engine.AddStatusListener(healthy)

	err := f.engine.SetArmingStatus(ctx, domain.ArmedHome)
	require.ErrorIs(t, err, ErrListenerFailed)
	require.ErrorIs(t, err, errTestListener)

	// One alarm notification plus the sensor broadcast.
	require.Len(t, multierr.Errors(err), 2)

	// The operation still completed for everybody.
	require.Equal(t, []domain.AlarmStatus{domain.NoAlarm}, healthy.alarms)
	require.Equal(t, 1, healthy.sensorBroadcasts)
	require.Equal(t, 1, broken.sensorBroadcasts)

	arming, err := f.engine.ArmingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedHome, arming)
}

// TestStoreFailure_Propagated verifies store errors abort the operation.
func TestStoreFailure_Propagated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ArmedHome, domain.NoAlarm)
	f.store.failAlarmWrites = true

	err := f.engine.ChangeSensorActivation(context.Background(), f.sensor, true)
	require.ErrorIs(t, err, errTestStore)
	require.False(t, f.sensor.Active)

	sensors, err := f.engine.Sensors(context.Background())
	require.NoError(t, err)
	require.False(t, sensors[0].Active)
}

// TestState_Passthroughs covers sensor management and the snapshot.
func TestState_Passthroughs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ArmedAway, domain.NoAlarm)
	window := &domain.Sensor{Name: "Window", Type: domain.SensorWindow}

	require.NoError(t, f.engine.AddSensor(ctx, window))

	state, err := f.engine.State(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedAway, state.ArmingStatus)
	require.Len(t, state.Sensors, 2)

	require.NoError(t, f.engine.RemoveSensor(ctx, window))
	require.ErrorIs(t, f.engine.RemoveSensor(ctx, window), repo.ErrSensorNotFound)
	require.Error(t, f.engine.AddSensor(ctx, nil))

	state, err = f.engine.State(ctx)
	require.NoError(t, err)
	require.Len(t, state.Sensors, 1)
	require.False(t, state.CatSpotted)
}

// TestOnlyListenerFailures distinguishes listener noise from real failures.
func TestOnlyListenerFailures(t *testing.T) {
	t.Parallel()

	listenerErr := fmt.Errorf("%w: cat detected: %w", ErrListenerFailed, errTestListener)

	require.False(t, OnlyListenerFailures(nil))
	require.True(t, OnlyListenerFailures(listenerErr))
	require.True(t, OnlyListenerFailures(multierr.Combine(listenerErr, listenerErr)))
	require.False(t, OnlyListenerFailures(multierr.Combine(errTestStore, listenerErr)))
	require.False(t, OnlyListenerFailures(errTestStore))
}
