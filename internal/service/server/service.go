package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	repo "github.com/oshokin/catpoint/internal/repository/state"
	"github.com/oshokin/catpoint/internal/service/security"
)

// service serializes access to the engine and shapes its results for the transport.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// engine decides alarm transitions; it has no locking of its own.
	engine *security.Engine
	// mu makes every engine call exclusive.
	mu sync.Mutex
}

// newService creates a service around the engine.
func newService(engine *security.Engine) *service {
	return &service{
		engine: engine,
	}
}

// State returns the current snapshot.
func (s *service) State(ctx context.Context) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.State(ctx)
}

// SetArmingStatus arms or disarms the system.
func (s *service) SetArmingStatus(
	ctx context.Context,
	actor *domain.Actor,
	status domain.ArmingStatus,
) (*domain.State, error) {
	return s.apply(ctx, "set arming status", actor, func(ctx context.Context) error {
		return s.engine.SetArmingStatus(ctx, status)
	})
}

// AddSensor starts tracking a sensor.
func (s *service) AddSensor(ctx context.Context, actor *domain.Actor, sensor *domain.Sensor) (*domain.State, error) {
	return s.apply(ctx, "add sensor", actor, func(ctx context.Context) error {
		return s.engine.AddSensor(ctx, sensor)
	})
}

// RemoveSensor stops tracking a sensor.
func (s *service) RemoveSensor(ctx context.Context, actor *domain.Actor, sensor *domain.Sensor) (*domain.State, error) {
	return s.apply(ctx, "remove sensor", actor, func(ctx context.Context) error {
		err := s.engine.RemoveSensor(ctx, sensor)
		if errors.Is(err, repo.ErrSensorNotFound) {
			return fmt.Errorf("%w: %w", security.ErrUntrackedSensor, err)
		}

		return err
	})
}

// ChangeSensorActivation marks a sensor active or inactive.
func (s *service) ChangeSensorActivation(
	ctx context.Context,
	actor *domain.Actor,
	sensor *domain.Sensor,
	active bool,
) (*domain.State, error) {
	return s.apply(ctx, "change sensor activation", actor, func(ctx context.Context) error {
		return s.engine.ChangeSensorActivation(ctx, sensor, active)
	})
}

// ProcessImage runs cat detection on a camera frame.
func (s *service) ProcessImage(ctx context.Context, actor *domain.Actor, img image.Image) (*domain.State, error) {
	return s.apply(ctx, "process image", actor, func(ctx context.Context) error {
		return s.engine.ProcessImage(ctx, img)
	})
}

// apply runs one engine operation under the lock and returns the resulting state.
// Listener failures are logged; the transition they followed still stands.
func (s *service) apply(
	ctx context.Context,
	operation string,
	actor *domain.Actor,
	call func(ctx context.Context) error,
) (*domain.State, error) {
	ctx = logger.WithKV(ctx, "operation", operation)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := call(ctx); err != nil {
		if !security.OnlyListenerFailures(err) {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}

		logger.WarnKV(ctx, "Operation applied but some listeners failed", "error", err)
	}

	state, err := s.engine.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	logger.InfoKV(
		ctx,
		"Security state updated",
		"actor", actor.String(),
		"arming_status", state.ArmingStatus.String(),
		"alarm_status", state.AlarmStatus.String(),
		"active_sensors", state.ActiveSensors(),
	)

	return state, nil
}
