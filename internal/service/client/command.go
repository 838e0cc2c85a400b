package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Options configures how the CLI reaches the security server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Output receives the rendered state; defaults to stdout.
	Output io.Writer
}

// Action is one call against the server that yields the resulting state.
type Action func(ctx context.Context, client *common.Client) (*domain.State, error)

// Status reads the current state.
func Status() Action {
	return func(ctx context.Context, client *common.Client) (*domain.State, error) {
		return client.State(ctx)
	}
}

// Arm changes the arming status.
func Arm(status domain.ArmingStatus) Action {
	return func(ctx context.Context, client *common.Client) (*domain.State, error) {
		return client.SetArmingStatus(ctx, status)
	}
}

// AddSensor registers a sensor.
func AddSensor(sensor *domain.Sensor) Action {
	return func(ctx context.Context, client *common.Client) (*domain.State, error) {
		return client.AddSensor(ctx, sensor)
	}
}

// RemoveSensor unregisters a sensor.
func RemoveSensor(sensor *domain.Sensor) Action {
	return func(ctx context.Context, client *common.Client) (*domain.State, error) {
		return client.RemoveSensor(ctx, sensor)
	}
}

// SetSensorActive marks a sensor active or inactive.
func SetSensorActive(sensor *domain.Sensor, active bool) Action {
	return func(ctx context.Context, client *common.Client) (*domain.State, error) {
		return client.ChangeSensorActivation(ctx, sensor, active)
	}
}

// SendImage uploads a camera frame read from path.
func SendImage(path string) Action {
	return func(ctx context.Context, client *common.Client) (*domain.State, error) {
		encoded, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}

		return client.ProcessImage(ctx, encoded)
	}
}

// Run connects to the server, performs the action and renders the resulting state.
func Run(ctx context.Context, opts *Options, action Action) error {
	ctx = logger.WithName(ctx, "catpoint-cli")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Calling security server", "server_address", serverAddress, "actor", actor.String())

	state, err := action(ctx, client)
	if err != nil {
		return err
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	return RenderState(output, state)
}
