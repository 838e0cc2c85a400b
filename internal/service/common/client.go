//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/wire"
)

// Client wraps the gRPC SecurityService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the security server.
	conn *grpc.ClientConn
	// api is the SecurityService client interface.
	api wire.SecurityServiceClient
	// actor is sent with every call for the server audit log.
	actor *domain.Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller to the server.
func WithActor(actor *domain.Actor) Option {
	return func(c *Client) {
		c.actor = actor.Clone()
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errSensorRequired is returned when a sensor is not provided but is required for the operation.
	errSensorRequired = errors.New("sensor must be provided")
	// errImageRequired is returned when image bytes are empty.
	errImageRequired = errors.New("image must be provided")
)

// Dial establishes a gRPC connection to the security server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial security server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         wire.NewSecurityServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// State retrieves the current state.
func (c *Client) State(ctx context.Context) (*domain.State, error) {
	return c.call(ctx, "get state", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.GetState(ctx, new(emptypb.Empty))
	})
}

// SetArmingStatus arms or disarms the system.
func (c *Client) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*domain.State, error) {
	return c.call(ctx, "set arming status", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.SetArmingStatus(ctx, wire.ArmingRequest(status))
	})
}

// AddSensor registers a sensor on the server.
func (c *Client) AddSensor(ctx context.Context, sensor *domain.Sensor) (*domain.State, error) {
	if sensor == nil {
		return nil, errSensorRequired
	}

	return c.call(ctx, "add sensor", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.AddSensor(ctx, wire.SensorToProto(sensor))
	})
}

// RemoveSensor unregisters a sensor on the server.
func (c *Client) RemoveSensor(ctx context.Context, sensor *domain.Sensor) (*domain.State, error) {
	if sensor == nil {
		return nil, errSensorRequired
	}

	return c.call(ctx, "remove sensor", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.RemoveSensor(ctx, wire.SensorToProto(sensor))
	})
}

// ChangeSensorActivation marks a sensor active or inactive.
func (c *Client) ChangeSensorActivation(ctx context.Context, sensor *domain.Sensor, active bool) (*domain.State, error) {
	if sensor == nil {
		return nil, errSensorRequired
	}

	request := sensor.Clone()
	request.Active = active

	return c.call(ctx, "change sensor activation", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.ChangeSensorActivation(ctx, wire.SensorToProto(request))
	})
}

// ProcessImage uploads an encoded camera frame (PNG, JPEG or GIF).
func (c *Client) ProcessImage(ctx context.Context, encoded []byte) (*domain.State, error) {
	if len(encoded) == 0 {
		return nil, errImageRequired
	}

	return c.call(ctx, "process image", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.ProcessImage(ctx, wrapperspb.Bytes(encoded))
	})
}

// call runs one RPC with the call timeout and the actor metadata and decodes the state.
func (c *Client) call(
	ctx context.Context,
	operation string,
	rpc func(ctx context.Context) (*structpb.Struct, error),
) (*domain.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := rpc(api.OutgoingActor(callCtx, c.actor))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	state, err := wire.StateFromProto(response)
	if err != nil {
		return nil, fmt.Errorf("%s: decode state: %w", operation, err)
	}

	return state, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
