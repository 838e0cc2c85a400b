package security

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"  // Register GIF decoding for camera frames.
	_ "image/jpeg" // Register JPEG decoding for camera frames.
	_ "image/png"  // Register PNG decoding for camera frames.

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	engine "github.com/oshokin/catpoint/internal/service/security"
	"github.com/oshokin/catpoint/internal/wire"
)

// Service abstracts the business operations the transport layer depends on.
// Every mutating call returns the resulting state.
type Service interface {
	State(ctx context.Context) (*domain.State, error)
	SetArmingStatus(ctx context.Context, actor *domain.Actor, status domain.ArmingStatus) (*domain.State, error)
	AddSensor(ctx context.Context, actor *domain.Actor, sensor *domain.Sensor) (*domain.State, error)
	RemoveSensor(ctx context.Context, actor *domain.Actor, sensor *domain.Sensor) (*domain.State, error)
	ChangeSensorActivation(
		ctx context.Context,
		actor *domain.Actor,
		sensor *domain.Sensor,
		active bool,
	) (*domain.State, error)
	ProcessImage(ctx context.Context, actor *domain.Actor, img image.Image) (*domain.State, error)
}

// Server implements the SecurityService gRPC API.
type Server struct {
	wire.UnimplementedSecurityServiceServer

	// service provides the business logic for security operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetState returns the current state.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	state, err := s.service.State(ctx)

	return respond(ctx, state, err)
}

// SetArmingStatus arms or disarms the system.
func (s *Server) SetArmingStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	armingStatus, err := wire.ArmingFromRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	state, err := s.service.SetArmingStatus(ctx, ActorFromContext(ctx), armingStatus)

	return respond(ctx, state, err)
}

// AddSensor starts tracking a sensor.
func (s *Server) AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := sensorFromRequest(req)
	if err != nil {
		return nil, err
	}

	state, err := s.service.AddSensor(ctx, ActorFromContext(ctx), sensor)

	return respond(ctx, state, err)
}

// RemoveSensor stops tracking a sensor.
func (s *Server) RemoveSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := sensorFromRequest(req)
	if err != nil {
		return nil, err
	}

	state, err := s.service.RemoveSensor(ctx, ActorFromContext(ctx), sensor)

	return respond(ctx, state, err)
}

// ChangeSensorActivation marks a sensor active or inactive.
func (s *Server) ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := sensorFromRequest(req)
	if err != nil {
		return nil, err
	}

	active, ok := req.GetFields()[wire.FieldActive]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "active is required")
	}

	if _, isBool := active.GetKind().(*structpb.Value_BoolValue); !isBool {
		return nil, status.Error(codes.InvalidArgument, "active must be a boolean")
	}

	state, err := s.service.ChangeSensorActivation(ctx, ActorFromContext(ctx), sensor, sensor.Active)

	return respond(ctx, state, err)
}

// ProcessImage decodes a camera frame and hands it to the engine.
func (s *Server) ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if len(req.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "image is required")
	}

	img, format, err := image.Decode(bytes.NewReader(req.GetValue()))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode image: %v", err)
	}

	logger.DebugKV(ctx, "Camera frame decoded", "format", format, "bounds", img.Bounds().String())

	state, err := s.service.ProcessImage(ctx, ActorFromContext(ctx), img)

	return respond(ctx, state, err)
}

func sensorFromRequest(req *structpb.Struct) (*domain.Sensor, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	sensor, err := wire.SensorFromProto(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	return sensor, nil
}

// respond converts the service result into a response or a status error.
func respond(ctx context.Context, state *domain.State, err error) (*structpb.Struct, error) {
	if err != nil {
		code := codeOf(err)
		if code == codes.Internal {
			logger.ErrorKV(ctx, "Security service call failed", "error", err)

			return nil, status.Error(code, "unable to apply change")
		}

		return nil, status.Error(code, err.Error())
	}

	return wire.StateToProto(state), nil
}

// codeOf maps service errors to gRPC status codes.
func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, engine.ErrUntrackedSensor):
		return codes.NotFound
	case errors.Is(err, engine.ErrClassifierFailed):
		return codes.FailedPrecondition
	case errors.Is(err, engine.ErrInvalidStatus),
		errors.Is(err, domain.ErrUnknownArmingStatus),
		errors.Is(err, domain.ErrUnknownSensorType),
		errors.Is(err, domain.ErrSensorNameRequired):
		return codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}
