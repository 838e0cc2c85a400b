package security

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Metadata keys carrying the calling actor.
const (
	MetadataHostname  = "x-actor-hostname"
	MetadataUsername  = "x-actor-username"
	MetadataRequestID = "x-request-id"
)

// actorContextKey is the private key type for storing the actor in a context.
type actorContextKey struct{}

// ActorFromContext returns the actor attached by the interceptor, or nil.
func ActorFromContext(ctx context.Context) *domain.Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*domain.Actor)

	return actor
}

// OutgoingActor attaches the actor to an outgoing client context.
func OutgoingActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, MetadataHostname, actor.Hostname, MetadataUsername, actor.Username)
}

// LoggingInterceptor scopes the logger of every unary call with a request id,
// the method name and the caller, and logs the outcome.
func LoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	requestID := first(md, MetadataRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	actor := actorFromMetadata(md)
	if actor != nil {
		ctx = context.WithValue(ctx, actorContextKey{}, actor)
	}

	ctx = logger.WithFields(ctx, "request_id", requestID, "method", info.FullMethod, "actor", actor.String())

	started := time.Now()
	resp, err := handler(ctx, req)

	if err != nil {
		logger.WarnKV(ctx, "Request failed", "code", status.Code(err).String(), "duration", time.Since(started))
	} else {
		logger.DebugKV(ctx, "Request served", "duration", time.Since(started))
	}

	// Tell the caller which id to quote when reporting problems.
	_ = grpc.SetHeader(ctx, metadata.Pairs(MetadataRequestID, requestID))

	return resp, err
}

func actorFromMetadata(md metadata.MD) *domain.Actor {
	hostname, username := first(md, MetadataHostname), first(md, MetadataUsername)
	if hostname == "" && username == "" {
		return nil
	}

	return &domain.Actor{
		Hostname: hostname,
		Username: username,
	}
}

func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}

	return ""
}
