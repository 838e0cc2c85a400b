// Package security implements the gRPC transport for the security service.
//
// It decodes Struct documents and camera frames into domain values, calls a
// provided business-service interface and maps failures to gRPC status codes.
// A unary interceptor scopes the logger of every call with a request id and
// the calling actor.
package security
