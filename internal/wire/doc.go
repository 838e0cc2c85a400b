// Package wire describes the catpoint.v1.SecurityService gRPC contract.
//
// Messages are protobuf well-known types: requests and responses are
// google.protobuf.Struct documents, camera frames travel as BytesValue and
// parameterless calls take Empty. The package owns the service descriptor,
// the typed client and the conversions between Struct documents and domain
// types, which are also used for the on-disk state format.
package wire
