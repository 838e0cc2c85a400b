// Package server runs the catpoint security server.
//
// Run loads settings, opens the file-backed state store, picks the cat
// classifier, builds the decision engine with its logging and metrics
// listeners and serves it over gRPC until the context is canceled.
package server
