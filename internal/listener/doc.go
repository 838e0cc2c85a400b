// Package listener contains StatusListener implementations used by the server:
// a structured logging listener and a Prometheus metrics listener.
package listener
