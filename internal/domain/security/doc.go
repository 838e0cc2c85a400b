// Package security contains core domain types for the home security monitor.
//
// It defines the arming and alarm statuses, the Sensor model with its identity
// key, the Actor that issued a command and the State snapshot handed to
// clients. Clone helpers avoid leaking internal references.
package security
