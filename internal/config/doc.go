// Package config defines the settings used by the catpoint binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the gRPC server address, the optional metrics
// address, the state file location and the cat classifier selection.
package config
