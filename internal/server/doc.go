// Package server wires and runs the sync service's transport servers.
//
// It orchestrates the HTTP and gRPC server lifecycles: startup, OS signal
// handling, and graceful shutdown of every enabled transport. In-flight
// sync rounds are given time to finish before the listeners close.
package server
