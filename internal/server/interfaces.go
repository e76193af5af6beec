package server

// Server is the lifecycle contract shared by the transport servers this
// package manages.
//
// Implementations block in [RunServer] until shutdown is requested and
// release their listener in [Shutdown].
type Server interface {
	// RunServer starts accepting requests and blocks until the server stops.
	RunServer()

	// Shutdown stops the server gracefully, letting accepted requests finish.
	Shutdown()
}
