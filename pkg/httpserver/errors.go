package httpserver

import "errors"

var (
	// ErrStart wraps listener startup failures, including a second Run
	// call on the same Server.
	ErrStart = errors.New("failed to start HTTP server")

	// ErrShutdown wraps graceful shutdown failures, typically an
	// exceeded shutdown timeout with requests still in flight.
	ErrShutdown = errors.New("failed to shutdown HTTP server gracefully")
)
