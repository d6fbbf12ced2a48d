// Package httpserver runs the decision service's HTTP listener with
// graceful shutdown on SIGINT/SIGTERM or context cancellation, plus a
// health endpoint handler that aggregates dependency probes.
package httpserver
