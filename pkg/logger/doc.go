// Package logger builds the service's slog.Logger: JSON or text
// output, static service attributes, and per-call attribute injection
// from context (request IDs, principal IDs) via a handler decorator.
package logger
