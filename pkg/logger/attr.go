package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// A nil error yields an empty Attr that slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// PrincipalID records the subject of a decision.
func PrincipalID(id string) slog.Attr {
	return slog.String("principal_id", id)
}

// ResourceID records the object of a decision.
func ResourceID(id string) slog.Attr {
	return slog.String("resource_id", id)
}

// Decision records the outcome of a decision.
func Decision(granted bool, reason string) slog.Attr {
	return slog.Attr{Key: "decision", Value: slog.GroupValue(
		slog.Bool("granted", granted),
		slog.String("reason", reason),
	)}
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}
