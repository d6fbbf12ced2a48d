// Package audit persists authorization decision records.
//
// The Recorder implements the engine's AuditSink and turns every
// decision into an immutable Record. Storage backends range from the
// in-memory store used in tests to structured log output; the
// AsyncWriter wraps any batch-capable storage so that slow backends
// never sit on the decision path.
//
// Typical wiring:
//
//	writer, closeWriter := audit.NewAsyncWriter(storage, audit.AsyncOptions{})
//	defer closeWriter(ctx)
//
//	engine := authz.New(principals, resources,
//	    authz.WithAuditSink(audit.NewRecorder(writer)),
//	)
package audit
