package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// Recorder adapts a Storage to the engine's AuditSink. Storage faults
// are logged, never propagated; an audit outage must not take the
// decision path down with it.
type Recorder struct {
	storage Storage
	clock   restriction.Clock
	log     *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock injects the record timestamp source.
func WithClock(clock restriction.Clock) RecorderOption {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLogger sets the logger for storage faults.
func WithLogger(log *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRecorder creates a Recorder over the given storage.
func NewRecorder(storage Storage, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		storage: storage,
		clock:   restriction.SystemClock{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements authz.AuditSink.
func (r *Recorder) Record(ctx context.Context, req authz.Request, res authz.Result) {
	record := Record{
		ID:           uuid.New(),
		Time:         r.clock.Now(),
		PrincipalID:  req.PrincipalID,
		Action:       req.Action,
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		TenantID:     req.TenantID,
		ClientIP:     req.ClientIP,
		CountryCode:  req.CountryCode,
		SessionID:    req.SessionID,
		Emergency:    req.EmergencyAccess,
		Granted:      res.Granted,
		Reason:       res.Reason,
	}

	if err := r.storage.Store(ctx, record); err != nil {
		r.log.ErrorContext(ctx, "failed to store audit record",
			slog.String("principal_id", req.PrincipalID),
			slog.String("action", req.Action),
			slog.Any("error", err))
	}
}
