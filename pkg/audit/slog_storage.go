package audit

import (
	"context"
	"log/slog"
)

// SlogStorage writes records as structured log lines. Suitable for
// deployments that ship audit trails through their log pipeline
// instead of a database.
type SlogStorage struct {
	log *slog.Logger
}

// NewSlogStorage creates a storage writing through the given logger.
// A nil logger falls back to slog.Default.
func NewSlogStorage(log *slog.Logger) *SlogStorage {
	if log == nil {
		log = slog.Default()
	}
	return &SlogStorage{log: log}
}

// Store implements Storage.
func (s *SlogStorage) Store(ctx context.Context, record Record) error {
	s.log.InfoContext(ctx, "audit record",
		slog.String("id", record.ID.String()),
		slog.Time("time", record.Time),
		slog.String("principal_id", record.PrincipalID),
		slog.String("action", record.Action),
		slog.String("resource_id", record.ResourceID),
		slog.String("tenant_id", record.TenantID),
		slog.String("client_ip", record.ClientIP),
		slog.Bool("emergency", record.Emergency),
		slog.Bool("granted", record.Granted),
		slog.String("reason", record.Reason),
	)
	return nil
}

// StoreBatch implements BatchStorage.
func (s *SlogStorage) StoreBatch(ctx context.Context, records []Record) error {
	for _, record := range records {
		if err := s.Store(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
