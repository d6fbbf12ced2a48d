package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted authorization decision.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Time         time.Time `json:"time"`
	PrincipalID  string    `json:"principal_id"`
	Action       string    `json:"action"`
	ResourceID   string    `json:"resource_id,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
	TenantID     string    `json:"tenant_id,omitempty"`
	ClientIP     string    `json:"client_ip,omitempty"`
	CountryCode  string    `json:"country_code,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	Emergency    bool      `json:"emergency,omitempty"`
	Granted      bool      `json:"granted"`
	Reason       string    `json:"reason"`
}

// Storage persists single records.
type Storage interface {
	Store(ctx context.Context, record Record) error
}

// BatchStorage persists records in bulk. Backends with batch insert
// support should implement it so the AsyncWriter can amortize I/O.
// A batch must be atomic: all records stored or none.
type BatchStorage interface {
	StoreBatch(ctx context.Context, records []Record) error
}
