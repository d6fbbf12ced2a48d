package authz

import "context"

// PrincipalDirectory resolves principal snapshots. Implementations
// return ErrNotFound for unknown identifiers; any other error is
// reported as an evaluation fault and denies the request.
type PrincipalDirectory interface {
	Principal(ctx context.Context, id string) (*Principal, error)
}

// ResourceDirectory resolves resource snapshots. Same error contract
// as PrincipalDirectory, except an unknown resource does not deny by
// itself: the request is then evaluated without a resource snapshot.
type ResourceDirectory interface {
	Resource(ctx context.Context, id string) (*Resource, error)
}

// AuditSink receives every decision the engine makes. Implementations
// must not block the decision path; slow storage belongs behind an
// async wrapper.
type AuditSink interface {
	Record(ctx context.Context, req Request, res Result)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, Request, Result) {}

// EmergencyPolicy decides break-glass requests after every regular
// authority source has declined. It runs only for requests that set
// EmergencyAccess; without a configured policy such requests are
// denied like any other.
type EmergencyPolicy func(ctx context.Context, principal *Principal, req Request) bool
