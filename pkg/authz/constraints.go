package authz

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authzkit/pkg/abac"
	"github.com/dmitrymomot/authzkit/pkg/condition"
)

// constraintsPass runs the full constraint chain for one candidate
// permission: clearance, resource classification, time window,
// geography, attribute documents, dynamic condition. The extra
// document narrows the candidate beyond the permission itself (grant
// or delegation constraints). Any fault eliminates the candidate
// without affecting the rest of the evaluation.
func (e *Engine) constraintsPass(ctx context.Context, principal *Principal, perm *Permission, extra *abac.Document, req Request, resource *Resource) bool {
	now := e.clock.Now()

	required := perm.RequiredClearance
	if perm.MinClassification != nil {
		if floor := perm.MinClassification.RequiredLevel(); floor > required {
			required = floor
		}
	}
	if !principal.Clearance.CanAccess(required) {
		return false
	}

	if resource != nil && resource.Classification != nil {
		if !principal.Clearance.CanAccess(resource.Classification.RequiredLevel()) {
			return false
		}
	}

	if perm.TimeRestriction != nil && !perm.TimeRestriction.Allows(now) {
		return false
	}

	if perm.GeoRestriction != nil && !perm.GeoRestriction.Allows(req.ClientIP, req.CountryCode) {
		return false
	}

	user := abacUser(principal, now)
	res := abacResource(resource)
	meta := abac.Meta{ClientIP: req.ClientIP}
	for _, doc := range []*abac.Document{perm.AttributeConstraints, perm.ResourceConstraints, extra} {
		if doc.Empty() {
			continue
		}
		ok, err := e.attributes.Evaluate(ctx, doc, user, res, meta)
		if err != nil {
			e.log.WarnContext(ctx, "attribute constraint fault",
				slog.String("permission", perm.Name),
				slog.String("principal_id", principal.ID),
				slog.Any("error", err))
			return false
		}
		if !ok {
			return false
		}
	}

	if perm.Condition != "" {
		ok, err := e.conditions.Evaluate(ctx, perm.Condition, condition.Env{
			User:     conditionUser(principal, now),
			Resource: conditionResource(resource),
			Request:  conditionRequest(req),
		})
		if err != nil {
			e.log.WarnContext(ctx, "condition expression fault",
				slog.String("permission", perm.Name),
				slog.String("principal_id", principal.ID),
				slog.Any("error", err))
			return false
		}
		if !ok {
			return false
		}
	}

	return true
}
