package authz

import (
	"time"

	"github.com/dmitrymomot/authzkit/pkg/abac"
	"github.com/dmitrymomot/authzkit/pkg/condition"
)

// Converters from the engine's domain types to the attribute and
// expression snapshot types. Evaluator packages stay decoupled from
// the directory model on purpose.

func abacUser(p *Principal, now time.Time) *abac.User {
	return &abac.User{
		ID:             p.ID,
		TenantID:       p.TenantID,
		Department:     p.Department,
		JobTitle:       p.JobTitle,
		Location:       p.Location,
		CostCenter:     p.CostCenter,
		ManagerID:      p.ManagerID,
		EmployeeNumber: p.EmployeeNumber,
		Clearance:      p.Clearance.String(),
		Roles:          p.ActiveRoleNames(now),
		Active:         p.Active,
	}
}

func abacResource(r *Resource) *abac.Resource {
	if r == nil {
		return nil
	}
	classification := ""
	if r.Classification != nil {
		classification = r.Classification.String()
	}
	return &abac.Resource{
		ID:             r.ID,
		Type:           r.Type,
		TenantID:       r.TenantID,
		OwnerID:        r.OwnerID,
		DepartmentID:   r.DepartmentID,
		Classification: classification,
		Region:         r.Region,
		ProjectID:      r.ProjectID,
		Attributes:     r.Attributes,
		Active:         r.Active,
	}
}

func conditionUser(p *Principal, now time.Time) *condition.User {
	return &condition.User{
		ID:         p.ID,
		Roles:      p.ActiveRoleNames(now),
		Department: p.Department,
		Clearance:  p.Clearance.String(),
		Tenant:     p.TenantID,
		Active:     p.Active,
	}
}

func conditionResource(r *Resource) *condition.Resource {
	if r == nil {
		return nil
	}
	classification := ""
	if r.Classification != nil {
		classification = r.Classification.String()
	}
	return &condition.Resource{
		ID:             r.ID,
		Type:           r.Type,
		Owner:          r.OwnerID,
		Department:     r.DepartmentID,
		Classification: classification,
		Region:         r.Region,
		Project:        r.ProjectID,
		Active:         r.Active,
		Attributes:     r.Attributes,
	}
}

func conditionRequest(req Request) *condition.Request {
	return &condition.Request{
		Action:      req.Action,
		ClientIP:    req.ClientIP,
		UserAgent:   req.UserAgent,
		SessionID:   req.SessionID,
		Tenant:      req.TenantID,
		CountryCode: req.CountryCode,
		Emergency:   req.EmergencyAccess,
		Context:     req.Context,
		Attributes:  req.Attributes,
	}
}
