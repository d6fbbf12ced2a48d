package authz

import (
	"slices"
	"time"

	"github.com/dmitrymomot/authzkit/pkg/abac"
	"github.com/dmitrymomot/authzkit/pkg/clearance"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// PermissionStatus marks whether a permission definition is usable.
type PermissionStatus string

const (
	PermissionActive    PermissionStatus = "active"
	PermissionSuspended PermissionStatus = "suspended"
	PermissionRetired   PermissionStatus = "retired"
)

// PermissionScope distinguishes permissions bound to a resource type
// from global administrative ones.
type PermissionScope string

const (
	ScopeInstance PermissionScope = "instance"
	ScopeGlobal   PermissionScope = "global"
)

// RiskLevel classifies a permission for audit and approval workflows.
// It never influences the decision itself.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Permission is a named capability with its attached constraint chain.
// Zero-value constraint fields impose nothing.
type Permission struct {
	ID           string
	Name         string
	ResourceType string
	Action       string
	Scope        PermissionScope
	Status       PermissionStatus

	RequiredClearance clearance.Level
	MinClassification *clearance.Classification
	TimeRestriction   *restriction.Time
	GeoRestriction    *restriction.Geo

	// AttributeConstraints and ResourceConstraints are both full
	// constraint documents; they are kept separate so policy authors
	// can manage principal-facing and resource-facing rules
	// independently. Both must pass.
	AttributeConstraints *abac.Document
	ResourceConstraints  *abac.Document

	// Condition is an optional expression evaluated last in the chain.
	Condition string

	Risk             RiskLevel
	RequiresAudit    bool
	RequiresApproval bool
}

// Enabled reports whether the permission may be considered at all.
// An unset status counts as active so hand-built fixtures stay terse.
func (p *Permission) Enabled() bool {
	return p != nil && (p.Status == "" || p.Status == PermissionActive)
}

// MaxRoleDepth caps role inheritance traversal. Hierarchies deeper
// than this almost certainly contain a cycle the guard already broke;
// the cap bounds pathological graphs.
const MaxRoleDepth = 10

// Role groups permissions and may inherit from parent roles.
type Role struct {
	ID          string
	Name        string
	Active      bool
	Permissions []*Permission
	Parents     []*Role
}

// AllPermissions returns the role's own permissions plus everything
// inherited from active ancestors. Cycles in the parent graph are
// tolerated: each role contributes once.
func (r *Role) AllPermissions() []*Permission {
	if r == nil {
		return nil
	}
	var out []*Permission
	seen := make(map[string]struct{})
	collectPermissions(r, seen, &out, 0)
	return out
}

func collectPermissions(r *Role, seen map[string]struct{}, out *[]*Permission, depth int) {
	if r == nil || depth > MaxRoleDepth {
		return
	}
	if _, done := seen[r.ID]; done {
		return
	}
	seen[r.ID] = struct{}{}

	*out = append(*out, r.Permissions...)
	for _, parent := range r.Parents {
		if parent != nil && parent.Active {
			collectPermissions(parent, seen, out, depth+1)
		}
	}
}

// Window bounds an assignment, grant, or delegation in time. Zero
// endpoints are open.
type Window struct {
	From  time.Time
	Until time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.Until.IsZero() && t.After(w.Until) {
		return false
	}
	return true
}

// RoleAssignment binds a role to a principal for a validity window.
type RoleAssignment struct {
	Role   *Role
	Active bool
	Window Window
}

// EffectiveAt reports whether the assignment contributes at time t.
// Both the assignment and the role itself must be active.
func (a RoleAssignment) EffectiveAt(t time.Time) bool {
	return a.Active && a.Role != nil && a.Role.Active && a.Window.Contains(t)
}

// PermissionGrant is a direct permission held by a principal,
// optionally scoped to a single resource instance and narrowed by an
// extra constraint document.
type PermissionGrant struct {
	Permission *Permission
	Active     bool
	Window     Window

	// ResourceID, when set, restricts the grant to that one resource.
	ResourceID string

	// Constraints narrow this grant beyond the permission's own chain.
	Constraints *abac.Document
}

// EffectiveAt reports whether the grant contributes at time t.
func (g PermissionGrant) EffectiveAt(t time.Time) bool {
	return g.Active && g.Permission.Enabled() && g.Window.Contains(t)
}

// Delegation is authority received from another principal. A full
// delegation makes the delegator's entire effective permission set
// available transitively; a partial one lists specific permissions.
type Delegation struct {
	ID          string
	DelegatorID string
	Active      bool
	Window      Window

	Full        bool
	Permissions []*Permission

	// Constraints narrow a partial delegation; evaluated against the
	// delegatee, not the delegator. Ignored for full delegations,
	// which re-run the delegator's own chain instead.
	Constraints *abac.Document
}

// EffectiveAt reports whether the delegation contributes at time t.
func (d Delegation) EffectiveAt(t time.Time) bool {
	return d.Active && d.Window.Contains(t)
}

// Principal is the subject snapshot the engine evaluates. Directories
// return it fully hydrated: roles with their permission sets, grants,
// and received delegations.
type Principal struct {
	ID       string
	TenantID string
	Active   bool
	Locked   bool

	Clearance      clearance.Level
	Department     string
	JobTitle       string
	Location       string
	CostCenter     string
	ManagerID      string
	EmployeeNumber string

	RoleAssignments []RoleAssignment
	Grants          []PermissionGrant
	Delegations     []Delegation
}

// Accessible reports whether the principal may receive any grant at
// all. Locked wins over active.
func (p *Principal) Accessible() bool {
	return p != nil && p.Active && !p.Locked
}

// ActiveRoleNames lists the names of roles effective at time t, sorted
// and deduplicated.
func (p *Principal) ActiveRoleNames(t time.Time) []string {
	var names []string
	for _, a := range p.RoleAssignments {
		if a.EffectiveAt(t) {
			names = append(names, a.Role.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Resource is the object snapshot. Classification is optional; when
// set it imposes a clearance floor on every candidate permission.
type Resource struct {
	ID           string
	Type         string
	TenantID     string
	OwnerID      string
	DepartmentID string

	Classification *clearance.Classification
	Region         string
	ProjectID      string
	Attributes     map[string]string
	Active         bool
}

// Request describes one authorization question.
type Request struct {
	PrincipalID  string `json:"principal_id"`
	Action       string `json:"action"`
	ResourceID   string `json:"resource_id,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	TenantID     string `json:"tenant_id,omitempty"`

	ClientIP    string `json:"client_ip,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	SessionID   string `json:"session_id,omitempty"`

	// EmergencyAccess requests break-glass handling; it is only
	// honored when the engine carries an emergency policy and every
	// regular source has already failed to grant.
	EmergencyAccess bool `json:"emergency_access,omitempty"`

	Context    map[string]any    `json:"context,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Result is the decision. Reason names the granting authority source
// or the denial cause and is safe to log and return to callers.
type Result struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
}

// Granted builds a positive Result.
func Granted(reason string) Result { return Result{Granted: true, Reason: reason} }

// Denied builds a negative Result.
func Denied(reason string) Result { return Result{Granted: false, Reason: reason} }
