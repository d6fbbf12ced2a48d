package directory

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/authzkit/pkg/abac"
	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/clearance"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// Snapshot spec types. Permissions and roles are referenced by ID from
// the entries that use them; references are resolved after the whole
// document is decoded so declaration order does not matter.

type snapshot struct {
	Permissions []permissionSpec `yaml:"permissions"`
	Roles       []roleSpec       `yaml:"roles"`
	Principals  []principalSpec  `yaml:"principals"`
	Resources   []resourceSpec   `yaml:"resources"`
}

type permissionSpec struct {
	ID                   string           `yaml:"id"`
	Name                 string           `yaml:"name"`
	ResourceType         string           `yaml:"resource_type"`
	Action               string           `yaml:"action"`
	Scope                string           `yaml:"scope"`
	Status               string           `yaml:"status"`
	RequiredClearance    string           `yaml:"required_clearance"`
	MinClassification    string           `yaml:"min_classification"`
	TimeRestriction      *timeSpec        `yaml:"time_restriction"`
	GeoRestriction       *restriction.Geo `yaml:"geo_restriction"`
	AttributeConstraints *abac.Document   `yaml:"attribute_constraints"`
	ResourceConstraints  *abac.Document   `yaml:"resource_constraints"`
	Condition            string           `yaml:"condition"`
	Risk                 string           `yaml:"risk"`
	RequiresAudit        bool             `yaml:"requires_audit"`
	RequiresApproval     bool             `yaml:"requires_approval"`
}

// timeSpec is the authoring form of a time restriction: "HH:MM"
// strings and day names instead of struct literals.
type timeSpec struct {
	Start             string   `yaml:"start"`
	End               string   `yaml:"end"`
	Days              []string `yaml:"days"`
	Timezone          string   `yaml:"timezone"`
	BusinessHoursOnly bool     `yaml:"business_hours_only"`
}

type roleSpec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Active      *bool    `yaml:"active"`
	Permissions []string `yaml:"permissions"`
	Parents     []string `yaml:"parents"`
}

type principalSpec struct {
	ID             string `yaml:"id"`
	TenantID       string `yaml:"tenant_id"`
	Active         *bool  `yaml:"active"`
	Locked         bool   `yaml:"locked"`
	Clearance      string `yaml:"clearance"`
	Department     string `yaml:"department"`
	JobTitle       string `yaml:"job_title"`
	Location       string `yaml:"location"`
	CostCenter     string `yaml:"cost_center"`
	ManagerID      string `yaml:"manager_id"`
	EmployeeNumber string `yaml:"employee_number"`

	Roles       []assignmentSpec `yaml:"roles"`
	Grants      []grantSpec      `yaml:"grants"`
	Delegations []delegationSpec `yaml:"delegations"`
}

type assignmentSpec struct {
	Role   string    `yaml:"role"`
	Active *bool     `yaml:"active"`
	From   time.Time `yaml:"from"`
	Until  time.Time `yaml:"until"`
}

type grantSpec struct {
	Permission  string         `yaml:"permission"`
	Active      *bool          `yaml:"active"`
	From        time.Time      `yaml:"from"`
	Until       time.Time      `yaml:"until"`
	ResourceID  string         `yaml:"resource_id"`
	Constraints *abac.Document `yaml:"constraints"`
}

type delegationSpec struct {
	ID          string         `yaml:"id"`
	Delegator   string         `yaml:"delegator"`
	Full        bool           `yaml:"full"`
	Permissions []string       `yaml:"permissions"`
	Constraints *abac.Document `yaml:"constraints"`
	Active      *bool          `yaml:"active"`
	From        time.Time      `yaml:"from"`
	Until       time.Time      `yaml:"until"`
}

type resourceSpec struct {
	ID             string            `yaml:"id"`
	Type           string            `yaml:"type"`
	TenantID       string            `yaml:"tenant_id"`
	OwnerID        string            `yaml:"owner_id"`
	DepartmentID   string            `yaml:"department_id"`
	Classification string            `yaml:"classification"`
	Region         string            `yaml:"region"`
	ProjectID      string            `yaml:"project_id"`
	Attributes     map[string]string `yaml:"attributes"`
	Active         *bool             `yaml:"active"`
}

// LoadFile reads a YAML policy snapshot and returns a Memory store
// hydrated from it.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidSnapshot, err)
	}
	return Parse(data)
}

// Parse decodes a YAML policy snapshot. Unknown fields are rejected so
// policy typos fail at load time instead of silently never matching.
func Parse(data []byte) (*Memory, error) {
	var snap snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, errors.Join(ErrInvalidSnapshot, err)
	}
	return snap.resolve()
}

func (s *snapshot) resolve() (*Memory, error) {
	perms := make(map[string]*authz.Permission, len(s.Permissions))
	for _, spec := range s.Permissions {
		if spec.ID == "" || spec.Name == "" {
			return nil, errors.Join(ErrInvalidSnapshot,
				fmt.Errorf("permission needs both id and name (id=%q name=%q)", spec.ID, spec.Name))
		}
		perm, err := spec.build()
		if err != nil {
			return nil, err
		}
		if _, dup := perms[spec.ID]; dup {
			return nil, errors.Join(ErrInvalidSnapshot, fmt.Errorf("duplicate permission id %q", spec.ID))
		}
		perms[spec.ID] = perm
	}

	roles := make(map[string]*authz.Role, len(s.Roles))
	for _, spec := range s.Roles {
		if spec.ID == "" || spec.Name == "" {
			return nil, errors.Join(ErrInvalidSnapshot,
				fmt.Errorf("role needs both id and name (id=%q name=%q)", spec.ID, spec.Name))
		}
		if _, dup := roles[spec.ID]; dup {
			return nil, errors.Join(ErrInvalidSnapshot, fmt.Errorf("duplicate role id %q", spec.ID))
		}
		roles[spec.ID] = &authz.Role{
			ID:     spec.ID,
			Name:   spec.Name,
			Active: boolOrTrue(spec.Active),
		}
	}

	// Second pass wires role permissions and parents, now that every
	// role exists.
	for _, spec := range s.Roles {
		role := roles[spec.ID]
		for _, pid := range spec.Permissions {
			perm, ok := perms[pid]
			if !ok {
				return nil, errors.Join(ErrUnknownReference,
					fmt.Errorf("role %q references permission %q", spec.ID, pid))
			}
			role.Permissions = append(role.Permissions, perm)
		}
		for _, parentID := range spec.Parents {
			parent, ok := roles[parentID]
			if !ok {
				return nil, errors.Join(ErrUnknownReference,
					fmt.Errorf("role %q references parent %q", spec.ID, parentID))
			}
			role.Parents = append(role.Parents, parent)
		}
	}

	store := NewMemory()

	for _, spec := range s.Principals {
		principal, err := spec.build(perms, roles)
		if err != nil {
			return nil, err
		}
		store.PutPrincipal(principal)
	}

	for _, spec := range s.Resources {
		resource, err := spec.build()
		if err != nil {
			return nil, err
		}
		store.PutResource(resource)
	}

	return store, nil
}

func (spec permissionSpec) build() (*authz.Permission, error) {
	perm := &authz.Permission{
		ID:                   spec.ID,
		Name:                 spec.Name,
		ResourceType:         spec.ResourceType,
		Action:               spec.Action,
		Scope:                authz.PermissionScope(spec.Scope),
		Status:               authz.PermissionStatus(spec.Status),
		GeoRestriction:       spec.GeoRestriction,
		AttributeConstraints: spec.AttributeConstraints,
		ResourceConstraints:  spec.ResourceConstraints,
		Condition:            spec.Condition,
		Risk:                 authz.RiskLevel(spec.Risk),
		RequiresAudit:        spec.RequiresAudit,
		RequiresApproval:     spec.RequiresApproval,
	}

	if spec.RequiredClearance != "" {
		level, err := clearance.ParseLevel(spec.RequiredClearance)
		if err != nil {
			return nil, errors.Join(ErrInvalidSnapshot,
				fmt.Errorf("permission %q: %w", spec.ID, err))
		}
		perm.RequiredClearance = level
	}
	if spec.MinClassification != "" {
		class, err := clearance.ParseClassification(spec.MinClassification)
		if err != nil {
			return nil, errors.Join(ErrInvalidSnapshot,
				fmt.Errorf("permission %q: %w", spec.ID, err))
		}
		perm.MinClassification = &class
	}
	if spec.TimeRestriction != nil {
		window, err := spec.TimeRestriction.build()
		if err != nil {
			return nil, errors.Join(ErrInvalidSnapshot,
				fmt.Errorf("permission %q: %w", spec.ID, err))
		}
		perm.TimeRestriction = window
	}

	return perm, nil
}

func (spec timeSpec) build() (*restriction.Time, error) {
	window := &restriction.Time{
		Timezone:          spec.Timezone,
		BusinessHoursOnly: spec.BusinessHoursOnly,
	}
	if spec.Start != "" {
		start, err := restriction.ParseTimeOfDay(spec.Start)
		if err != nil {
			return nil, err
		}
		window.Start = &start
	}
	if spec.End != "" {
		end, err := restriction.ParseTimeOfDay(spec.End)
		if err != nil {
			return nil, err
		}
		window.End = &end
	}
	for _, name := range spec.Days {
		day, err := restriction.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		window.AllowedDays = append(window.AllowedDays, day)
	}
	return window, nil
}

func (spec principalSpec) build(perms map[string]*authz.Permission, roles map[string]*authz.Role) (*authz.Principal, error) {
	if spec.ID == "" {
		return nil, errors.Join(ErrInvalidSnapshot, errors.New("principal without id"))
	}

	principal := &authz.Principal{
		ID:             spec.ID,
		TenantID:       spec.TenantID,
		Active:         boolOrTrue(spec.Active),
		Locked:         spec.Locked,
		Department:     spec.Department,
		JobTitle:       spec.JobTitle,
		Location:       spec.Location,
		CostCenter:     spec.CostCenter,
		ManagerID:      spec.ManagerID,
		EmployeeNumber: spec.EmployeeNumber,
	}

	if spec.Clearance != "" {
		level, err := clearance.ParseLevel(spec.Clearance)
		if err != nil {
			return nil, errors.Join(ErrInvalidSnapshot,
				fmt.Errorf("principal %q: %w", spec.ID, err))
		}
		principal.Clearance = level
	}

	for _, a := range spec.Roles {
		role, ok := roles[a.Role]
		if !ok {
			return nil, errors.Join(ErrUnknownReference,
				fmt.Errorf("principal %q references role %q", spec.ID, a.Role))
		}
		principal.RoleAssignments = append(principal.RoleAssignments, authz.RoleAssignment{
			Role:   role,
			Active: boolOrTrue(a.Active),
			Window: authz.Window{From: a.From, Until: a.Until},
		})
	}

	for _, g := range spec.Grants {
		perm, ok := perms[g.Permission]
		if !ok {
			return nil, errors.Join(ErrUnknownReference,
				fmt.Errorf("principal %q references permission %q", spec.ID, g.Permission))
		}
		principal.Grants = append(principal.Grants, authz.PermissionGrant{
			Permission:  perm,
			Active:      boolOrTrue(g.Active),
			Window:      authz.Window{From: g.From, Until: g.Until},
			ResourceID:  g.ResourceID,
			Constraints: g.Constraints,
		})
	}

	for _, d := range spec.Delegations {
		delegation := authz.Delegation{
			ID:          d.ID,
			DelegatorID: d.Delegator,
			Active:      boolOrTrue(d.Active),
			Window:      authz.Window{From: d.From, Until: d.Until},
			Full:        d.Full,
			Constraints: d.Constraints,
		}
		for _, pid := range d.Permissions {
			perm, ok := perms[pid]
			if !ok {
				return nil, errors.Join(ErrUnknownReference,
					fmt.Errorf("principal %q delegation %q references permission %q", spec.ID, d.ID, pid))
			}
			delegation.Permissions = append(delegation.Permissions, perm)
		}
		principal.Delegations = append(principal.Delegations, delegation)
	}

	return principal, nil
}

func (spec resourceSpec) build() (*authz.Resource, error) {
	if spec.ID == "" {
		return nil, errors.Join(ErrInvalidSnapshot, errors.New("resource without id"))
	}

	resource := &authz.Resource{
		ID:           spec.ID,
		Type:         spec.Type,
		TenantID:     spec.TenantID,
		OwnerID:      spec.OwnerID,
		DepartmentID: spec.DepartmentID,
		Region:       spec.Region,
		ProjectID:    spec.ProjectID,
		Attributes:   spec.Attributes,
		Active:       boolOrTrue(spec.Active),
	}

	if spec.Classification != "" {
		class, err := clearance.ParseClassification(spec.Classification)
		if err != nil {
			return nil, errors.Join(ErrInvalidSnapshot,
				fmt.Errorf("resource %q: %w", spec.ID, err))
		}
		resource.Classification = &class
	}

	return resource, nil
}

func boolOrTrue(b *bool) bool {
	return b == nil || *b
}
