package directory

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authzkit/pkg/abac"
	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/clearance"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations exposes the embedded schema for pg.Migrate.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The subtree is embedded at compile time; failure here is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return sub
}

// DefaultCatalogTTL bounds how stale the in-process role and
// permission catalog may get. Definitions change rarely compared to
// assignments, so re-reading the catalog on every decision would be
// pure overhead.
const DefaultCatalogTTL = 30 * time.Second

// Postgres serves principal and resource aggregates from the policy
// store. Per-principal data is read on every call; the shared catalog
// of permission and role definitions is cached for a short TTL.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration

	mu        sync.RWMutex
	catalog   *catalog
	refreshed time.Time
}

// catalog is an immutable snapshot of all permission and role
// definitions, with the role graph fully wired.
type catalog struct {
	permissions map[string]*authz.Permission
	roles       map[string]*authz.Role
}

// PostgresOption configures a Postgres directory.
type PostgresOption func(*Postgres)

// WithCatalogTTL overrides the definition cache TTL. Non-positive
// values are ignored.
func WithCatalogTTL(ttl time.Duration) PostgresOption {
	return func(p *Postgres) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// NewPostgres creates a directory over an established pool.
func NewPostgres(pool *pgxpool.Pool, opts ...PostgresOption) *Postgres {
	p := &Postgres{
		pool: pool,
		ttl:  DefaultCatalogTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Principal implements authz.PrincipalDirectory.
func (p *Postgres) Principal(ctx context.Context, id string) (*authz.Principal, error) {
	cat, err := p.currentCatalog(ctx)
	if err != nil {
		return nil, err
	}

	principal, err := p.loadPrincipalRow(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := p.loadAssignments(ctx, principal, cat); err != nil {
		return nil, err
	}
	if err := p.loadGrants(ctx, principal, cat); err != nil {
		return nil, err
	}
	if err := p.loadDelegations(ctx, principal, cat); err != nil {
		return nil, err
	}

	return principal, nil
}

// Resource implements authz.ResourceDirectory.
func (p *Postgres) Resource(ctx context.Context, id string) (*authz.Resource, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, type, tenant_id, owner_id, department_id,
		       classification, region, project_id, attributes, active
		FROM resources WHERE id = $1`, id)

	var (
		r              authz.Resource
		classification *string
		attrs          []byte
	)
	err := row.Scan(&r.ID, &r.Type, &r.TenantID, &r.OwnerID, &r.DepartmentID,
		&classification, &r.Region, &r.ProjectID, &attrs, &r.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return nil, errors.Join(ErrQueryFailed, err)
	}

	if classification != nil && *classification != "" {
		class, err := clearance.ParseClassification(*classification)
		if err != nil {
			return nil, errors.Join(ErrQueryFailed,
				fmt.Errorf("resource %s: %w", id, err))
		}
		r.Classification = &class
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &r.Attributes); err != nil {
			return nil, errors.Join(ErrQueryFailed,
				fmt.Errorf("resource %s attributes: %w", id, err))
		}
	}

	return &r, nil
}

func (p *Postgres) loadPrincipalRow(ctx context.Context, id string) (*authz.Principal, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, tenant_id, active, locked, clearance, department,
		       job_title, location, cost_center, manager_id, employee_number
		FROM principals WHERE id = $1`, id)

	var (
		principal authz.Principal
		level     string
	)
	err := row.Scan(&principal.ID, &principal.TenantID, &principal.Active, &principal.Locked,
		&level, &principal.Department, &principal.JobTitle, &principal.Location,
		&principal.CostCenter, &principal.ManagerID, &principal.EmployeeNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return nil, errors.Join(ErrQueryFailed, err)
	}

	parsed, err := clearance.ParseLevel(level)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, fmt.Errorf("principal %s: %w", id, err))
	}
	principal.Clearance = parsed

	return &principal, nil
}

func (p *Postgres) loadAssignments(ctx context.Context, principal *authz.Principal, cat *catalog) error {
	rows, err := p.pool.Query(ctx, `
		SELECT role_id, active, valid_from, valid_until
		FROM role_assignments WHERE principal_id = $1`, principal.ID)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roleID     string
			active     bool
			from, till *time.Time
		)
		if err := rows.Scan(&roleID, &active, &from, &till); err != nil {
			return errors.Join(ErrQueryFailed, err)
		}
		role, ok := cat.roles[roleID]
		if !ok {
			// Assignment points at a role deleted since the catalog
			// refresh; skip rather than fail the whole principal.
			continue
		}
		principal.RoleAssignments = append(principal.RoleAssignments, authz.RoleAssignment{
			Role:   role,
			Active: active,
			Window: window(from, till),
		})
	}
	return wrapQueryErr(rows.Err())
}

func (p *Postgres) loadGrants(ctx context.Context, principal *authz.Principal, cat *catalog) error {
	rows, err := p.pool.Query(ctx, `
		SELECT permission_id, active, valid_from, valid_until, resource_id, constraints
		FROM permission_grants WHERE principal_id = $1`, principal.ID)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			permID      string
			active      bool
			from, till  *time.Time
			resourceID  string
			constraints []byte
		)
		if err := rows.Scan(&permID, &active, &from, &till, &resourceID, &constraints); err != nil {
			return errors.Join(ErrQueryFailed, err)
		}
		perm, ok := cat.permissions[permID]
		if !ok {
			continue
		}
		doc, err := parseConstraints(constraints)
		if err != nil {
			return errors.Join(ErrQueryFailed,
				fmt.Errorf("grant of %s to %s: %w", permID, principal.ID, err))
		}
		principal.Grants = append(principal.Grants, authz.PermissionGrant{
			Permission:  perm,
			Active:      active,
			Window:      window(from, till),
			ResourceID:  resourceID,
			Constraints: doc,
		})
	}
	return wrapQueryErr(rows.Err())
}

func (p *Postgres) loadDelegations(ctx context.Context, principal *authz.Principal, cat *catalog) error {
	rows, err := p.pool.Query(ctx, `
		SELECT id, delegator_id, full_delegation, constraints, active, valid_from, valid_until
		FROM delegations WHERE delegatee_id = $1`, principal.ID)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var delegations []authz.Delegation
	for rows.Next() {
		var (
			d           authz.Delegation
			constraints []byte
			from, till  *time.Time
		)
		if err := rows.Scan(&d.ID, &d.DelegatorID, &d.Full, &constraints, &d.Active, &from, &till); err != nil {
			return errors.Join(ErrQueryFailed, err)
		}
		doc, err := parseConstraints(constraints)
		if err != nil {
			return errors.Join(ErrQueryFailed,
				fmt.Errorf("delegation %s: %w", d.ID, err))
		}
		d.Constraints = doc
		d.Window = window(from, till)
		delegations = append(delegations, d)
	}
	if err := rows.Err(); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}

	for i := range delegations {
		d := &delegations[i]
		if d.Full {
			continue
		}
		permRows, err := p.pool.Query(ctx, `
			SELECT permission_id FROM delegation_permissions WHERE delegation_id = $1`, d.ID)
		if err != nil {
			return errors.Join(ErrQueryFailed, err)
		}
		for permRows.Next() {
			var permID string
			if err := permRows.Scan(&permID); err != nil {
				permRows.Close()
				return errors.Join(ErrQueryFailed, err)
			}
			if perm, ok := cat.permissions[permID]; ok {
				d.Permissions = append(d.Permissions, perm)
			}
		}
		permRows.Close()
		if err := permRows.Err(); err != nil {
			return errors.Join(ErrQueryFailed, err)
		}
	}

	principal.Delegations = delegations
	return nil
}

// currentCatalog returns the cached definition snapshot, refreshing it
// once the TTL has lapsed. Concurrent refreshes are collapsed behind
// the write lock; losers reuse the winner's snapshot.
func (p *Postgres) currentCatalog(ctx context.Context) (*catalog, error) {
	p.mu.RLock()
	cat, fresh := p.catalog, time.Since(p.refreshed) < p.ttl
	p.mu.RUnlock()
	if cat != nil && fresh {
		return cat, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.catalog != nil && time.Since(p.refreshed) < p.ttl {
		return p.catalog, nil
	}

	cat, err := p.loadCatalog(ctx)
	if err != nil {
		// Serve the stale catalog if one exists; a decision made on
		// slightly old definitions beats an outage.
		if p.catalog != nil {
			return p.catalog, nil
		}
		return nil, err
	}

	p.catalog = cat
	p.refreshed = time.Now()
	return cat, nil
}

func (p *Postgres) loadCatalog(ctx context.Context) (*catalog, error) {
	cat := &catalog{
		permissions: make(map[string]*authz.Permission),
		roles:       make(map[string]*authz.Role),
	}

	if err := p.loadPermissionDefs(ctx, cat); err != nil {
		return nil, err
	}
	if err := p.loadRoleDefs(ctx, cat); err != nil {
		return nil, err
	}

	return cat, nil
}

func (p *Postgres) loadPermissionDefs(ctx context.Context, cat *catalog) error {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, resource_type, action, scope, status,
		       required_clearance, min_classification,
		       time_restriction, geo_restriction,
		       attribute_constraints, resource_constraints,
		       condition, risk, requires_audit, requires_approval
		FROM permissions`)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			perm            authz.Permission
			scope, status   string
			level           string
			classification  *string
			timeJSON        []byte
			geoJSON         []byte
			attrDoc, resDoc []byte
			risk            string
		)
		err := rows.Scan(&perm.ID, &perm.Name, &perm.ResourceType, &perm.Action,
			&scope, &status, &level, &classification, &timeJSON, &geoJSON,
			&attrDoc, &resDoc, &perm.Condition, &risk,
			&perm.RequiresAudit, &perm.RequiresApproval)
		if err != nil {
			return errors.Join(ErrQueryFailed, err)
		}

		perm.Scope = authz.PermissionScope(scope)
		perm.Status = authz.PermissionStatus(status)
		perm.Risk = authz.RiskLevel(risk)

		parsed, err := clearance.ParseLevel(level)
		if err != nil {
			return errors.Join(ErrQueryFailed, fmt.Errorf("permission %s: %w", perm.ID, err))
		}
		perm.RequiredClearance = parsed

		if classification != nil && *classification != "" {
			class, err := clearance.ParseClassification(*classification)
			if err != nil {
				return errors.Join(ErrQueryFailed, fmt.Errorf("permission %s: %w", perm.ID, err))
			}
			perm.MinClassification = &class
		}
		if len(timeJSON) > 0 {
			var window restriction.Time
			if err := json.Unmarshal(timeJSON, &window); err != nil {
				return errors.Join(ErrQueryFailed, fmt.Errorf("permission %s time restriction: %w", perm.ID, err))
			}
			perm.TimeRestriction = &window
		}
		if len(geoJSON) > 0 {
			var geo restriction.Geo
			if err := json.Unmarshal(geoJSON, &geo); err != nil {
				return errors.Join(ErrQueryFailed, fmt.Errorf("permission %s geo restriction: %w", perm.ID, err))
			}
			perm.GeoRestriction = &geo
		}
		if perm.AttributeConstraints, err = parseConstraints(attrDoc); err != nil {
			return errors.Join(ErrQueryFailed, fmt.Errorf("permission %s attribute constraints: %w", perm.ID, err))
		}
		if perm.ResourceConstraints, err = parseConstraints(resDoc); err != nil {
			return errors.Join(ErrQueryFailed, fmt.Errorf("permission %s resource constraints: %w", perm.ID, err))
		}

		cat.permissions[perm.ID] = &perm
	}
	return wrapQueryErr(rows.Err())
}

func (p *Postgres) loadRoleDefs(ctx context.Context, cat *catalog) error {
	rows, err := p.pool.Query(ctx, `SELECT id, name, active FROM roles`)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	for rows.Next() {
		var role authz.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Active); err != nil {
			rows.Close()
			return errors.Join(ErrQueryFailed, err)
		}
		cat.roles[role.ID] = &role
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}

	permRows, err := p.pool.Query(ctx, `SELECT role_id, permission_id FROM role_permissions`)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	for permRows.Next() {
		var roleID, permID string
		if err := permRows.Scan(&roleID, &permID); err != nil {
			permRows.Close()
			return errors.Join(ErrQueryFailed, err)
		}
		role, okRole := cat.roles[roleID]
		perm, okPerm := cat.permissions[permID]
		if okRole && okPerm {
			role.Permissions = append(role.Permissions, perm)
		}
	}
	permRows.Close()
	if err := permRows.Err(); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}

	parentRows, err := p.pool.Query(ctx, `SELECT role_id, parent_id FROM role_parents`)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	for parentRows.Next() {
		var roleID, parentID string
		if err := parentRows.Scan(&roleID, &parentID); err != nil {
			parentRows.Close()
			return errors.Join(ErrQueryFailed, err)
		}
		role, okRole := cat.roles[roleID]
		parent, okParent := cat.roles[parentID]
		if okRole && okParent {
			role.Parents = append(role.Parents, parent)
		}
	}
	parentRows.Close()
	return wrapQueryErr(parentRows.Err())
}

func parseConstraints(raw []byte) (*abac.Document, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return abac.Parse(raw)
}

func window(from, till *time.Time) authz.Window {
	var w authz.Window
	if from != nil {
		w.From = *from
	}
	if till != nil {
		w.Until = *till
	}
	return w
}

func wrapQueryErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrQueryFailed, err)
}
