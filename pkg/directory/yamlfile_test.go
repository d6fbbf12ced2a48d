package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/clearance"
	"github.com/dmitrymomot/authzkit/pkg/directory"
)

const policySnapshot = `
permissions:
  - id: p-read
    name: document.read
    resource_type: document
    action: read
  - id: p-edit
    name: document.edit
    resource_type: document
    action: edit
    required_clearance: CONFIDENTIAL
    time_restriction:
      start: "09:00"
      end: "17:00"
      days: [MONDAY, TUESDAY, WEDNESDAY, THURSDAY, FRIDAY]
    geo_restriction:
      blocked_countries: [KP]
    condition: 'user.active'
roles:
  - id: r-viewer
    name: viewer
    permissions: [p-read]
  - id: r-editor
    name: editor
    permissions: [p-edit]
    parents: [r-viewer]
principals:
  - id: u1
    clearance: SECRET
    department: engineering
    roles:
      - role: r-editor
    grants:
      - permission: p-read
        resource_id: doc-2
    delegations:
      - id: d1
        delegator: u2
        full: true
  - id: u2
    active: false
resources:
  - id: doc-1
    type: document
    classification: CONFIDENTIAL
    attributes:
      team: platform
`

func TestParse_Snapshot(t *testing.T) {
	ctx := context.Background()

	store, err := directory.Parse([]byte(policySnapshot))
	require.NoError(t, err)

	u1, err := store.Principal(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, clearance.LevelSecret, u1.Clearance)
	require.Len(t, u1.RoleAssignments, 1)

	editor := u1.RoleAssignments[0].Role
	assert.Equal(t, "editor", editor.Name)
	require.Len(t, editor.Parents, 1)
	assert.Equal(t, "viewer", editor.Parents[0].Name)

	// Inherited and own permissions resolve through the role graph.
	perms := editor.AllPermissions()
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"document.edit", "document.read"}, names)

	edit := perms[0]
	if edit.Name != "document.edit" {
		edit = perms[1]
	}
	assert.Equal(t, clearance.LevelConfidential, edit.RequiredClearance)
	require.NotNil(t, edit.TimeRestriction)
	assert.Len(t, edit.TimeRestriction.AllowedDays, 5)
	require.NotNil(t, edit.GeoRestriction)
	assert.Equal(t, []string{"KP"}, edit.GeoRestriction.BlockedCountries)

	require.Len(t, u1.Grants, 1)
	assert.Equal(t, "doc-2", u1.Grants[0].ResourceID)
	require.Len(t, u1.Delegations, 1)
	assert.True(t, u1.Delegations[0].Full)
	assert.Equal(t, "u2", u1.Delegations[0].DelegatorID)

	u2, err := store.Principal(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, u2.Active, "explicit active: false survives the default")

	doc, err := store.Resource(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, doc.Classification)
	assert.Equal(t, clearance.ClassConfidential, *doc.Classification)
	assert.Equal(t, "platform", doc.Attributes["team"])
	assert.True(t, doc.Active, "active defaults to true")
}

func TestParse_SnapshotDrivesEngine(t *testing.T) {
	ctx := context.Background()

	store, err := directory.Parse([]byte(policySnapshot))
	require.NoError(t, err)

	engine := authz.New(store, store)
	result := engine.Authorize(ctx, authz.Request{
		PrincipalID: "u1", Action: "read", ResourceID: "doc-1",
	})
	require.True(t, result.Granted)
	assert.Equal(t, "Role permission: editor.document.read", result.Reason)
}

func TestParse_Faults(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown role reference",
			yaml: "principals:\n  - id: u1\n    roles:\n      - role: r-missing\n",
			want: directory.ErrUnknownReference,
		},
		{
			name: "unknown permission reference",
			yaml: "roles:\n  - id: r1\n    name: r1\n    permissions: [p-missing]\n",
			want: directory.ErrUnknownReference,
		},
		{
			name: "unknown field rejected",
			yaml: "permissions:\n  - id: p1\n    name: p1\n    nam: typo\n",
			want: directory.ErrInvalidSnapshot,
		},
		{
			name: "bad clearance",
			yaml: "principals:\n  - id: u1\n    clearance: ULTRA\n",
			want: directory.ErrInvalidSnapshot,
		},
		{
			name: "bad time restriction",
			yaml: "permissions:\n  - id: p1\n    name: p1\n    time_restriction:\n      start: \"25:00\"\n",
			want: directory.ErrInvalidSnapshot,
		},
		{
			name: "duplicate permission id",
			yaml: "permissions:\n  - id: p1\n    name: a\n  - id: p1\n    name: b\n",
			want: directory.ErrInvalidSnapshot,
		},
		{
			name: "principal without id",
			yaml: "principals:\n  - department: x\n",
			want: directory.ErrInvalidSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := directory.Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_Windows(t *testing.T) {
	ctx := context.Background()

	snap := `
permissions:
  - id: p1
    name: document.read
    action: read
principals:
  - id: u1
    grants:
      - permission: p1
        from: 2025-01-01T00:00:00Z
        until: 2025-12-31T23:59:59Z
`
	store, err := directory.Parse([]byte(snap))
	require.NoError(t, err)

	u1, err := store.Principal(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u1.Grants, 1)

	w := u1.Grants[0].Window
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.From)
	assert.True(t, w.Contains(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
}
