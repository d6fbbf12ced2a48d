package abac_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/abac"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

// wednesdayMorning is 2024-01-03 10:30 UTC.
var wednesdayMorning = time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func testUser() *abac.User {
	return &abac.User{
		ID:             "u1",
		TenantID:       "t1",
		Department:     "finance",
		JobTitle:       "analyst",
		Location:       "berlin",
		CostCenter:     "cc-42",
		ManagerID:      "m1",
		EmployeeNumber: "E1234",
		Clearance:      "SECRET",
		Roles:          []string{"editor"},
		Active:         true,
	}
}

func testResource() *abac.Resource {
	return &abac.Resource{
		ID:             "r1",
		Type:           "document",
		TenantID:       "t1",
		OwnerID:        "u1",
		DepartmentID:   "finance",
		Classification: "INTERNAL",
		Region:         "eu-west",
		ProjectID:      "p1",
		Attributes:     map[string]string{"team": "blue"},
		Active:         true,
	}
}

func newEvaluator() *abac.Evaluator {
	return abac.New(abac.WithClock(restriction.FixedClock{T: wednesdayMorning}))
}

func TestEvaluator_UserCategory(t *testing.T) {
	eval := newEvaluator()
	ctx := context.Background()

	tests := []struct {
		name string
		doc  *abac.Document
		want bool
	}{
		{
			name: "department match",
			doc:  &abac.Document{User: &abac.UserConstraint{Department: strptr("finance")}},
			want: true,
		},
		{
			name: "department mismatch",
			doc:  &abac.Document{User: &abac.UserConstraint{Department: strptr("hr")}},
			want: false,
		},
		{
			name: "all exact fields match",
			doc: &abac.Document{User: &abac.UserConstraint{
				JobTitle:   strptr("analyst"),
				Location:   strptr("berlin"),
				CostCenter: strptr("cc-42"),
				ManagerID:  strptr("m1"),
			}},
			want: true,
		},
		{
			name: "employee number pattern match",
			doc:  &abac.Document{User: &abac.UserConstraint{EmployeeNumberPattern: strptr("^E[0-9]{4}$")}},
			want: true,
		},
		{
			name: "employee number pattern mismatch",
			doc:  &abac.Document{User: &abac.UserConstraint{EmployeeNumberPattern: strptr("^X")}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(ctx, tt.doc, testUser(), testResource(), abac.Meta{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_UserCategory_BadPattern(t *testing.T) {
	eval := newEvaluator()
	doc := &abac.Document{User: &abac.UserConstraint{EmployeeNumberPattern: strptr("[")}}

	got, err := eval.Evaluate(context.Background(), doc, testUser(), nil, abac.Meta{})
	assert.False(t, got)
	assert.ErrorIs(t, err, abac.ErrBadPattern)
}

func TestEvaluator_ResourceCategory(t *testing.T) {
	eval := newEvaluator()
	ctx := context.Background()

	tests := []struct {
		name     string
		doc      *abac.Document
		resource *abac.Resource
		want     bool
	}{
		{
			name:     "owner and project match",
			doc:      &abac.Document{Resource: &abac.ResourceConstraint{OwnerID: strptr("u1"), ProjectID: strptr("p1")}},
			resource: testResource(),
			want:     true,
		},
		{
			name:     "classification mismatch",
			doc:      &abac.Document{Resource: &abac.ResourceConstraint{Classification: strptr("RESTRICTED")}},
			resource: testResource(),
			want:     false,
		},
		{
			name:     "custom attribute match",
			doc:      &abac.Document{Resource: &abac.ResourceConstraint{Attributes: map[string]string{"team": "blue"}}},
			resource: testResource(),
			want:     true,
		},
		{
			name:     "custom attribute mismatch",
			doc:      &abac.Document{Resource: &abac.ResourceConstraint{Attributes: map[string]string{"team": "red"}}},
			resource: testResource(),
			want:     false,
		},
		{
			name:     "resource category passes without a resource",
			doc:      &abac.Document{Resource: &abac.ResourceConstraint{OwnerID: strptr("someone-else")}},
			resource: nil,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(ctx, tt.doc, testUser(), tt.resource, abac.Meta{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_EnvironmentCategory(t *testing.T) {
	eval := newEvaluator()
	ctx := context.Background()

	tests := []struct {
		name string
		doc  *abac.Document
		meta abac.Meta
		want bool
	}{
		{
			name: "inside time range on allowed day",
			doc: &abac.Document{Environment: &abac.EnvironmentConstraint{
				TimeRange:   &abac.TimeRange{Start: "09:00", End: "17:00"},
				AllowedDays: []string{"WEDNESDAY"},
			}},
			want: true,
		},
		{
			name: "outside time range",
			doc: &abac.Document{Environment: &abac.EnvironmentConstraint{
				TimeRange: &abac.TimeRange{Start: "11:00", End: "12:00"},
			}},
			want: false,
		},
		{
			name: "wrong day",
			doc: &abac.Document{Environment: &abac.EnvironmentConstraint{
				AllowedDays: []string{"SATURDAY", "SUNDAY"},
			}},
			want: false,
		},
		{
			name: "ip range match",
			doc: &abac.Document{Environment: &abac.EnvironmentConstraint{
				IPRanges: []string{"10.0.0.0/8"},
			}},
			meta: abac.Meta{ClientIP: "10.1.2.3"},
			want: true,
		},
		{
			name: "ip range without client ip denies",
			doc: &abac.Document{Environment: &abac.EnvironmentConstraint{
				IPRanges: []string{"10.0.0.0/8"},
			}},
			meta: abac.Meta{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(ctx, tt.doc, testUser(), testResource(), tt.meta)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_EnvironmentCategory_BadTimeRange(t *testing.T) {
	eval := newEvaluator()
	doc := &abac.Document{Environment: &abac.EnvironmentConstraint{
		TimeRange: &abac.TimeRange{Start: "morning", End: "17:00"},
	}}

	got, err := eval.Evaluate(context.Background(), doc, testUser(), nil, abac.Meta{})
	assert.False(t, got)
	assert.ErrorIs(t, err, abac.ErrBadTimeRange)
}

func TestEvaluator_RelationshipCategory(t *testing.T) {
	eval := newEvaluator()
	ctx := context.Background()

	tests := []struct {
		name     string
		doc      *abac.Document
		user     *abac.User
		resource *abac.Resource
		want     bool
	}{
		{
			name:     "owner requirement satisfied",
			doc:      &abac.Document{Relationship: &abac.RelationshipConstraint{IsOwner: boolptr(true)}},
			user:     testUser(),
			resource: testResource(),
			want:     true,
		},
		{
			name: "owner requirement violated",
			doc:  &abac.Document{Relationship: &abac.RelationshipConstraint{IsOwner: boolptr(true)}},
			user: func() *abac.User {
				u := testUser()
				u.ID = "someone-else"
				return u
			}(),
			resource: testResource(),
			want:     false,
		},
		{
			name:     "same department and tenant",
			doc:      &abac.Document{Relationship: &abac.RelationshipConstraint{SameDepartment: boolptr(true), SameTenant: boolptr(true)}},
			user:     testUser(),
			resource: testResource(),
			want:     true,
		},
		{
			name:     "in hierarchy denies with default resolver",
			doc:      &abac.Document{Relationship: &abac.RelationshipConstraint{InHierarchy: boolptr(true)}},
			user:     testUser(),
			resource: testResource(),
			want:     false,
		},
		{
			name:     "relationship passes without a resource",
			doc:      &abac.Document{Relationship: &abac.RelationshipConstraint{IsOwner: boolptr(true)}},
			user:     testUser(),
			resource: nil,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(ctx, tt.doc, tt.user, tt.resource, abac.Meta{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_RelationshipCategory_CustomResolver(t *testing.T) {
	eval := abac.New(
		abac.WithClock(restriction.FixedClock{T: wednesdayMorning}),
		abac.WithHierarchyResolver(func(_ context.Context, user *abac.User, _ *abac.Resource) (bool, error) {
			return user.ManagerID == "m1", nil
		}),
	)

	doc := &abac.Document{Relationship: &abac.RelationshipConstraint{InHierarchy: boolptr(true)}}
	got, err := eval.Evaluate(context.Background(), doc, testUser(), testResource(), abac.Meta{})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluator_ExpressionCategory(t *testing.T) {
	eval := newEvaluator()
	ctx := context.Background()

	got, err := eval.Evaluate(ctx, &abac.Document{
		Expression: `user.department == resource.department`,
	}, testUser(), testResource(), abac.Meta{})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = eval.Evaluate(ctx, &abac.Document{
		Expression: `user.id == "intruder"`,
	}, testUser(), testResource(), abac.Meta{})
	require.NoError(t, err)
	assert.False(t, got)

	got, err = eval.Evaluate(ctx, &abac.Document{
		Expression: `user.department ==`,
	}, testUser(), testResource(), abac.Meta{})
	assert.False(t, got)
	assert.Error(t, err)
}

func TestEvaluator_AllCategoriesAnded(t *testing.T) {
	eval := newEvaluator()

	doc := &abac.Document{
		User:         &abac.UserConstraint{Department: strptr("finance")},
		Resource:     &abac.ResourceConstraint{OwnerID: strptr("u1")},
		Relationship: &abac.RelationshipConstraint{SameTenant: boolptr(true)},
		Expression:   `user.hasRole("editor")`,
	}
	got, err := eval.Evaluate(context.Background(), doc, testUser(), testResource(), abac.Meta{})
	require.NoError(t, err)
	assert.True(t, got)

	// One failing category fails the whole document.
	doc.User.Department = strptr("hr")
	got, err = eval.Evaluate(context.Background(), doc, testUser(), testResource(), abac.Meta{})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluator_EmptyDocumentPasses(t *testing.T) {
	eval := newEvaluator()

	got, err := eval.Evaluate(context.Background(), nil, testUser(), nil, abac.Meta{})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = eval.Evaluate(context.Background(), &abac.Document{}, testUser(), nil, abac.Meta{})
	require.NoError(t, err)
	assert.True(t, got)
}
