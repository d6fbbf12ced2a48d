package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authzkit/pkg/authz"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"document", "document", true},
		{"Document", "document", true},
		{"document", "invoice", false},
		{"document.*", "document.report", true},
		{"document.*", "document.report.v2", true},
		{"document.*", "document", false},
		{"document.*", "documents.report", false},
		{".*", "anything", false},
		{"", "document", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, authz.MatchPattern(tt.pattern, tt.value))
		})
	}
}

func TestPermissionMatches(t *testing.T) {
	perm := &authz.Permission{Name: "document.edit", ResourceType: "document", Action: "edit"}
	doc := &authz.Resource{ID: "doc-1", Type: "document", Active: true}
	invoice := &authz.Resource{ID: "inv-1", Type: "invoice", Active: true}

	assert.True(t, perm.Matches(authz.Request{Action: "edit"}, doc))
	assert.False(t, perm.Matches(authz.Request{Action: "delete"}, doc))
	assert.False(t, perm.Matches(authz.Request{Action: "edit"}, invoice))

	// Without a resource snapshot the request's declared type decides.
	assert.True(t, perm.Matches(authz.Request{Action: "edit", ResourceType: "document"}, nil))
	assert.False(t, perm.Matches(authz.Request{Action: "edit", ResourceType: "invoice"}, nil))
	assert.True(t, perm.Matches(authz.Request{Action: "edit"}, nil))

	// The resource snapshot wins over the declared type.
	assert.False(t, perm.Matches(authz.Request{Action: "edit", ResourceType: "document"}, invoice))
}

func TestPermissionMatches_GlobalScope(t *testing.T) {
	perm := &authz.Permission{
		Name: "system.admin", ResourceType: "system", Action: "*",
		Scope: authz.ScopeGlobal,
	}
	invoice := &authz.Resource{ID: "inv-1", Type: "invoice", Active: true}

	assert.True(t, perm.Matches(authz.Request{Action: "edit"}, invoice))
	assert.True(t, perm.Matches(authz.Request{Action: "purge"}, nil))
}
