package authz

import "strings"

// Wildcard matches any value in a permission's resource type or
// action, and any suffix when used as "prefix.*".
const Wildcard = "*"

// MatchPattern reports whether the pattern covers the value. A bare
// "*" covers everything; "document.*" covers "document.report" but not
// "document" itself; anything else is a case-insensitive exact match.
func MatchPattern(pattern, value string) bool {
	if pattern == Wildcard {
		return true
	}
	if strings.EqualFold(pattern, value) {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return len(prefix) > 0 &&
			strings.HasPrefix(strings.ToLower(value), strings.ToLower(prefix)+".")
	}
	return false
}

// Matches reports whether the permission applies to the request. The
// resource snapshot's type takes precedence over the type named in the
// request; with neither, the type check is skipped and only the action
// must match.
func (p *Permission) Matches(req Request, resource *Resource) bool {
	targetType := req.ResourceType
	if resource != nil {
		targetType = resource.Type
	}
	// Global permissions and type-less requests skip the type check.
	if p.Scope != ScopeGlobal && p.ResourceType != "" && targetType != "" {
		if !MatchPattern(p.ResourceType, targetType) {
			return false
		}
	}
	return MatchPattern(p.Action, req.Action)
}
