// Package abac evaluates structured attribute-based access control
// constraint documents against a principal, an optional resource, and
// request metadata.
//
// A document is a JSON object with up to five categories, all of which
// must pass when present:
//
//	{
//	  "user":         {"department": "finance", "employeeNumberPattern": "^E[0-9]{4}$"},
//	  "resource":     {"ownerId": "u1", "attributes": {"team": "blue"}},
//	  "environment":  {"timeRange": {"start": "09:00", "end": "17:00"}, "allowedDays": ["MONDAY"]},
//	  "relationship": {"sameDepartment": true},
//	  "expression":   "user.department == resource.department"
//	}
//
// Documents parse into typed structs, so a malformed document is a
// parse error up front rather than a surprise at evaluation time.
//
// When a request carries no resource, the resource and relationship
// categories pass by default. This mirrors the behavior permission
// authors rely on for action-level checks (a constraint about a
// resource is vacuous without one); callers wanting stricter semantics
// should scope such permissions to resource-typed actions.
package abac
