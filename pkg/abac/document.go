package abac

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Document is a parsed attribute constraint document. Categories are
// AND-ed; a nil category passes.
type Document struct {
	User         *UserConstraint         `json:"user,omitempty" yaml:"user,omitempty"`
	Resource     *ResourceConstraint     `json:"resource,omitempty" yaml:"resource,omitempty"`
	Environment  *EnvironmentConstraint  `json:"environment,omitempty" yaml:"environment,omitempty"`
	Relationship *RelationshipConstraint `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Expression   string                  `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// UserConstraint matches principal attributes. Nil fields are not
// checked; set fields must match exactly, except the employee number
// which is matched as a regular expression.
type UserConstraint struct {
	Department            *string `json:"department,omitempty" yaml:"department,omitempty"`
	JobTitle              *string `json:"jobTitle,omitempty" yaml:"jobTitle,omitempty"`
	Location              *string `json:"location,omitempty" yaml:"location,omitempty"`
	CostCenter            *string `json:"costCenter,omitempty" yaml:"costCenter,omitempty"`
	ManagerID             *string `json:"managerId,omitempty" yaml:"managerId,omitempty"`
	EmployeeNumberPattern *string `json:"employeeNumberPattern,omitempty" yaml:"employeeNumberPattern,omitempty"`
}

// ResourceConstraint matches resource attributes, including an open
// map of custom attribute equality checks.
type ResourceConstraint struct {
	OwnerID        *string           `json:"ownerId,omitempty" yaml:"ownerId,omitempty"`
	DepartmentID   *string           `json:"departmentId,omitempty" yaml:"departmentId,omitempty"`
	Classification *string           `json:"classification,omitempty" yaml:"classification,omitempty"`
	Region         *string           `json:"geographicRegion,omitempty" yaml:"geographicRegion,omitempty"`
	ProjectID      *string           `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// TimeRange bounds the environment category to a wall-clock window.
type TimeRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// EnvironmentConstraint matches the evaluation environment: time of
// day, day of week, and the request's client network.
type EnvironmentConstraint struct {
	TimeRange   *TimeRange `json:"timeRange,omitempty" yaml:"timeRange,omitempty"`
	AllowedDays []string   `json:"allowedDays,omitempty" yaml:"allowedDays,omitempty"`
	IPRanges    []string   `json:"ipRanges,omitempty" yaml:"ipRanges,omitempty"`
}

// RelationshipConstraint matches predicates relating the principal to
// the resource. Only flags set to true impose a requirement, matching
// how policy authors write these documents.
type RelationshipConstraint struct {
	IsOwner        *bool `json:"isOwner,omitempty" yaml:"isOwner,omitempty"`
	SameDepartment *bool `json:"sameDepartment,omitempty" yaml:"sameDepartment,omitempty"`
	SameTenant     *bool `json:"sameTenant,omitempty" yaml:"sameTenant,omitempty"`
	InHierarchy    *bool `json:"inHierarchy,omitempty" yaml:"inHierarchy,omitempty"`
}

// Parse decodes a JSON constraint document. Unknown fields are
// rejected so a typo in a policy fails loudly at authoring time rather
// than silently never matching.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrMalformedDocument, err)
	}
	if dec.More() {
		return nil, errors.Join(ErrMalformedDocument, fmt.Errorf("trailing data after document"))
	}
	return &doc, nil
}

// MustParse is a Parse that panics; intended for fixtures and tests.
func MustParse(data []byte) *Document {
	doc, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return doc
}

// Empty reports whether the document imposes no constraints.
func (d *Document) Empty() bool {
	return d == nil || (d.User == nil && d.Resource == nil && d.Environment == nil &&
		d.Relationship == nil && d.Expression == "")
}
