// Package leadtable derives the admin lead table from a lead list: free-text
// filtering, page windowing and per-row presentation for a viewer role.
package leadtable

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a lead. Unknown values are kept as-is.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusLost   Status = "lost"
)

// ViewerRole is the perspective the table is rendered for.
type ViewerRole string

const (
	RoleDataAnalyst    ViewerRole = "data_analyst"
	RoleSalesExecutive ViewerRole = "sales_executive"
	RoleGrowthManager  ViewerRole = "growth_manager"
)

var ErrInvalidRole = errors.New("invalid viewer role")

// ParseViewerRole accepts the three known roles, case-insensitively.
func ParseViewerRole(s string) (ViewerRole, error) {
	r := ViewerRole(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleDataAnalyst, RoleSalesExecutive, RoleGrowthManager:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Person is a user referenced by a lead (creator or assignee).
type Person struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ContactPoint is one point of contact at the prospective client.
type ContactPoint struct {
	Name                    string  `json:"name,omitempty"`
	Designation             string  `json:"designation,omitempty"`
	Email                   string  `json:"email,omitempty"`
	Phone                   string  `json:"phone,omitempty"`
	AssignedToGrowthManager *Person `json:"assignedToGrowthManager,omitempty"`
}

// Lead is a read-only CRM record. Nil pointers and empty strings mean the
// field is absent.
type Lead struct {
	ID                       string         `json:"_id,omitempty"`
	CreatedAt                string         `json:"createdAt,omitempty"`
	CompanyName              string         `json:"companyName,omitempty"`
	Industry                 string         `json:"industry,omitempty"`
	Status                   Status         `json:"status,omitempty"`
	Stage                    string         `json:"stage,omitempty"`
	CreatedBy                *Person        `json:"createdBy,omitempty"`
	AssignedToSalesExecutive *Person        `json:"assignedToSalesExecutive,omitempty"`
	AssignedToGrowthManager  *Person        `json:"assignedToGrowthManager,omitempty"`
	ContactPoints            []ContactPoint `json:"contactPoints,omitempty"`
}

// FirstContactGrowthManager returns the growth manager assigned to the first
// contact point, or nil.
func (l *Lead) FirstContactGrowthManager() *Person {
	if len(l.ContactPoints) == 0 {
		return nil
	}
	return l.ContactPoints[0].AssignedToGrowthManager
}
