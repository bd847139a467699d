package services

import (
	"errors"
	"fmt"
	"slices"
)

// Role is the acting user's role. It only gates UI capabilities and is not
// an authentication mechanism.
type Role string

const (
	RoleHomeowner  Role = "Homeowner"
	RoleContractor Role = "Contractor"
	RoleEngineer   Role = "Engineer"
	RoleDeveloper  Role = "Developer"
	RoleAdmin      Role = "Admin"
)

// DefaultRole applies when no role is supplied.
const DefaultRole = RoleContractor

// Permission names a capability granted to one or more roles.
type Permission string

const (
	PermViewProject       Permission = "view_project"
	PermRequestQuote      Permission = "request_quote"
	PermGenerateDesign    Permission = "generate_design"
	PermEditBudget        Permission = "edit_budget"
	PermDownloadBOM       Permission = "download_bom"
	PermViewSchedule      Permission = "view_schedule"
	PermExportIFC         Permission = "export_ifc"
	PermModifyDesignLogic Permission = "modify_design_logic"
	PermManageUsers       Permission = "manage_users"
	PermSetPricing        Permission = "set_pricing"
	PermIntegratePartners Permission = "integrate_partners"
)

var contractorPerms = []Permission{
	PermGenerateDesign, PermEditBudget, PermDownloadBOM, PermViewSchedule,
	PermViewProject, PermRequestQuote,
}

var rolePermissions = map[Role][]Permission{
	RoleHomeowner:  {PermViewProject, PermRequestQuote},
	RoleContractor: contractorPerms,
	RoleEngineer:   append([]Permission{PermExportIFC, PermModifyDesignLogic}, contractorPerms...),
	RoleDeveloper:  contractorPerms,
	RoleAdmin: append([]Permission{
		PermManageUsers, PermSetPricing, PermIntegratePartners,
		PermExportIFC, PermModifyDesignLogic,
	}, contractorPerms...),
}

// ParseRole returns the named role, or DefaultRole for unknown names.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := rolePermissions[r]; ok {
		return r
	}
	return DefaultRole
}

// Permissions returns the permissions granted to r.
func (r Role) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

// Can reports whether r holds p.
func (r Role) Can(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}

// CanEditQuotation reports whether r may add, edit or delete line items.
func (r Role) CanEditQuotation() bool {
	return r.Can(PermEditBudget)
}

// ErrForbidden is returned when a role lacks a required permission.
var ErrForbidden = errors.New("permission denied")

// Require returns ErrForbidden unless r holds p.
func (r Role) Require(p Permission) error {
	if !r.Can(p) {
		return fmt.Errorf("%w: %s cannot %s", ErrForbidden, r, p)
	}
	return nil
}
