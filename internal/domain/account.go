package domain

import "time"

// Role enumerates the fixed set of actor roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleEngineer   Role = "engineer"
	RoleAccountant Role = "accountant"
	RoleTally      Role = "tally"
	RoleCustomer   Role = "customer"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleManager, RoleEngineer, RoleAccountant, RoleTally, RoleCustomer}

var roleLabels = map[Role]string{
	RoleAdmin:      "Admin",
	RoleManager:    "Service Manager",
	RoleEngineer:   "Service Engineer",
	RoleAccountant: "Accountant",
	RoleTally:      "Tally User",
	RoleCustomer:   "Customer",
}

// Label returns the display name of the role.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

// Valid reports whether the role is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// StaffAccount is an authenticated actor with exactly one role.
type StaffAccount struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsSuperuser  bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the full name over the username.
func (a *StaffAccount) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Username
}
