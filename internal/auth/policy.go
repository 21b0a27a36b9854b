package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Capability is an (object, action) pair checked against the role matrix.
type Capability struct {
	Object string
	Action string
}

var (
	CapComplaintCreate = Capability{"complaint", "create"}
	CapComplaintList   = Capability{"complaint", "list"}
	CapComplaintEdit   = Capability{"complaint", "edit"}
	CapAssignmentEdit  = Capability{"assignment", "edit"}
	CapServiceUpdate   = Capability{"service", "update"}
	CapComplaintExport = Capability{"complaint", "export"}
	CapDashboardView   = Capability{"dashboard", "view"}
	CapProductManage   = Capability{"product", "manage"}
	CapStaffManage     = Capability{"staff", "manage"}
)

var staffRoles = []domain.Role{
	domain.RoleAdmin,
	domain.RoleManager,
	domain.RoleEngineer,
	domain.RoleAccountant,
	domain.RoleTally,
}

// defaultGrants is the role capability matrix.
var defaultGrants = map[Capability][]domain.Role{
	CapComplaintCreate: domain.Roles,
	CapComplaintList:   staffRoles,
	CapDashboardView:   staffRoles,
	CapComplaintEdit:   {domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant},
	CapAssignmentEdit:  {domain.RoleManager},
	CapServiceUpdate:   {domain.RoleAdmin, domain.RoleEngineer},
	CapComplaintExport: {domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant},
	CapProductManage:   {domain.RoleAdmin},
	CapStaffManage:     {domain.RoleAdmin},
}

// Policy wraps a casbin enforcer loaded with the capability matrix.
type Policy struct {
	enforcer *casbin.Enforcer
}

// NewPolicy builds the enforcer from the embedded model and grants.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	for capability, roles := range defaultGrants {
		for _, role := range roles {
			if _, err := enforcer.AddPolicy(string(role), capability.Object, capability.Action); err != nil {
				return nil, fmt.Errorf("add policy %s %s:%s: %w", role, capability.Object, capability.Action, err)
			}
		}
	}
	return &Policy{enforcer: enforcer}, nil
}

// Can reports whether role holds the capability. Enforcer errors deny.
func (p *Policy) Can(role domain.Role, capability Capability) bool {
	if p == nil {
		return false
	}
	allowed, err := p.enforcer.Enforce(string(role), capability.Object, capability.Action)
	return err == nil && allowed
}
