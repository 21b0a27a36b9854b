package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

var roleAliases = map[string]domain.Role{
	"service_manager":  domain.RoleManager,
	"service_engineer": domain.RoleEngineer,
	"tally_user":       domain.RoleTally,
}

// ResolveRole maps a stored role name to a Role. Staff forms use a few
// long-form names; anything empty or unknown resolves to customer.
func ResolveRole(raw string) domain.Role {
	name := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := roleAliases[name]; ok {
		return alias
	}
	role := domain.Role(name)
	if role.Valid() {
		return role
	}
	return domain.RoleCustomer
}

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}

// RequireCapability ensures the principal's role is granted the capability.
func RequireCapability(policy *Policy, capability Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !policy.Can(principal.Role, capability) {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}
