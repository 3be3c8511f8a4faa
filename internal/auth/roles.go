package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// PermissionChecker answers module-level questions for portal users.
type PermissionChecker interface {
	HasPermission(userID, moduleID string, action domain.Action) bool
}

// RequireStaffRole ensures the staff principal has one of the allowed roles.
// With no roles any staff member passes.
func RequireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeStaff || principal.Staff == nil {
			return apperrors.NewForbidden("staff role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Staff.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequirePortalModule lets staff through and checks portal users against
// their permission set.
func RequirePortalModule(checker PermissionChecker, moduleID string, action domain.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType == domain.SubjectTypeStaff {
			return c.Next()
		}
		if principal.Portal == nil || !checker.HasPermission(principal.Portal.ID, moduleID, action) {
			return apperrors.NewDomainError(apperrors.CodeForbidden, "permission denied", fiber.StatusForbidden,
				map[string]any{"module": moduleID, "action": action})
		}
		return c.Next()
	}
}

// RequireAnyPortalModule lets staff through and admits portal users whose
// permission set allows action on at least one of moduleIDs.
func RequireAnyPortalModule(checker PermissionChecker, action domain.Action, moduleIDs ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType == domain.SubjectTypeStaff {
			return c.Next()
		}
		if principal.Portal != nil {
			for _, id := range moduleIDs {
				if checker.HasPermission(principal.Portal.ID, id, action) {
					return c.Next()
				}
			}
		}
		return apperrors.NewDomainError(apperrors.CodeForbidden, "permission denied", fiber.StatusForbidden,
			map[string]any{"modules": moduleIDs, "action": action})
	}
}

// RequireAdminOrModule admits staff administrators and portal users whose
// permission set allows action on moduleID.
func RequireAdminOrModule(checker PermissionChecker, moduleID string, action domain.Action) fiber.Handler {
	staffCheck := RequireStaffRole(domain.StaffRoleAdmin)
	portalCheck := RequirePortalModule(checker, moduleID, action)
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType == domain.SubjectTypeStaff {
			return staffCheck(c)
		}
		return portalCheck(c)
	}
}
