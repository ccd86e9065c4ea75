package rbac

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Header names set by the upstream authentication gateway.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

var knownRoles = map[string]struct{}{
	shared.RoleAdmin:    {},
	shared.RoleCustomer: {},
	shared.RoleHR:       {},
}

// ValidRole reports whether role is one the platform understands.
func ValidRole(role string) bool {
	_, ok := knownRoles[role]
	return ok
}

// RequireOwnerOrAdmin is the capability check used by use cases operating on
// caller-owned resources.
func RequireOwnerOrAdmin(p shared.Principal, ownerID string) error {
	if p.Anonymous() {
		return shared.ErrUnauthorized
	}
	if p.IsAdmin() || p.ID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: resource belongs to another user", shared.ErrForbidden)
}

// RequireAnyRole checks the principal against the allowed roles.
func RequireAnyRole(p shared.Principal, roles ...string) error {
	if p.Anonymous() {
		return shared.ErrUnauthorized
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q not permitted", shared.ErrForbidden, p.Role)
}
