package shared

import "context"

// Role names understood by the use-case layer.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RoleHR       = "hr"
)

// Principal is the caller identity handed over by the authentication gateway.
type Principal struct {
	ID   string
	Role string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Anonymous reports whether no identity was supplied.
func (p Principal) Anonymous() bool {
	return p.ID == ""
}

type principalContextKey struct{}

// ContextWithPrincipal stores the caller identity in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the caller identity from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
