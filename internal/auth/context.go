package auth

import (
	"context"

	"soscancer.org/internal/rbac"
)

// Principal is the authenticated identity attached to a request. Role is a
// snapshot taken at token issuance, not a live lookup: a role change lands
// on the next refresh, so the staleness window is bounded by the access TTL.
type Principal struct {
	UserID string
	Email  string
	Role   rbac.Role
}

// HasPermission checks the principal's role against the static registry.
func (p Principal) HasPermission(perm rbac.Permission) bool {
	return rbac.HasPermission(p.Role, perm)
}

// HasAnyPermission reports whether the role grants at least one of perms.
func (p Principal) HasAnyPermission(perms ...rbac.Permission) bool {
	return rbac.HasAnyPermission(p.Role, perms...)
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}
