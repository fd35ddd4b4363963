package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"soscancer.org/internal/auth"
	"soscancer.org/internal/rbac"
)

func (a *API) handleOwnPermissions(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	perms := rbac.PermissionsForRole(principal.Role)
	keys := make([]string, len(perms))
	for i, p := range perms {
		keys[i] = string(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_role":   principal.Role,
		"permissions": keys,
	})
}

func (a *API) handleCheckPermission(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	perm := rbac.Permission(chi.URLParam(r, "permission"))
	if !rbac.ValidPermission(perm) {
		writeError(w, r, http.StatusBadRequest, "unknown permission")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"permission":     perm,
		"has_permission": principal.HasPermission(perm),
		"user_role":      principal.Role,
	})
}

func (a *API) handleAccessibleRoutes(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	routes := rbac.AccessibleRoutes(principal.Role)
	if routes == nil {
		routes = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_role":         principal.Role,
		"accessible_routes": routes,
	})
}

// handlePermissionCatalog exports the whole role→permission table so
// clients hydrate their gating tables from this single source of truth
// instead of maintaining a copy that can drift.
func (a *API) handlePermissionCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"roles": rbac.Catalog(),
	})
}
