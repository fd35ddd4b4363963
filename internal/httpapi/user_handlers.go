package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"soscancer.org/internal/audit"
	"soscancer.org/internal/auth"
	"soscancer.org/internal/rbac"
	"soscancer.org/internal/user"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// userPatch is the administrative patch; unlike the self-service profile
// patch it may change the role.
type userPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Role  *string `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.users.FindAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": profiles})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := user.New(user.CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     rbac.Role(req.Role),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := a.users.Create(r.Context(), u); err != nil {
		writeDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "users.create", map[string]any{
		"subject_id": u.ID,
		"email":      u.Email,
		"role":       u.Role,
	})
	writeJSON(w, http.StatusCreated, u.Profile())
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.users.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Profile())
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userPatch
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	patch := user.UpdateInput{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if req.Role != nil {
		role := rbac.Role(*req.Role)
		patch.Role = &role
	}
	id := chi.URLParam(r, "id")
	u, err := a.users.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	fields := map[string]any{"subject_id": id}
	if patch.Role != nil {
		fields["role"] = *patch.Role
	}
	_ = audit.LogEvent(r.Context(), "users.update", fields)
	writeJSON(w, http.StatusOK, u.Profile())
}

func (a *API) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.users.Remove(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "users.remove", map[string]any{"subject_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	// A user changes their own password; managing other accounts takes
	// the update_users permission.
	if principal.UserID != id && !principal.HasPermission(rbac.PermUpdateUsers) {
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "users.change_password", map[string]any{"subject_id": id})
	w.WriteHeader(http.StatusNoContent)
}
