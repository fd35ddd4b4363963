package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"soscancer.org/internal/auth"
	"soscancer.org/internal/ids"
)

// The agenda module is a guarded placeholder: the routes and their
// permission requirements are final, the event storage is not built yet.
// TODO: back these handlers with a persistent event store once the agenda
// data model is settled with the volunteers team.

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartsAt    string `json:"starts_at,omitempty"`
}

func (a *API) handleAgenda(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "agenda events retrieved successfully",
		"user_role": principal.Role,
		"events":    []any{},
	})
}

func (a *API) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "event created successfully",
		"event": map[string]any{
			"id":          ids.New(),
			"title":       req.Title,
			"description": req.Description,
			"starts_at":   req.StartsAt,
		},
	})
}

func (a *API) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "event retrieved successfully",
		"event":   map[string]any{"id": chi.URLParam(r, "id")},
	})
}
