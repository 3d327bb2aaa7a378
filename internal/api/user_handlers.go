package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecosan/sanitrack/internal/service/user"
)

// ListUsers returns user accounts, optionally filtered by search and role.
//
//	GET /api/users?search=&role=
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := user.ListFilter{
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
	}

	users, err := h.users.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

// CreateUser registers a new account.
//
//	POST /api/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input user.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.users.Create(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicate):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, user.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

type updateUserRequest struct {
	user.UpdateFields
	Password string `json:"password"`
}

// UpdateUser applies a partial update to an account. A non-empty password
// field rotates the credential.
//
//	PUT /api/users/{id}
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.users.Update(r.Context(), id, req.UpdateFields, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, user.ErrLastAdmin):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, user.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeactivateUser disables an account without removing its history.
//
//	DELETE /api/users/{id}
func (h *Handlers) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.users.Deactivate(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, user.ErrLastAdmin):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated", "id": id})
}
