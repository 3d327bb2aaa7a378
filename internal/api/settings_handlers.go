package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecosan/sanitrack/internal/domain"
)

// GetSettings returns the application settings, falling back to defaults
// when none have been saved yet.
//
//	GET /api/settings
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// UpdateSettings validates and persists new application settings.
//
//	PUT /api/settings
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.settings.Update(r.Context(), in)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// ResetSettings restores the default settings.
//
//	POST /api/settings/reset
func (h *Handlers) ResetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Reset(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s)
}
