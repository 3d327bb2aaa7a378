package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/sanitization"
	"github.com/ecosan/sanitrack/internal/service/client"
)

// clientView is a client record plus the time-derived fields the dashboard
// renders. Derived values are computed at request time, not stored.
type clientView struct {
	domain.Client
	ElapsedDays     int `json:"elapsed_days"`
	RemainingDays   int `json:"remaining_days"`
	DaysUntilExpiry int `json:"days_until_expiry"`
}

func toView(c domain.Client, now time.Time) clientView {
	v := clientView{Client: c}
	v.ElapsedDays = sanitization.ElapsedDays(c.StartDate, now)
	if c.DurationDays > 0 {
		v.Progress = sanitization.ProgressPercent(c.StartDate, c.DurationDays, now)
		v.RemainingDays = sanitization.RemainingDays(c.StartDate, c.DurationDays, now)
		v.DaysUntilExpiry = sanitization.DaysUntilExpiry(c.StartDate, c.DurationDays, now)
	}
	return v
}

// ListClients returns the filtered client snapshot with derived fields.
//
//	GET /api/clients?search=&status=
func (h *Handlers) ListClients(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	status := r.URL.Query().Get("status")

	now := h.store.Now()
	records := h.store.Filter(search, status)

	views := make([]clientView, 0, len(records))
	for _, c := range records {
		views = append(views, toView(c, now))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"clients": views,
		"total":   len(views),
		"loaded":  h.store.Loaded(),
		"error":   h.store.Err(),
	})
}

// GetClient returns a single client record with derived fields.
//
//	GET /api/clients/{id}
func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, ok := h.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "client not found")
		return
	}
	respondJSON(w, http.StatusOK, toView(*c, h.store.Now()))
}

// CreateClient registers a new client record.
//
//	POST /api/clients
func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	var input client.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.store.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, client.ErrInvalidDuration) || isValidationError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toView(*created, h.store.Now()))
}

// UpdateClient applies a partial update to a client record.
//
//	PUT /api/clients/{id}
func (h *Handlers) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields client.UpdateFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.store.Update(r.Context(), id, fields)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			respondError(w, http.StatusNotFound, "client not found")
		case errors.Is(err, client.ErrInvalidDuration) || isValidationError(err):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, toView(*updated, h.store.Now()))
}

// DeleteClient soft-deletes a client record.
//
//	DELETE /api/clients/{id}
func (h *Handlers) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respondError(w, http.StatusNotFound, "client not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ReloadClients forces a fresh snapshot from the backend.
//
//	POST /api/clients/reload
func (h *Handlers) ReloadClients(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Load(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "reloaded",
		"total":  len(h.store.Snapshot()),
	})
}

// GetAlerts returns the expiry alert projection.
//
//	GET /api/alerts
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Alerts(h.store.Now()))
}

// isValidationError distinguishes input errors from backend failures for
// status code selection.
func isValidationError(err error) bool {
	var ve *client.ValidationError
	return errors.As(err, &ve)
}
