// Package api exposes the dashboard over HTTP: client records with derived
// sanitization fields, expiry alerts, users, settings, and consent capture.
package api

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/ecosan/sanitrack/internal/consent"
	"github.com/ecosan/sanitrack/internal/service/client"
	"github.com/ecosan/sanitrack/internal/service/settings"
	"github.com/ecosan/sanitrack/internal/service/user"
)

// ActiveCounter reports the number of active client records in the backend.
// The postgres client repository satisfies this.
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	store       *client.Store
	users       *user.Service
	settings    *settings.Service
	consent     *consent.Service
	counter     ActiveCounter
	redisClient *redis.Client
}

// NewHandlers creates the handler set around the client store
func NewHandlers(store *client.Store) *Handlers {
	return &Handlers{store: store}
}

// SetUserService sets the user account service
func (h *Handlers) SetUserService(svc *user.Service) {
	h.users = svc
}

// SetSettingsService sets the application settings service
func (h *Handlers) SetSettingsService(svc *settings.Service) {
	h.settings = svc
}

// SetConsentService sets the consent document service
func (h *Handlers) SetConsentService(svc *consent.Service) {
	h.consent = svc
}

// SetActiveCounter sets the backend counter used by the dashboard endpoint
func (h *Handlers) SetActiveCounter(c ActiveCounter) {
	h.counter = c
}

// SetRedisClient sets the Redis client used for dashboard count caching
func (h *Handlers) SetRedisClient(rdb *redis.Client) {
	h.redisClient = rdb
}
