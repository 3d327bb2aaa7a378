package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ecosan/sanitrack/internal/pkg/logger"
)

const (
	activeCountCacheKey = "dashboard:active_clients"
	activeCountCacheTTL = 60 * time.Second
)

// GetDashboard returns everything the dashboard home needs in one call:
// status breakdown, the expiry alert projection, and the backend-confirmed
// active client count.
//
//	GET /api/dashboard
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	now := h.store.Now()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stats":        h.store.Stats(),
		"alerts":       h.store.Alerts(now),
		"active_count": h.activeCount(r.Context()),
		"loaded":       h.store.Loaded(),
		"error":        h.store.Err(),
		"generated_at": now.UTC(),
	})
}

// activeCount returns the backend count of active clients, cached in Redis
// for a minute. Falls back to the in-memory snapshot when neither the cache
// nor the backend can answer.
func (h *Handlers) activeCount(ctx context.Context) int {
	if h.redisClient != nil {
		if cached, err := h.redisClient.Get(ctx, activeCountCacheKey).Result(); err == nil {
			if n, err := strconv.Atoi(cached); err == nil {
				return n
			}
		}
	}

	if h.counter != nil {
		n, err := h.counter.CountActive(ctx)
		if err == nil {
			if h.redisClient != nil {
				if err := h.redisClient.Set(ctx, activeCountCacheKey, n, activeCountCacheTTL).Err(); err != nil {
					logger.Warn("dashboard count cache write failed", "error", err)
				}
			}
			return n
		}
		logger.Warn("active client count query failed", "error", err)
	}

	return len(h.store.Snapshot())
}
