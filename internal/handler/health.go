package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db                 pinger
	bookkeepingEnabled bool
}

func NewHealthHandler(db pinger, bookkeepingEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, bookkeepingEnabled: bookkeepingEnabled}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness only fails on the database; a missing cashbook is reported but
// does not take the ledger out of rotation.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	httpStatus := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		slog.Warn("readiness check failed: database unreachable", "error", err)
		dbStatus = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	bookkeeping := "disabled"
	if h.bookkeepingEnabled {
		bookkeeping = "enabled"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			"database":    dbStatus,
			"bookkeeping": bookkeeping,
		},
	})
}
