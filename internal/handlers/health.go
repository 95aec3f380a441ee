package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nebulagames/story-relay/internal/storage"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	audit    storage.AuditLog
	sessions storage.SessionStore
	logger   *slog.Logger
}

func NewHealthHandler(audit storage.AuditLog, sessions storage.SessionStore, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		audit:    audit,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.audit.Ping(ctx); err != nil {
		h.logger.Warn("Audit log health check failed", "error", err)
		components["audit_log"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["audit_log"] = "healthy"
	}

	if err := h.sessions.Ping(ctx); err != nil {
		h.logger.Warn("Session store health check failed", "error", err)
		components["session_store"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["session_store"] = "healthy"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "story-relay",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response", "error", err)
	}
}
