package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/memory-gate/internal/site"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	site   *site.Site
	logger *slog.Logger
}

func NewHealthHandler(s *site.Site, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		site:   s,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.site.Store().Ping(ctx); err != nil {
		h.logger.Warn("Unlock store health check failed", "error", err)
		components["store"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["store"] = "healthy"
	}

	if h.site.LoadErr() != nil {
		components["config"] = "failed"
		overallStatus = "degraded"
	} else {
		components["config"] = "loaded"
	}

	// Warming is not a failure
	if h.site.Ready() {
		components["preload"] = "ready"
	} else {
		components["preload"] = "warming"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "memory-gate",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, response)
}
