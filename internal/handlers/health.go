package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/imposter/pkg/http"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	store  HealthChecker
	driver string
	logger *slog.Logger
}

func NewHealthHandler(store HealthChecker, driver string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, logger: logger}
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Time   string `json:"time"`
}

// Ping handles GET /api/ping
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "theImposter backend is live"})
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Store:  h.driver,
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.store.HealthCheck(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", slog.String("store", h.driver), slog.Any("error", err))
		resp.Status = "unavailable"
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
