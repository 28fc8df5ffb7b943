package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	ping    func() error
	version string
}

// NewHealthHandler создает новый handler для health check.
// ping может быть nil, тогда проверяется только живость процесса.
func NewHealthHandler(logger *slog.Logger, ping func() error, version string) *HealthHandler {
	return &HealthHandler{logger: logger, ping: ping, version: version}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Version: h.version}

	if h.ping != nil {
		if err := h.ping(); err != nil {
			h.logger.Error("health check failed", "error", err)
			status = http.StatusServiceUnavailable
			resp.Status = "unavailable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
