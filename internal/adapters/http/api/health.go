package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/restkit/internal/domain/dispatch"
	"github.com/okian/restkit/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves liveness and metrics.
type HealthHandler struct {
	registry *dispatch.Registry
	metrics  http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(registry *dispatch.Registry) *HealthHandler {
	return &HealthHandler{
		registry: registry,
		metrics:  promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	endpoints := []string{}
	if h.registry != nil {
		endpoints = h.registry.Endpoints()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Endpoints: endpoints})
}

// HandleMetrics serves the Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
