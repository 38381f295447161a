package rest

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const serviceName = "vulntriage"

// checkTimeout bounds each readiness check.
const checkTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler provides HTTP health check endpoints for the triage service.
type HealthHandler struct {
	logger       *slog.Logger
	startTime    time.Time
	checks       map[string]Pinger
	modelsLoaded bool
}

// NewHealthHandler creates a new health check handler. checks may be nil when
// no optional dependency is configured.
func NewHealthHandler(modelsLoaded bool, checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger:       logger,
		startTime:    time.Now(),
		checks:       checks,
		modelsLoaded: modelsLoaded,
	}
}

// HealthResponse is the JSON response for liveness checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// ModelHealthResponse is the body of /health, kept for existing dashboards.
type ModelHealthResponse struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.HandleFunc("GET /health", h.Health)
}

// Healthz handles liveness requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness requests. Every configured dependency is
// pinged; any failure reports 503.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"models": "ok"}
	ready := h.modelsLoaded
	if !ready {
		checks["models"] = "not loaded"
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	resp := ReadinessResponse{Status: "ready", Service: serviceName, Checks: checks}
	code := http.StatusOK
	if !ready {
		resp.Status = "not ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// Health reports whether the scoring models are loaded.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := ModelHealthResponse{Status: "healthy", ModelsLoaded: h.modelsLoaded}
	if !h.modelsLoaded {
		resp.Status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, resp)
}
