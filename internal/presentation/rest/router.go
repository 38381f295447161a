package rest

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	// Metrics serves GET /metrics when non-nil.
	Metrics     http.Handler
	CORSOrigins []string
	// RateLimit is in requests per second. Zero disables limiting.
	RateLimit int
}

// NewRouter mounts the health and triage routes and wraps them with tracing,
// request logging, rate limiting and CORS, outermost first.
func NewRouter(triage *TriageHandler, health *HealthHandler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	health.RegisterRoutes(mux)
	triage.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	var h http.Handler = CORSMiddleware(cfg.CORSOrigins)(mux)
	if cfg.RateLimit > 0 {
		h = RateLimitMiddleware(NewRateLimiter(cfg.RateLimit))(h)
	}
	h = LoggingMiddleware(logger)(h)
	return otelhttp.NewHandler(h, "vulntriage.http")
}
