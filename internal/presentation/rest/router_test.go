package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, modelsLoaded bool, checks map[string]Pinger, cfg RouterConfig) http.Handler {
	t.Helper()
	return NewRouter(newFixture().handler, NewHealthHandler(modelsLoaded, checks, testLogger()), cfg, testLogger())
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(newRouter(t, true, nil, RouterConfig{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "vulntriage", body.Service)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		loaded bool
		status string
	}{
		{"models loaded", true, "healthy"},
		{"models missing", false, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newRouter(t, tt.loaded, nil, RouterConfig{}), httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode[ModelHealthResponse](t, rec)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.loaded, body.ModelsLoaded)
		})
	}
}

func TestReadyz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all checks pass", func(t *testing.T) {
		h := newRouter(t, true, map[string]Pinger{"database": ok}, RouterConfig{})
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[ReadinessResponse](t, rec)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, map[string]string{"models": "ok", "database": "ok"}, body.Checks)
	})

	t.Run("database down", func(t *testing.T) {
		h := newRouter(t, true, map[string]Pinger{"database": down}, RouterConfig{})
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		body := decode[ReadinessResponse](t, rec)
		assert.Equal(t, "not ready", body.Status)
		assert.Equal(t, "connection refused", body.Checks["database"])
	})

	t.Run("models not loaded", func(t *testing.T) {
		rec := serve(newRouter(t, false, nil, RouterConfig{}), httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not loaded", decode[ReadinessResponse](t, rec).Checks["models"])
	})
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("vulntriage_records_scored_total 3\n"))
	})

	rec := serve(newRouter(t, true, nil, RouterConfig{Metrics: metrics}), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vulntriage_records_scored_total")

	rec = serve(newRouter(t, true, nil, RouterConfig{}), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newRouter(t, true, nil, RouterConfig{CORSOrigins: []string{"https://triage.example.com"}})

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"default origin", "http://localhost:5173", true},
		{"loopback origin", "http://127.0.0.1:8080", true},
		{"configured origin", "https://triage.example.com", true},
		{"unknown origin", "https://evil.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/meta", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(h, req)
			require.Equal(t, http.StatusOK, rec.Code)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/predict", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := serve(h, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	h := newRouter(t, true, nil, RouterConfig{RateLimit: 1})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode[ErrorResponse](t, rec).Error)
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(5)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(), "request %d should have been allowed", i+1)
	}
	assert.False(t, rl.Allow(), "6th request should have been denied")
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	var captured int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := LoggingMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)
		captured = w.(*responseWriter).statusCode
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, http.StatusTeapot, captured)
}
