// Package httpapi assembles the service's HTTP surface: the authenticated
// JSON API, the websocket endpoint, and the operational endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodbridge/internal/ratelimit"
	"foodbridge/pkg/platform/httputil"
	mwauth "foodbridge/pkg/platform/middleware/auth"
	"foodbridge/pkg/platform/middleware/logging"
	"foodbridge/pkg/platform/middleware/request"
)

// Registrar is a feature handler that mounts its own routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Validator mwauth.TokenValidator
	Logger    *slog.Logger

	// API handlers mounted under /api behind authentication.
	API []Registrar
	// Socket is mounted at the root so clients dial /ws directly; it
	// authenticates during the handshake.
	Socket Registrar

	// Limiter bounds per-user API request rates. Nil disables limiting.
	Limiter *ratelimit.Limiter

	// Checks run on /healthz. Nil entries are skipped.
	Checks map[string]HealthChecker
}

// NewRouter wires middleware and routes. Order matters: recovery outermost,
// then request IDs so every log line of a request carries one.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(logging.Logger(deps.Logger))

	r.Get("/healthz", healthHandler(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if deps.Socket != nil {
		deps.Socket.Register(r)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(mwauth.RequireAuth(deps.Validator, deps.Logger))
		if deps.Limiter != nil {
			api.Use(ratelimit.Middleware(deps.Limiter, deps.Logger))
		}
		for _, h := range deps.API {
			h.Register(api)
		}
	})

	return r
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range deps.Checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status[name] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}
